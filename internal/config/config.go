// Package config loads the two-tier (user + project) settings layer: chat
// endpoint defaults, the default inserts directory, and voice settings.
// Project settings override user settings field by field. Grounded in the
// teacher's internal/config Manager, generalized from wingthing's
// agent/UI settings to the interpreter's chat/inserts/voice settings.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds settings merged from ~/.tscript/settings.json and
// <project>/.tscript/settings.json.
type Config struct {
	APIURL      string `json:"api_url,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	Model       string `json:"model,omitempty"`
	InsertsDir  string `json:"inserts_dir,omitempty"`
	HistoryFile string `json:"history_file,omitempty"`
	LogLevel    string `json:"log_level,omitempty"`
	VoicePath   string `json:"voice_path,omitempty"`
	AudioWeb    bool   `json:"audio_web,omitempty"`
}

type Manager struct {
	userConfig    *Config
	projectConfig *Config
	merged        *Config
}

func NewManager() *Manager {
	return &Manager{
		userConfig:    &Config{},
		projectConfig: &Config{},
		merged:        &Config{},
	}
}

func (m *Manager) Load(userConfigDir, projectDir string) error {
	// Load user config
	userConfigPath := filepath.Join(userConfigDir, "settings.json")
	if err := m.loadConfig(userConfigPath, m.userConfig); err != nil {
		return err
	}

	// Load project config
	projectConfigPath := filepath.Join(projectDir, ".tscript", "settings.json")
	if err := m.loadConfig(projectConfigPath, m.projectConfig); err != nil {
		return err
	}

	// Merge configs (project overrides user)
	m.mergeConfigs()

	return nil
}

func (m *Manager) loadConfig(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Config file doesn't exist, use defaults
		}
		return err
	}

	return json.Unmarshal(data, config)
}

func (m *Manager) mergeConfigs() {
	m.merged = &Config{
		APIURL:      m.getStringValue(m.userConfig.APIURL, m.projectConfig.APIURL, "https://api.openai.com"),
		APIKey:      m.getStringValue(m.userConfig.APIKey, m.projectConfig.APIKey, ""),
		Model:       m.getStringValue(m.userConfig.Model, m.projectConfig.Model, "gpt-4o-mini"),
		InsertsDir:  m.getStringValue(m.userConfig.InsertsDir, m.projectConfig.InsertsDir, ""),
		HistoryFile: m.getStringValue(m.userConfig.HistoryFile, m.projectConfig.HistoryFile, ""),
		LogLevel:    m.getStringValue(m.userConfig.LogLevel, m.projectConfig.LogLevel, "info"),
		VoicePath:   m.getStringValue(m.userConfig.VoicePath, m.projectConfig.VoicePath, ""),
		AudioWeb:    m.getBoolValue(m.userConfig.AudioWeb, m.projectConfig.AudioWeb, false),
	}
}

func (m *Manager) getStringValue(user, project, defaultValue string) string {
	if project != "" {
		return project
	}
	if user != "" {
		return user
	}
	return defaultValue
}

func (m *Manager) getBoolValue(user, project, defaultValue bool) bool {
	if project {
		return project
	}
	if user {
		return user
	}
	return defaultValue
}

func (m *Manager) Get() *Config {
	return m.merged
}

func (m *Manager) SaveUserConfig(userConfigDir string) error {
	configPath := filepath.Join(userConfigDir, "settings.json")

	// Ensure directory exists
	if err := os.MkdirAll(userConfigDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m.userConfig, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

func (m *Manager) SaveProjectConfig(projectDir string) error {
	tscriptDir := filepath.Join(projectDir, ".tscript")
	configPath := filepath.Join(tscriptDir, "settings.json")

	// Ensure directory exists
	if err := os.MkdirAll(tscriptDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m.projectConfig, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
