package ioface

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"
)

// agentRequest is the JSON document written to AgentOutput describing what
// response is expected back on AgentInput.
type agentRequest struct {
	Type    string   `json:"type"`
	Output  string   `json:"output,omitempty"`
	Prompt  string   `json:"prompt,omitempty"`
	Choices []string `json:"choices,omitempty"`
}

// AgentChannel implements Channel over the agent-mode file protocol: a
// request is written to outputPath, and the engine polls inputPath until
// a response file appears, then deletes it.
type AgentChannel struct {
	OutputPath   string
	InputPath    string
	PollInterval time.Duration

	transcript strings.Builder
}

func NewAgentChannel(outputPath, inputPath string) *AgentChannel {
	return &AgentChannel{OutputPath: outputPath, InputPath: inputPath, PollInterval: 200 * time.Millisecond}
}

func (a *AgentChannel) Print(text string) { a.transcript.WriteString(text) }

func (a *AgentChannel) Clear() { a.transcript.Reset() }

func (a *AgentChannel) UserInput(ctx context.Context, prompt string) (string, error) {
	if err := a.writeRequest(agentRequest{Type: "user_input", Output: a.transcript.String(), Prompt: prompt}); err != nil {
		return "", err
	}
	return a.pollResponse(ctx)
}

func (a *AgentChannel) UserChoice(ctx context.Context, description string, choices []string) (int, error) {
	if err := a.writeRequest(agentRequest{Type: "user_choice", Output: a.transcript.String(), Prompt: description, Choices: choices}); err != nil {
		return -1, err
	}
	resp, err := a.pollResponse(ctx)
	if err != nil {
		return -1, err
	}
	for i, c := range choices {
		if c == resp {
			return i, nil
		}
	}
	return -1, nil
}

func (a *AgentChannel) ShowInserts(ctx context.Context, pretty string) error {
	if err := a.writeRequest(agentRequest{Type: "user_choice", Output: pretty, Prompt: "dismiss", Choices: []string{"ok"}}); err != nil {
		return err
	}
	_, err := a.pollResponse(ctx)
	return err
}

func (a *AgentChannel) PollMenu() MenuAction { return MenuNone }

func (a *AgentChannel) writeRequest(req agentRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return os.WriteFile(a.OutputPath, data, 0644)
}

func (a *AgentChannel) pollResponse(ctx context.Context) (string, error) {
	ticker := time.NewTicker(a.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ErrCancelled
		case <-ticker.C:
			data, err := os.ReadFile(a.InputPath)
			if err != nil {
				continue
			}
			os.Remove(a.InputPath)
			return strings.TrimRight(string(data), "\r\n"), nil
		}
	}
}
