package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tillfalko/interpolation-engine/internal/analyzer"
	"github.com/tillfalko/interpolation-engine/internal/chat"
	"github.com/tillfalko/interpolation-engine/internal/config"
	"github.com/tillfalko/interpolation-engine/internal/engine"
	"github.com/tillfalko/interpolation-engine/internal/execlog"
	"github.com/tillfalko/interpolation-engine/internal/ioface"
	"github.com/tillfalko/interpolation-engine/internal/loadctx"
	"github.com/tillfalko/interpolation-engine/internal/logger"
	"github.com/tillfalko/interpolation-engine/internal/program"
	"github.com/tillfalko/interpolation-engine/internal/value"
)

func runCmd() *cobra.Command {
	var (
		logFile      string
		historyFile  string
		insertsDir   string
		agentMode    bool
		agentOutput  string
		agentInput   string
		execLogPath  string
	)

	cmd := &cobra.Command{
		Use:   "run <program> [-- ARG1 ARG2 ...]",
		Short: "Validate and interpret a task program",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			programPath := args[0]
			var runArgs []string
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				runArgs = args[dash:]
			}

			if agentMode && (agentOutput == "" || agentInput == "") {
				return fmt.Errorf("--agent-mode requires --agent-output and --agent-input")
			}

			cfg, err := loadConfig(insertsDir, historyFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := logger.Init(cfg.LogLevel, logFile); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			p, err := program.Load(programPath)
			if err != nil {
				return fmt.Errorf("load program: %w", err)
			}

			programDir := programDirOf(programPath)
			lc, err := loadctx.New(programDir, cfg.InsertsDir)
			if err != nil {
				return fmt.Errorf("load inserts context: %w", err)
			}

			if diags := analyzer.Analyze(p, lc); len(diags) > 0 {
				for _, d := range diags {
					fmt.Fprintln(os.Stderr, d.String())
				}
				return fmt.Errorf("%d validation diagnostic(s), aborting", len(diags))
			}

			state := program.NewState(p.DefaultState)
			injectArgs(state, runArgs)

			ch, closeCh, err := buildChannel(agentMode, agentOutput, agentInput, cfg.HistoryFile)
			if err != nil {
				return fmt.Errorf("build io channel: %w", err)
			}
			if closeCh != nil {
				defer closeCh()
			}

			apiKey, err := resolveAPIKey(cfg.APIKey)
			if err != nil {
				return fmt.Errorf("resolve api key: %w", err)
			}

			es, err := openExecLog(execLogPath)
			if err != nil {
				return fmt.Errorf("open execution log: %w", err)
			}
			if es != nil {
				defer es.Close()
			}

			eng := engine.New(p, chat.Endpoint{APIURL: cfg.APIURL, APIKey: apiKey}, ch, lc, logger.Log, es, programDir)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			return eng.Run(ctx, state)
		},
	}

	cmd.Flags().StringVar(&logFile, "log", "", "append structured logs to this file in addition to stdout")
	cmd.Flags().StringVar(&historyFile, "history", "", "append interactive input lines to this file")
	cmd.Flags().StringVar(&insertsDir, "inserts-dir", "", "directory backing the inserts map")
	cmd.Flags().BoolVar(&agentMode, "agent-mode", false, "use the file-based agent protocol instead of the terminal")
	cmd.Flags().StringVar(&agentOutput, "agent-output", "", "path the agent protocol writes requests to")
	cmd.Flags().StringVar(&agentInput, "agent-input", "", "path the agent protocol polls for responses")
	cmd.Flags().StringVar(&execLogPath, "exec-log", "", "sqlite database recording task_start events")
	return cmd
}

// injectArgs exposes the CLI's trailing positional arguments as ARG1..N,
// the one piece of ARG-injection semantics the CLI surface is responsible
// for per the external-interfaces design.
func injectArgs(state *program.State, runArgs []string) {
	for i, a := range runArgs {
		state.Inserts.Set("ARG"+strconv.Itoa(i+1), value.Str(a))
	}
}

func loadConfig(insertsDirFlag, historyFlag string) (*config.Config, error) {
	userDir, err := config.GetUserConfigDir()
	if err != nil {
		return nil, err
	}
	projectDir, err := config.GetProjectDir()
	if err != nil {
		return nil, err
	}
	m := config.NewManager()
	if err := m.Load(userDir, projectDir); err != nil {
		return nil, err
	}
	cfg := m.Get()
	if insertsDirFlag != "" {
		cfg.InsertsDir = insertsDirFlag
	}
	if historyFlag != "" {
		cfg.HistoryFile = historyFlag
	}
	return cfg, nil
}

func buildChannel(agentMode bool, agentOutput, agentInput, historyFile string) (ioface.Channel, func(), error) {
	if agentMode {
		return ioface.NewAgentChannel(agentOutput, agentInput), nil, nil
	}
	c, err := ioface.NewConsoleChannel(os.Stdin, os.Stdout, historyFile)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { c.Close() }, nil
}

func openExecLog(path string) (*execlog.Store, error) {
	if path == "" {
		return nil, nil
	}
	return execlog.Open(path)
}

// resolveAPIKey falls back to TSCRIPT_API_KEY, then — only when stdin is an
// interactive terminal — prompts for a masked entry rather than leaving the
// chat endpoint unauthenticated.
func resolveAPIKey(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if env := os.Getenv("TSCRIPT_API_KEY"); env != "" {
		return env, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(os.Stderr, "API key: ")
	key, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(key), nil
}
