package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"ishell/internal/config"
	"ishell/internal/hostterm"
	"ishell/internal/multiplexer"
	"ishell/internal/version"
)

// NewRootCmd creates the root cobra command with all subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ishell",
		Short: "Terminal multiplexer hosting a shell and an AI assistant side by side",
		Long:  "ishell splits the terminal into two panes, one running a shell and one running an AI-assistant REPL, and lets you flip focus between them with a ^B command prefix.",
	}

	rootCmd.AddCommand(newRunCmd(), newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ishell version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.DisplayVersion())
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the multiplexer session",
		Long:  "Spawn the configured shell and assistant in separate PTYs and host them side by side until either exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdin.Fd()) {
				return fmt.Errorf("ishell run requires an interactive terminal")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if prefix != "" {
				cfg.Keys.CommandPrefix = prefix
			}

			host, err := hostterm.New()
			if err != nil {
				return fmt.Errorf("init terminal: %w", err)
			}

			m := multiplexer.New(host, cfg.CommandPrefixByte())
			defer m.Shutdown()

			shellCmd, shellArgs := resolveShell(cfg)
			assistantCmd, assistantArgs := cfg.Assistant.Command, cfg.Assistant.Args
			if assistantCmd == "" {
				assistantCmd = "claude"
			}

			if err := m.Start(shellCmd, shellArgs, assistantCmd, assistantArgs, passthroughEnv()); err != nil {
				return fmt.Errorf("start session: %w", err)
			}
			return m.Run()
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "override the ^B command-prefix character")
	return cmd
}

func resolveShell(cfg *config.Config) (string, []string) {
	if cfg.Shell.Command != "" {
		return cfg.Shell.Command, cfg.Shell.Args
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh, nil
	}
	return "/bin/sh", nil
}

// passthroughEnv carries the environment variables config.EnvPassthrough
// names into the assistant child's environment, unmodified.
func passthroughEnv() map[string]string {
	env := make(map[string]string, len(config.EnvPassthrough))
	for _, key := range config.EnvPassthrough {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return env
}
