// Package main provides the stdio MCP server for the health analytics engine.
// It requires no external services: history is kept in SQLite under the data
// directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/health-analytics-server/internal/config"
	"github.com/health-analytics-server/internal/mcp"
	"github.com/health-analytics-server/internal/setup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "mcp-server",
		Short:        "Health analytics MCP server (stdio)",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(newSetupCmd(), newStatusCmd())
	return root
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadLiteConfig()
	server, err := mcp.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	return server.Run(ctx)
}

func newSetupCmd() *cobra.Command {
	var opts setup.Options
	var configPath string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register this server with a desktop MCP client",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(configPath)
			if err != nil {
				return err
			}
			if opts.BinaryPath == "" {
				if opts.BinaryPath, err = os.Executable(); err != nil {
					if opts.BinaryPath, err = setup.FindBinary("mcp-server"); err != nil {
						return err
					}
				}
			}
			if err := setup.Register(path, opts); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Registered %q in %s\n", color.GreenString("✓"), setup.ServerName, path)
			fmt.Fprintln(out, "Restart the client to load the new configuration.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.BinaryPath, "binary", "b", "", "path to the server binary (default: this executable)")
	cmd.Flags().StringVarP(&opts.DataDir, "data-dir", "d", "", "data directory for the history database")
	cmd.Flags().StringVar(&configPath, "config", "", "client config file (default: platform location)")
	return cmd
}

func newStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current client registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(configPath)
			if err != nil {
				return err
			}
			status, err := setup.Inspect(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file:    %s\n", status.ConfigPath)
			fmt.Fprintf(out, "Registered:     %s\n", mark(status.Registered))
			if status.Registered {
				fmt.Fprintf(out, "Binary:         %s %s\n", status.BinaryPath, mark(status.BinaryExists))
			}
			fmt.Fprintf(out, "Data directory: %s %s\n", status.DataDir, mark(status.DataDirReady))
			fmt.Fprintf(out, "History DB:     %s\n", mark(status.HistoryDB))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "client config file (default: platform location)")
	return cmd
}

func resolveConfigPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return setup.DefaultConfigPath()
}

func mark(ok bool) string {
	if ok {
		return color.GreenString("✓")
	}
	return color.RedString("✗")
}
