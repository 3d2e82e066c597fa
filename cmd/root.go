package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X github.com/leshchenko1979/telegram-mcp-go/cmd.Version=v1.0.0"
var Version = "dev"

var (
	cfgFile  string
	verbose  bool
	testMode bool
)

var rootCmd = &cobra.Command{
	Use:   "telegram-mcp-go",
	Short: "telegram-mcp-go — MCP tool server for a Telegram user account",
	Long:  "telegram-mcp-go exposes search, messaging, contact, and raw-RPC tools over the Model Context Protocol, backed by a per-bearer-token pool of authenticated Telegram sessions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.json5 or $MCP_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&testMode, "test-mode", false, "force network mode bound to localhost with auth disabled (spec.md §6)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(loginCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("telegram-mcp-go %s\n", Version)
		},
	}
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("MCP_CONFIG"); v != "" {
		return v
	}
	return "config.json5"
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
