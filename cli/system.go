package cli

import (
	"fmt"
	"runtime"

	"github.com/binhbb2204/GameShelf/cli/config"
	"github.com/spf13/cobra"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "System information",
	Long:  `Display system information and diagnostics.`,
}

var systemInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system info",
	Long:  `Display detailed system information including OS, architecture, and server status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		printHeader("System Information:")
		fmt.Printf("CLI Version: %s\n", Version)
		fmt.Printf("OS: %s\n", runtime.GOOS)
		fmt.Printf("Architecture: %s\n", runtime.GOARCH)
		fmt.Printf("Go Version: %s\n", runtime.Version())
		fmt.Printf("CPUs: %d\n", runtime.NumCPU())

		cfg, err := config.Load()
		if err != nil {
			fmt.Println("\nConfiguration: Not initialized")
			return nil
		}

		path, _ := config.GetConfigPath()
		fmt.Println("\nConfiguration:")
		fmt.Printf("  Config Path: %s\n", path)
		fmt.Printf("  Log Path: %s\n", cfg.Logging.Path)
		fmt.Printf("  Server: %s\n", cfg.ServerURL())
		if cfg.User.Username != "" {
			fmt.Printf("  User: %s\n", cfg.User.Username)
		}

		fmt.Println("\nServer Connectivity:")
		health, err := fetchHealth(newAPIClient(cfg.ServerURL(), ""))
		if err != nil {
			fmt.Printf("  Status: ✗ Unreachable (%s)\n", err)
			return nil
		}
		fmt.Printf("  Status: ✓ Online (%s, up %s)\n", health.Service, health.Uptime)
		return nil
	},
}

func init() {
	systemCmd.AddCommand(systemInfoCmd)
}
