package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nexus/internal/config"
	"github.com/felixgeelhaar/nexus/internal/credential"
	"github.com/felixgeelhaar/nexus/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stored configuration",
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		s := openConfigStore()
		defer s.Close()

		if err := s.SetConfig(args[0], args[1]); err != nil {
			fmt.Printf("Failed to set config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration saved: %s\n", args[0])
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openConfigStore()
		defer s.Close()

		val, err := s.GetConfig(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if val == "" {
			fmt.Println("(not set)")
		} else if credential.IsEncrypted(val) {
			fmt.Println("(encrypted)")
		} else {
			fmt.Println(val)
		}
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [name] [secret]",
	Short: "Store an API key encrypted at rest",
	Long: `Store a provider API key. The value is encrypted with a machine-derived
key before it reaches the database, e.g.:

  nexus config set-key openai_api_key sk-...`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		s := openConfigStore()
		defer s.Close()

		vault, err := credential.NewVault(s)
		if err != nil {
			fmt.Printf("Failed to init vault: %v\n", err)
			os.Exit(1)
		}
		if err := vault.StoreSecret(args[0], args[1]); err != nil {
			fmt.Printf("Failed to store secret: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Stored %s (%s)\n", args[0], credential.MaskSecret(args[1]))
	},
}

func openConfigStore() store.Storage {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		// Config table access should work even with an incomplete
		// provider setup, so fall back to defaults.
		cfg = &config.Config{DataDir: "./data"}
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		fmt.Printf("Failed to create data dir: %v\n", err)
		os.Exit(1)
	}
	s, err := store.NewSQLiteStore(filepath.Join(cfg.DataDir, "nexus.db"))
	if err != nil {
		fmt.Printf("Failed to init store: %v\n", err)
		os.Exit(1)
	}
	return s
}

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetKeyCmd)
}
