package cli

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/binhbb2204/GameShelf/cli/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the CLI configuration",
	Long:  `Create the configuration directory and a default config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Init(initForce)
		if err != nil {
			return err
		}
		printSuccess("Configuration initialized at " + path)
		fmt.Println("Next: gameshelf auth register --username <name> --email <email>")
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify GameShelf CLI configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration values. The session token is masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errNotInitialized
		}

		printHeader("Current Configuration:")

		v := reflect.ValueOf(*cfg)
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			fmt.Printf("[%s]\n", yamlName(t.Field(i)))
			if field.Kind() != reflect.Struct {
				continue
			}
			for j := 0; j < field.NumField(); j++ {
				tag := yamlName(field.Type().Field(j))
				value := field.Field(j).Interface()
				if tag == "token" {
					value = maskToken(cfg.User.Token)
				}
				fmt.Printf("  %s: %v\n", tag, value)
			}
			fmt.Println()
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errNotInitialized
		}
		value, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value using "section.key" notation.

Keys: ` + strings.Join(config.Keys, ", "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errNotInitialized
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("Set %s = %s", args[0], args[1]))
		return nil
	},
}

func yamlName(f reflect.StructField) string {
	tag := strings.Split(f.Tag.Get("yaml"), ",")[0]
	if tag == "" {
		return f.Name
	}
	return tag
}

func maskToken(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
