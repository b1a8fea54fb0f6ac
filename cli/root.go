package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/binhbb2204/GameShelf/cli/config"
	"github.com/binhbb2204/GameShelf/pkg/logger"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "0.1.0"

var (
	noColor bool
	cliLog  = logger.New(logger.INFO, true, nil)
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:           "gameshelf",
	Short:         "GameShelf command line client",
	Long:          `Track your video game library from the terminal: search the catalog, manage your shelf, and follow updates live.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err == nil {
			if !cfg.Output.Color {
				color.NoColor = true
			}
			openLogFile(cfg)
		}
		if noColor {
			color.NoColor = true
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogFile()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(libraryCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(systemCmd)
	rootCmd.AddCommand(logsCmd)
}

// Execute runs the root command and returns its error for the caller to report.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err.Error())
		closeLogFile()
	}
	return err
}

// openLogFile points the CLI logger at <logging.path>/cli.log. Failures leave
// logging disabled.
func openLogFile(cfg *config.Config) {
	if cfg.Logging.Path == "" || logFile != nil {
		return
	}
	if err := os.MkdirAll(cfg.Logging.Path, 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(cfg.Logging.Path, "cli.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	logFile = f
	cliLog = logger.New(logger.ParseLevel(cfg.Logging.Level), true, f).WithContext("component", "cli")
}

func closeLogFile() {
	if logFile == nil {
		return
	}
	_ = cliLog.Sync()
	_ = logFile.Close()
	logFile = nil
	cliLog = logger.New(logger.INFO, true, nil)
}

func printSuccess(msg string) {
	color.New(color.FgGreen).Fprintln(os.Stdout, "✓ "+msg)
}

func printError(msg string) {
	color.New(color.FgRed).Fprintln(os.Stderr, "✗ "+msg)
}

func printInfo(msg string) {
	color.New(color.FgCyan).Fprintln(os.Stdout, msg)
}

func printHeader(msg string) {
	color.New(color.Bold).Fprintln(os.Stdout, msg)
	fmt.Println(strings.Repeat("-", len(msg)))
}

// passwordInput is read instead of the terminal when stdin is not a TTY.
var passwordInput io.Reader = os.Stdin

// readPassword prompts without echo on a terminal and falls back to reading a
// line from stdin when input is piped.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	if f, ok := passwordInput.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := readLine(passwordInput)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return line, nil
}

// readLine reads up to the next newline one byte at a time so that
// consecutive prompts can share the same reader.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			if sb.Len() == 0 {
				return "", io.ErrUnexpectedEOF
			}
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(sb.String(), "\r"), nil
}
