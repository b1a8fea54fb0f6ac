package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/binhbb2204/GameShelf/cli/config"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Manage logs",
	Long:  `View, search, and manage GameShelf CLI logs.`,
}

var logsErrorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Show error logs",
	Long:  `Display error entries from the log files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := logDir()
		if err != nil {
			return err
		}

		printHeader("Error Logs:")
		n, err := scanLogs(dir, func(file string, lineNum int, line string) {
			fmt.Printf("[%s] %s\n", file, line)
		}, isErrorLine)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Println("No errors found in logs.")
		}
		return nil
	},
}

var logsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search logs",
	Long:  `Search for a specific string in the log files.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.ToLower(args[0])
		dir, err := logDir()
		if err != nil {
			return err
		}

		fmt.Printf("Searching for %q in logs...\n", query)
		match := func(line string) bool { return strings.Contains(strings.ToLower(line), query) }
		n, err := scanLogs(dir, func(file string, lineNum int, line string) {
			fmt.Printf("[%s:%d] %s\n", file, lineNum, line)
		}, match)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Println("No matches found.")
		}
		return nil
	},
}

var logsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old logs",
	Long:  `Delete all log files in the log directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := logDir()
		if err != nil {
			return err
		}
		closeLogFile()

		files, err := logFiles(dir)
		if err != nil {
			return err
		}
		count := 0
		for _, name := range files {
			if err := os.Remove(filepath.Join(dir, name)); err == nil {
				count++
			}
		}
		printSuccess(fmt.Sprintf("Deleted %d log files", count))
		return nil
	},
}

var logsRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate logs",
	Long:  `Archive current logs and start fresh.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := logDir()
		if err != nil {
			return err
		}
		closeLogFile()

		files, err := logFiles(dir)
		if err != nil {
			return err
		}
		timestamp := time.Now().Format("20060102-150405")
		count := 0
		for _, name := range files {
			if strings.Contains(name, ".archive.") {
				continue
			}
			archived := fmt.Sprintf("%s.archive.%s.log", strings.TrimSuffix(name, ".log"), timestamp)
			if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, archived)); err == nil {
				count++
			}
		}
		printSuccess(fmt.Sprintf("Rotated %d log files", count))
		return nil
	},
}

func logDir() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", errNotInitialized
	}
	return cfg.Logging.Path, nil
}

// logFiles lists the *.log files in dir sorted by name. A missing directory
// has no logs.
func logFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".log") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// scanLogs calls visit for every line accepted by match and returns how many
// lines matched.
func scanLogs(dir string, visit func(file string, lineNum int, line string), match func(string) bool) (int, error) {
	files, err := logFiles(dir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, name := range files {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()
			if match(line) {
				visit(name, lineNum, line)
				count++
			}
		}
		f.Close()
	}
	return count, nil
}

func isErrorLine(line string) bool {
	var entry struct {
		Level string `json:"level"`
	}
	if err := json.Unmarshal([]byte(line), &entry); err == nil && entry.Level != "" {
		return strings.EqualFold(entry.Level, "error")
	}
	return strings.Contains(strings.ToLower(line), "error")
}

func init() {
	logsCmd.AddCommand(logsErrorsCmd)
	logsCmd.AddCommand(logsSearchCmd)
	logsCmd.AddCommand(logsCleanCmd)
	logsCmd.AddCommand(logsRotateCmd)
}
