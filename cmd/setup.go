package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/nvali/chronotap/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure chronotap (re-run anytime to edit settings)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(os.Stdin.Fd()) {
			return fmt.Errorf("setup needs an interactive terminal")
		}
		return runSetup()
	},
}

// runSetup walks through the settings, offering current values as defaults.
func runSetup() error {
	existing, err := config.LoadGlobal()
	if err != nil {
		return err
	}
	cfg := *existing

	fmt.Println()
	fmt.Println("  chronotap setup — press enter to keep the value in brackets.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	ask := func(prompt, current string) string {
		fmt.Printf("  %s [%s]: ", prompt, current)
		line, _ := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			return current
		}
		return line
	}
	askInt := func(prompt string, current int) int {
		for {
			v := ask(prompt, strconv.Itoa(current))
			n, err := strconv.Atoi(v)
			if err == nil && n > 0 {
				return n
			}
			fmt.Println("    please enter a positive number")
		}
	}

	cfg.IdleThresholdMin = askInt("Idle threshold (minutes)", cfg.IdleThresholdMin)
	cfg.HeartbeatIntervalSec = askInt("Heartbeat interval (seconds)", cfg.HeartbeatIntervalSec)
	cfg.RetentionDays = askInt("Keep day records for (days)", cfg.RetentionDays)

	kind := ask("Report channel (stdout|webhook)", cfg.Report.Kind)
	cfg.Report.Kind = kind
	if kind == "webhook" {
		cfg.Report.Target = ask("Webhook URL", cfg.Report.Target)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Println()
	fmt.Println("  ✓ Config saved. Run 'chronotap start' to begin tracking.")
	fmt.Println()
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
