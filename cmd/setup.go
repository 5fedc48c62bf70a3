package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/ghostedit/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure ghostedit (re-run anytime to edit settings)",
	// Skip the usual config load so setup works with a broken config file.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup()
	},
}

// runSetup walks through every setting and writes the config file.
func runSetup() error {
	reader := bufio.NewReader(os.Stdin)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Printf("%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Printf("%s: ", prompt)
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		ans = strings.ToLower(ans)
		return ans == "y" || ans == "yes", nil
	}

	// Re-running setup edits the existing config in place.
	c := config.Defaults()
	if existing, err := config.LoadGlobal(); err == nil {
		c = *existing
	}

	fmt.Println()
	fmt.Println("  ┌─────────────────────────────────┐")
	fmt.Println("  │        ghostedit — setup        │")
	fmt.Println("  └─────────────────────────────────┘")
	fmt.Println()

	editorDefault := c.Editor
	if editorDefault == "" {
		editorDefault = os.Getenv("EDITOR")
	}
	editorCmd, err := ask("  Editor command (%f file, %l line, %c column)", editorDefault)
	if err != nil {
		return err
	}
	c.Editor = editorCmd

	for {
		portStr, err := ask("  Port", strconv.Itoa(int(c.Port)))
		if err != nil {
			return err
		}
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			fmt.Println("  Please enter a number between 0 and 65535.")
			continue
		}
		c.Port = uint16(port)
		break
	}

	multi, err := askBool("  Allow several editors at once", c.Multi)
	if err != nil {
		return err
	}
	c.Multi = multi

	for {
		idleStr, err := ask("  Idle timeout (e.g. 30m, empty to disable)", c.IdleTimeout)
		if err != nil {
			return err
		}
		if idleStr != "" {
			if _, err := time.ParseDuration(idleStr); err != nil {
				fmt.Println("  Please enter a Go duration like 30m or 1h.")
				continue
			}
		}
		c.IdleTimeout = idleStr
		break
	}

	if err := config.Save(&c); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	path, err := config.GlobalPath()
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Printf("  ✓ Config saved to %s\n", path)
	fmt.Println("  Run 'ghostedit serve' to start the server.")
	fmt.Println()
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
