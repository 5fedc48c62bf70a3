package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/ghostedit/internal/config"
	"github.com/fakeyudi/ghostedit/internal/editor"
)

var (
	checkEditor string
	checkFile   string
	checkLine   uint
	checkCol    uint
)

// checkCmd expands an editor template without launching anything, so a
// template can be debugged before wiring it into the config.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show the command an editor template expands to",
	RunE: func(cmd *cobra.Command, args []string) error {
		template := checkEditor
		if template == "" {
			template = cfg.Editor
		}
		template, err := config.ResolveEditor(template)
		if err != nil {
			return err
		}
		argv, err := editor.BuildCommand(template, checkFile, checkLine, checkCol)
		if err != nil {
			return err
		}
		cmd.Printf("template: %s\n", template)
		cmd.Printf("argv:     %q\n", argv)
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkEditor, "editor", "", "editor command template to test")
	checkCmd.Flags().StringVar(&checkFile, "file", "sample.txt", "file path to substitute")
	checkCmd.Flags().UintVar(&checkLine, "line", 1, "cursor line")
	checkCmd.Flags().UintVar(&checkCol, "col", 1, "cursor column")
	rootCmd.AddCommand(checkCmd)
}
