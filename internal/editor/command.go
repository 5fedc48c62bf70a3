// Package editor turns an editor command template into a concrete argv
// and runs it for the lifetime of a session.
package editor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
)

// ErrEmptyCommand is returned when the editor template parses to nothing.
var ErrEmptyCommand = errors.New("editor command template is empty")

// BuildCommand expands an editor command template into an argv ready for
// exec. Templates may position the file and cursor with %f, %l and %c
// placeholders; every occurrence in the arguments is replaced. Templates
// without placeholders get arguments appended for editors whose
// cursor-jump flags are known, and just the file path otherwise.
func BuildCommand(template, file string, line, col uint) ([]string, error) {
	tokens, err := shellwords.Parse(template)
	if err != nil {
		return nil, fmt.Errorf("failed to parse editor command %q: %w", template, err)
	}
	if len(tokens) == 0 {
		return nil, ErrEmptyCommand
	}

	lineStr := strconv.FormatUint(uint64(line), 10)
	colStr := strconv.FormatUint(uint64(col), 10)

	if hasPlaceholder(tokens[1:]) {
		for i, tok := range tokens[1:] {
			tok = strings.ReplaceAll(tok, "%f", file)
			tok = strings.ReplaceAll(tok, "%l", lineStr)
			tok = strings.ReplaceAll(tok, "%c", colStr)
			tokens[i+1] = tok
		}
		return tokens, nil
	}

	// Wrappers like "gnome-terminal -- vim" name the editor last.
	name := filepath.Base(tokens[len(tokens)-1])
	return append(tokens, knownEditorArgs(name, file, lineStr, colStr)...), nil
}

func hasPlaceholder(args []string) bool {
	for _, a := range args {
		if strings.Contains(a, "%f") || strings.Contains(a, "%l") || strings.Contains(a, "%c") {
			return true
		}
	}
	return false
}

// knownEditorArgs returns the cursor-positioning arguments for editors
// with a known command-line syntax. Unknown editors get the file alone.
func knownEditorArgs(editor, file, line, col string) []string {
	switch editor {
	case "vi", "vim", "nvim":
		return []string{"+" + line, "+norm! " + col + "|", file}
	case "emacs", "emacsclient", "gedit", "kak":
		return []string{"+" + line + ":" + col, file}
	case "nano":
		return []string{"+" + line + "," + col, file}
	case "joe", "ee":
		return []string{"+" + line, file}
	case "code", "code-oss":
		return []string{"--goto", file + ":" + line + ":" + col, "--wait"}
	case "subl":
		return []string{file + ":" + line + ":" + col, "--wait"}
	case "micro":
		return []string{file, "+" + line + ":" + col}
	default:
		return []string{file}
	}
}
