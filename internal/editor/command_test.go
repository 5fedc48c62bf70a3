package editor

import (
	"errors"
	"slices"
	"testing"
)

func TestBuildCommandSynthesis(t *testing.T) {
	const file = "/tmp/x.txt"

	cases := []struct {
		name     string
		template string
		line     uint
		col      uint
		want     []string
	}{
		{
			name:     "vim gets line and column flags",
			template: "vim",
			line:     3, col: 5,
			want: []string{"vim", "+3", "+norm! 5|", file},
		},
		{
			name:     "absolute path still matches by basename",
			template: "/usr/bin/vim",
			line:     3, col: 5,
			want: []string{"/usr/bin/vim", "+3", "+norm! 5|", file},
		},
		{
			name:     "wrapper command matches on the last token",
			template: "gnome-terminal -- vim",
			line:     3, col: 5,
			want: []string{"gnome-terminal", "--", "vim", "+3", "+norm! 5|", file},
		},
		{
			name:     "template placeholders take over completely",
			template: "code %f --wait",
			line:     3, col: 5,
			want: []string{"code", file, "--wait"},
		},
		{
			name:     "every placeholder occurrence is replaced",
			template: "tool %f %f --pos %l:%c",
			line:     3, col: 5,
			want: []string{"tool", file, file, "--pos", "3:5"},
		},
		{
			name:     "unknown editor gets the file appended",
			template: "cat",
			line:     3, col: 5,
			want: []string{"cat", file},
		},
		{
			name:     "nano syntax",
			template: "nano",
			line:     2, col: 7,
			want: []string{"nano", "+2,7", file},
		},
		{
			name:     "emacsclient syntax",
			template: "emacsclient",
			line:     3, col: 5,
			want: []string{"emacsclient", "+3:5", file},
		},
		{
			name:     "vscode syntax",
			template: "code",
			line:     3, col: 5,
			want: []string{"code", "--goto", file + ":3:5", "--wait"},
		},
		{
			name:     "sublime syntax",
			template: "subl",
			line:     3, col: 5,
			want: []string{"subl", file + ":3:5", "--wait"},
		},
		{
			name:     "micro syntax",
			template: "micro",
			line:     3, col: 5,
			want: []string{"micro", file, "+3:5"},
		},
		{
			name:     "joe syntax",
			template: "joe",
			line:     3, col: 5,
			want: []string{"joe", "+3", file},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := BuildCommand(tc.template, file, tc.line, tc.col)
			if err != nil {
				t.Fatalf("BuildCommand(%q): %v", tc.template, err)
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("BuildCommand(%q):\nwant %q\ngot  %q", tc.template, tc.want, got)
			}
		})
	}
}

func TestBuildCommandEmptyTemplate(t *testing.T) {
	for _, template := range []string{"", "   "} {
		_, err := BuildCommand(template, "/tmp/x.txt", 1, 1)
		if !errors.Is(err, ErrEmptyCommand) {
			t.Errorf("BuildCommand(%q): want ErrEmptyCommand, got %v", template, err)
		}
	}
}

func TestBuildCommandUnparseableTemplate(t *testing.T) {
	_, err := BuildCommand(`vim "unterminated`, "/tmp/x.txt", 1, 1)
	if err == nil {
		t.Fatal("expected a parse error for an unterminated quote")
	}
}
