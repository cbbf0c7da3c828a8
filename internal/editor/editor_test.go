package editor

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestEditor_Command(t *testing.T) {
	tests := []struct {
		name     string
		override string
		visual   string
		editor   string
		want     []string
	}{
		{
			name:     "override wins",
			override: "nano",
			visual:   "vim",
			editor:   "emacs",
			want:     []string{"nano"},
		},
		{
			name:   "visual before editor",
			visual: "vim",
			editor: "emacs",
			want:   []string{"vim"},
		},
		{
			name:   "editor as fallback",
			editor: "emacs",
			want:   []string{"emacs"},
		},
		{
			name: "defaults to vi",
			want: []string{"vi"},
		},
		{
			name:   "arguments split shell-style",
			visual: `code --wait --new-window`,
			want:   []string{"code", "--wait", "--new-window"},
		},
		{
			name:   "quoted path with spaces",
			visual: `"/opt/my editor/bin/ed" -n`,
			want:   []string{"/opt/my editor/bin/ed", "-n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VISUAL", tt.visual)
			t.Setenv("EDITOR", tt.editor)

			got := New(tt.override).Command()
			if strings.Join(got, "\x00") != strings.Join(tt.want, "\x00") {
				t.Errorf("Command() = %q, want %q", got, tt.want)
			}
		})
	}
}

// fakeEditor writes a shell script that replaces the edited file's content,
// and returns its path for use as the editor command.
func fakeEditor(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script editor stub requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-editor.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEditor_Edit(t *testing.T) {
	t.Run("returns edited content", func(t *testing.T) {
		ed := New(fakeEditor(t, `printf 'edited text' > "$1"`))

		got, err := ed.Edit("initial text")
		if err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
		if got != "edited text" {
			t.Errorf("Edit() = %q, want %q", got, "edited text")
		}
	})

	t.Run("editor sees initial content", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "seen.txt")
		ed := New(fakeEditor(t, `cat "$1" > `+out))

		if _, err := ed.Edit("seed"); err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
		seen, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if string(seen) != "seed" {
			t.Errorf("editor saw %q, want %q", seen, "seed")
		}
	})

	t.Run("non-zero editor exit is an error", func(t *testing.T) {
		ed := New(fakeEditor(t, "exit 3"))

		if _, err := ed.Edit(""); err == nil {
			t.Error("Edit() error = nil, want editor failure")
		}
	})
}
