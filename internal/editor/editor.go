// Package editor acquires message text by launching the user's editor on a
// temporary file.
package editor

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/google/shlex"
	"golang.org/x/term"
)

// Editor launches an external editor to capture text.
type Editor struct {
	// override takes precedence over VISUAL/EDITOR; usually the config
	// file's editor setting.
	override string
}

// New creates an Editor. override may be empty.
func New(override string) *Editor {
	return &Editor{override: override}
}

// Command returns the editor command as [executable, args...]. The override
// is checked first, then VISUAL, then EDITOR, defaulting to vi. Commands with
// arguments ("code --wait") are split shell-style.
func (e *Editor) Command() []string {
	cmd := e.override
	if cmd == "" {
		cmd = os.Getenv("VISUAL")
	}
	if cmd == "" {
		cmd = os.Getenv("EDITOR")
	}
	if cmd == "" {
		cmd = "vi"
	}

	parts, err := shlex.Split(cmd)
	if err != nil || len(parts) == 0 {
		return []string{cmd}
	}
	return parts
}

// Edit writes initial to a temporary file, opens it in the editor attached
// to the caller's terminal, and returns the edited content. The temporary
// file is always removed.
func (e *Editor) Edit(initial string) (string, error) {
	tf, err := os.CreateTemp("", "q.*.txt")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := tf.Name()
	defer os.Remove(path)

	if _, err := tf.WriteString(initial); err != nil {
		tf.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tf.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	parts := e.Command()
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor %s: %w", parts[0], err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading edited file: %w", err)
	}
	return string(edited), nil
}

// StdinIsTerminal reports whether stdin is attached to a terminal. The CLI
// refuses to launch an editor otherwise, pointing the user at readto.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
