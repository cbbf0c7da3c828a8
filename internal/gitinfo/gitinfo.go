// Package gitinfo derives queue topics from the surrounding git repository:
// the first configured remote and the current branch combine into a
// "remote:branch" topic string.
package gitinfo

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoTopic indicates that no topic can be derived from the current
// directory: either it is not inside a git worktree, or the repository has
// neither a remote nor a current branch.
var ErrNoTopic = errors.New("cannot derive topic")

// Runner executes a git command and returns its stdout. Implementations
// return an error for non-zero exits.
type Runner interface {
	Output(args ...string) (string, error)
}

// ExecRunner runs git through the system binary.
type ExecRunner struct {
	// Dir is the working directory for git; empty means the process cwd.
	Dir string
}

func (r ExecRunner) Output(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Info answers git questions through a Runner.
type Info struct {
	runner Runner
}

// New creates an Info over the given runner.
func New(runner Runner) *Info {
	return &Info{runner: runner}
}

// FirstRemote returns the name of the first configured remote, or "" when
// there are none or git fails.
func (g *Info) FirstRemote() string {
	out, err := g.runner.Output("remote")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(out, "\n") {
		if remote := strings.TrimSpace(line); remote != "" {
			return remote
		}
	}
	return ""
}

// CurrentBranch returns the current branch name, or "" when detached or
// unavailable.
func (g *Info) CurrentBranch() string {
	out, err := g.runner.Output("branch", "--show-current")
	if err != nil {
		return ""
	}
	branch := strings.TrimSpace(out)
	if branch == "" || branch == "HEAD" {
		return ""
	}
	return branch
}

// InWorktree reports whether the current directory is inside a git worktree.
func (g *Info) InWorktree() bool {
	out, err := g.runner.Output("rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "true"
}

// CombineTopic joins remote and branch into a topic string. Either part may
// be empty; both empty yields "".
func CombineTopic(remote, branch string) string {
	switch {
	case remote != "" && branch != "":
		return remote + ":" + branch
	case remote != "":
		return remote
	default:
		return branch
	}
}

// DeriveTopic builds a queue topic from the current git context.
func (g *Info) DeriveTopic() (string, error) {
	if !g.InWorktree() {
		return "", fmt.Errorf("%w: not in a git worktree", ErrNoTopic)
	}

	topic := CombineTopic(g.FirstRemote(), g.CurrentBranch())
	if topic == "" {
		return "", fmt.Errorf("%w: no remote and no branch", ErrNoTopic)
	}
	return topic, nil
}

// DeriveTopic derives a topic using the system git binary.
func DeriveTopic() (string, error) {
	return New(ExecRunner{}).DeriveTopic()
}
