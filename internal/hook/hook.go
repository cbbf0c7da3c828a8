// Package hook implements the Claude Code hook protocol endpoints: the
// prompt hook that intercepts "=qput" prompts and enqueues them, and the
// stop hook that dequeues the next task and feeds it back as a prompt.
//
// Hooks are deliberately quiet: every failure path degrades to allowing the
// prompt or the stop rather than surfacing an error to the user.
package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/leynos/claude-q/internal/queue"
)

// Prefix marks a prompt that should be enqueued instead of submitted.
const Prefix = "=qput"

// promptPayload is the hook request read from stdin.
type promptPayload struct {
	Prompt string `json:"prompt"`
}

// blockResponse is the JSON hook reply that blocks the prompt or stop.
type blockResponse struct {
	Decision       string `json:"decision"`
	Reason         string `json:"reason"`
	SuppressOutput bool   `json:"suppressOutput,omitempty"`
}

// Store is the queue surface the hooks consume.
type Store interface {
	Append(topic, content string) (string, error)
	PopFirst(topic string) (*queue.Message, error)
}

// TopicSource derives the queue topic for the current working directory.
type TopicSource interface {
	DeriveTopic() (string, error)
}

// Hooks runs the hook endpoints against a store and topic source.
type Hooks struct {
	store  Store
	topics TopicSource
}

// New creates a Hooks instance.
func New(store Store, topics TopicSource) *Hooks {
	return &Hooks{store: store, topics: topics}
}

// ExtractBody returns the message body of a prefixed prompt. The prefix must
// be the first non-whitespace token and must be followed by a space, tab,
// newline, or end of input; one separator is consumed. The second return is
// false when the prompt is not a qput command.
func ExtractBody(prompt, prefix string) (string, bool) {
	stripped := strings.TrimLeftFunc(prompt, unicode.IsSpace)
	if !strings.HasPrefix(stripped, prefix) {
		return "", false
	}

	body := stripped[len(prefix):]
	if body != "" {
		switch body[0] {
		case ' ', '\t':
			body = body[1:]
		case '\r', '\n':
			body = strings.TrimLeft(body, "\r\n")
		default:
			// "=qputx" and friends are not qput commands.
			return "", false
		}
	}
	return body, true
}

// FormatDequeueReason builds the reason text handed back to the agent for a
// dequeued task.
func FormatDequeueReason(topic, content string) string {
	return fmt.Sprintf(
		"Dequeued a queued task from topic '%s'. "+
			"Treat the following as the user's next prompt and "+
			"complete it.\n\n"+
			"--- BEGIN QUEUED MESSAGE ---\n"+
			"%s\n"+
			"--- END QUEUED MESSAGE ---\n",
		topic, content,
	)
}

// blockWithMessage blocks the prompt with a message. In exit2 mode the
// message goes to stderr with exit code 2; otherwise a JSON block response
// goes to stdout with exit code 0.
func blockWithMessage(stdout, stderr io.Writer, message string, exit2 bool) int {
	if exit2 {
		fmt.Fprintln(stderr, message)
		return 2
	}
	out, _ := json.Marshal(blockResponse{
		Decision:       "block",
		Reason:         message,
		SuppressOutput: true,
	})
	stdout.Write(out)
	return 0
}

// RunPrompt handles a user-prompt-submit hook invocation. It reads the JSON
// payload from stdin; prompts without the qput prefix pass through untouched
// (exit 0, no output). Returns the process exit code.
func (h *Hooks) RunPrompt(stdin io.Reader, stdout, stderr io.Writer) int {
	var payload promptPayload
	if err := json.NewDecoder(stdin).Decode(&payload); err != nil {
		return 0 // allow the prompt on a malformed payload
	}

	body, ok := ExtractBody(payload.Prompt, Prefix)
	if !ok {
		return 0
	}

	exit2 := os.Getenv("QPUT_EXIT2") == "1"

	topic, err := h.topics.DeriveTopic()
	if err != nil {
		return blockWithMessage(stdout, stderr, fmt.Sprintf("qput: %v", err), exit2)
	}

	if strings.TrimSpace(body) == "" {
		return blockWithMessage(stdout, stderr,
			"qput: nothing to enqueue. "+
				"Use '=qput <message>' or '=qput\\n<multi-line message>'.",
			exit2)
	}

	if _, err := h.store.Append(topic, body); err != nil {
		return blockWithMessage(stdout, stderr,
			fmt.Sprintf("qput: failed to enqueue to '%s': %v", topic, err), exit2)
	}

	return blockWithMessage(stdout, stderr, fmt.Sprintf("Queued to '%s'.", topic), exit2)
}

// RunStop handles a stop hook invocation. When a queued task exists for the
// derived topic it is popped and returned as a block response; every other
// path allows the stop. Always returns 0.
func (h *Hooks) RunStop(stdout io.Writer) int {
	topic, err := h.topics.DeriveTopic()
	if err != nil {
		return 0 // not in git context - allow stop
	}

	msg, err := h.store.PopFirst(topic)
	if err != nil || msg == nil {
		// Corrupt queue or nothing queued - allow stop.
		return 0
	}

	out, _ := json.Marshal(blockResponse{
		Decision: "block",
		Reason:   FormatDequeueReason(topic, msg.Content),
	})
	stdout.Write(out)
	return 0
}
