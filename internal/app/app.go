// Package app is the application layer between the CLI and the queue store.
// It wires the store, editor, and logger from config and exposes high-level
// operations matching the CLI commands.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leynos/claude-q/internal/config"
	"github.com/leynos/claude-q/internal/editor"
	"github.com/leynos/claude-q/internal/queue"
)

// ErrNotFound reports that no message matched. The CLI maps it to a silent
// exit status 1.
var ErrNotFound = errors.New("message not found")

// ErrEditConflict reports that a message changed between reading it for
// editing and writing the edit back, so the edit was discarded.
var ErrEditConflict = errors.New("message changed before replace; edits discarded")

// App exposes the queue operations behind the q CLI.
// The caller must call Close when done.
type App struct {
	store   *queue.Store
	editor  *editor.Editor
	logger  *slog.Logger
	logFile *os.File
}

// New creates a fully wired App. flagDir, when non-empty, overrides every
// other storage-directory source. operation identifies the CLI command being
// run (e.g. "put", "hook stop") and tags each log line.
func New(cfg *config.Config, flagDir string, operation string) (*App, error) {
	baseDir, err := ResolveBaseDir(flagDir, cfg)
	if err != nil {
		return nil, err
	}

	logDir := filepath.Join(baseDir, "log")
	if cfg != nil && cfg.LogDir != "" {
		logDir = cfg.LogDir
	}

	logger, logFile, err := newLogger(logDir, operation)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	var editorOverride string
	if cfg != nil {
		editorOverride = cfg.Editor
	}

	return &App{
		store:   queue.NewStore(baseDir, queue.RealClock{}, queue.UUIDGenerator{}),
		editor:  editor.New(editorOverride),
		logger:  logger,
		logFile: logFile,
	}, nil
}

// Store returns the underlying queue store, for wiring into the hook runner.
func (a *App) Store() *queue.Store { return a.store }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Put opens the editor and enqueues the result. When topic is empty the
// first line of the editor content becomes the topic and the rest the body.
// Returns the new message UUID.
func (a *App) Put(topic string) (string, error) {
	var body string
	if topic != "" {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			return "", queue.ErrEmptyTopic
		}
		text, err := a.editor.Edit("")
		if err != nil {
			return "", err
		}
		body = text
	} else {
		text, err := a.editor.Edit("")
		if err != nil {
			return "", err
		}
		topic, body, err = SplitTopicAndBody(text)
		if err != nil {
			return "", err
		}
	}

	return a.enqueue(topic, body)
}

// ReadTo enqueues text read from stdin. When topic is empty the first line
// of text becomes the topic and the rest the body. Returns the new message
// UUID.
func (a *App) ReadTo(topic string, text string) (string, error) {
	var body string
	if topic != "" {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			return "", queue.ErrEmptyTopic
		}
		body = text
	} else {
		var err error
		topic, body, err = SplitTopicAndBody(text)
		if err != nil {
			return "", err
		}
	}

	return a.enqueue(topic, body)
}

func (a *App) enqueue(topic, body string) (string, error) {
	uid, err := a.store.Append(topic, body)
	if err != nil {
		return "", err
	}
	a.logger.Info("message enqueued", "topic", topic, "uuid", uid)
	return uid, nil
}

// Get dequeues the first message of topic. When block is true it polls at
// the given interval until a message arrives; otherwise an empty queue
// returns ErrNotFound.
func (a *App) Get(topic string, block bool, poll time.Duration) (*queue.Message, error) {
	for {
		msg, err := a.store.PopFirst(topic)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			a.logger.Info("message dequeued", "topic", topic, "uuid", msg.UUID)
			return msg, nil
		}

		if !block {
			return nil, ErrNotFound
		}

		time.Sleep(poll)
	}
}

// Peek returns a message without removing it. An empty uid selects the first
// message. Returns ErrNotFound when no message matches.
func (a *App) Peek(topic string, uid string) (*queue.Message, error) {
	var msg *queue.Message
	var err error
	if uid != "" {
		msg, err = a.store.GetByUUID(topic, uid)
	} else {
		msg, err = a.store.PeekFirst(topic)
	}
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrNotFound
	}
	return msg, nil
}

// List returns all messages of topic in queue order.
func (a *App) List(topic string) ([]queue.Message, error) {
	return a.store.ListMessages(topic)
}

// Delete removes the message with the given UUID. Returns ErrNotFound when
// no such message exists.
func (a *App) Delete(topic string, uid string) error {
	ok, err := a.store.DeleteByUUID(topic, uid)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	a.logger.Info("message deleted", "topic", topic, "uuid", uid)
	return nil
}

// Edit opens the message content in the editor and replaces it with the
// edited text. The message is read under a shared lock, edited with no lock
// held, then replaced. Returns ErrNotFound when the message does not exist
// and ErrEditConflict when it changed while the editor was open.
func (a *App) Edit(topic string, uid string) error {
	msg, err := a.store.GetByUUID(topic, uid)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrNotFound
	}

	edited, err := a.editor.Edit(msg.Content)
	if err != nil {
		return err
	}

	ok, err := a.store.ReplaceByUUID(topic, uid, edited)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEditConflict
	}
	a.logger.Info("message edited", "topic", topic, "uuid", uid)
	return nil
}

// Replace sets the message content to body. Returns ErrNotFound when no
// message has the given UUID.
func (a *App) Replace(topic string, uid string, body string) error {
	ok, err := a.store.ReplaceByUUID(topic, uid, body)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	a.logger.Info("message replaced", "topic", topic, "uuid", uid)
	return nil
}

// Close releases the log file.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}
