// Package queue implements per-topic, file-backed FIFO message queues with
// safe concurrent access across processes.
//
// Each topic is stored as one JSON file holding messages in FIFO order, with
// a dedicated lock file coordinating readers and writers via OS advisory
// locking. Mutating operations rewrite the data file atomically, so readers
// never observe a partially written queue.
package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// envelope is the on-disk record wrapping a topic's message list.
type envelope struct {
	Version  int       `json:"version"`
	Topic    string    `json:"topic"`
	Messages []Message `json:"messages"`
}

// Store manages the queue files under one base directory. It holds no open
// resources and no in-process state: correctness under concurrency rests
// entirely on the per-topic file locks, so any number of Store instances
// (in any number of processes) may share a base directory.
type Store struct {
	baseDir string
	clock   Clock
	idgen   IDGenerator
}

// NewStore creates a Store over the given base directory. The directory is
// created lazily on first use.
func NewStore(baseDir string, clock Clock, idgen IDGenerator) *Store {
	return &Store{
		baseDir: baseDir,
		clock:   clock,
		idgen:   idgen,
	}
}

// BaseDir returns the directory holding the queue files.
func (s *Store) BaseDir() string { return s.baseDir }

// PathsFor returns the data and lock file paths for a topic.
func (s *Store) PathsFor(topic string) (TopicPaths, error) {
	safe, err := EncodeTopic(topic)
	if err != nil {
		return TopicPaths{}, err
	}
	return TopicPaths{
		Data: filepath.Join(s.baseDir, safe+".json"),
		Lock: filepath.Join(s.baseDir, safe+".lock"),
	}, nil
}

func (s *Store) timestamp() string {
	return s.clock.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}

func (s *Store) corrupt(topic string, paths TopicPaths, cause error) error {
	return &CorruptError{Topic: topic, Path: paths.Data, Err: cause}
}

// loadLocked reads and parses the topic's data file. The caller must hold at
// least a shared lock. A missing or whitespace-only file is an empty queue.
// Both the versioned envelope and the legacy bare message list are accepted;
// entries lacking a uuid or content key are silently dropped.
func (s *Store) loadLocked(topic string, paths TopicPaths) ([]Message, error) {
	raw, err := os.ReadFile(paths.Data)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading queue file for topic %q: %w", topic, err)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var items []json.RawMessage
	switch trimmed[0] {
	case '{':
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, s.corrupt(topic, paths, err)
		}
		msgs, ok := env["messages"]
		if !ok {
			return nil, s.corrupt(topic, paths, errors.New("no messages field"))
		}
		// null unmarshals cleanly into a nil slice, so check the token:
		// a present-but-non-list messages value is corruption, not empty.
		list := bytes.TrimSpace(msgs)
		if len(list) == 0 || list[0] != '[' {
			return nil, s.corrupt(topic, paths, errors.New("messages is not a list"))
		}
		if err := json.Unmarshal(list, &items); err != nil {
			return nil, s.corrupt(topic, paths, errors.New("messages is not a list"))
		}
	case '[':
		// Legacy layout: a bare message list with no envelope.
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, s.corrupt(topic, paths, err)
		}
	default:
		var v any
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil, s.corrupt(topic, paths, err)
		}
		return nil, s.corrupt(topic, paths, errors.New("unexpected top-level value"))
	}

	out := make([]Message, 0, len(items))
	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			continue
		}
		if _, ok := fields["uuid"]; !ok {
			continue
		}
		if _, ok := fields["content"]; !ok {
			continue
		}
		out = append(out, messageFromFields(fields))
	}
	return out, nil
}

// saveLocked atomically replaces the topic's data file with an envelope
// holding the given messages. The caller must hold the exclusive lock.
// The payload is written to a temp file in the same directory, synced to
// durable storage, then renamed onto the data file in one step.
func (s *Store) saveLocked(topic string, paths TopicPaths, msgs []Message) error {
	if err := s.ensureBaseDir(); err != nil {
		return err
	}
	if msgs == nil {
		msgs = []Message{}
	}
	data, err := json.MarshalIndent(envelope{Version: 1, Topic: topic, Messages: msgs}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding queue for topic %q: %w", topic, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.baseDir, filepath.Base(paths.Data)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	// Tighten permissions before the file becomes visible; best-effort.
	_ = tmp.Chmod(0o600)
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, paths.Data); err != nil {
		return fmt.Errorf("replacing queue file for topic %q: %w", topic, err)
	}
	success = true
	return nil
}

// validTopic trims the topic and rejects empty results before any I/O.
func validTopic(topic string) (string, error) {
	t := strings.TrimSpace(topic)
	if t == "" {
		return "", ErrEmptyTopic
	}
	return t, nil
}

// Append creates a message with a fresh UUID and the current UTC time,
// appends it to the end of the topic queue, and returns the new UUID.
func (s *Store) Append(topic, content string) (string, error) {
	topic, err := validTopic(topic)
	if err != nil {
		return "", err
	}
	msg := Message{
		UUID:    s.idgen.New(),
		Created: s.timestamp(),
		Content: content,
	}
	err = s.withLock(topic, true, func(paths TopicPaths) error {
		msgs, err := s.loadLocked(topic, paths)
		if err != nil {
			return err
		}
		return s.saveLocked(topic, paths, append(msgs, msg))
	})
	if err != nil {
		return "", err
	}
	return msg.UUID, nil
}

// PopFirst removes and returns the oldest message in the topic queue.
// Returns nil when the queue is empty.
func (s *Store) PopFirst(topic string) (*Message, error) {
	topic, err := validTopic(topic)
	if err != nil {
		return nil, err
	}
	var popped *Message
	err = s.withLock(topic, true, func(paths TopicPaths) error {
		msgs, err := s.loadLocked(topic, paths)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}
		first := msgs[0]
		if err := s.saveLocked(topic, paths, msgs[1:]); err != nil {
			return err
		}
		popped = &first
		return nil
	})
	if err != nil {
		return nil, err
	}
	return popped, nil
}

// PeekFirst returns the oldest message without removing it, or nil when the
// queue is empty.
func (s *Store) PeekFirst(topic string) (*Message, error) {
	topic, err := validTopic(topic)
	if err != nil {
		return nil, err
	}
	var first *Message
	err = s.withLock(topic, false, func(paths TopicPaths) error {
		msgs, err := s.loadLocked(topic, paths)
		if err != nil {
			return err
		}
		if len(msgs) > 0 {
			m := msgs[0]
			first = &m
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return first, nil
}

// GetByUUID returns the message with the given UUID, or nil if no message
// matches.
func (s *Store) GetByUUID(topic, uid string) (*Message, error) {
	topic, err := validTopic(topic)
	if err != nil {
		return nil, err
	}
	var found *Message
	err = s.withLock(topic, false, func(paths TopicPaths) error {
		msgs, err := s.loadLocked(topic, paths)
		if err != nil {
			return err
		}
		for i := range msgs {
			if msgs[i].UUID == uid {
				m := msgs[i]
				found = &m
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListMessages returns all messages in the topic queue in FIFO order.
func (s *Store) ListMessages(topic string) ([]Message, error) {
	topic, err := validTopic(topic)
	if err != nil {
		return nil, err
	}
	var out []Message
	err = s.withLock(topic, false, func(paths TopicPaths) error {
		msgs, err := s.loadLocked(topic, paths)
		if err != nil {
			return err
		}
		out = msgs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByUUID removes the message with the given UUID. Returns false, with
// no file rewrite, when no message matches.
func (s *Store) DeleteByUUID(topic, uid string) (bool, error) {
	topic, err := validTopic(topic)
	if err != nil {
		return false, err
	}
	deleted := false
	err = s.withLock(topic, true, func(paths TopicPaths) error {
		msgs, err := s.loadLocked(topic, paths)
		if err != nil {
			return err
		}
		kept := msgs[:0:0]
		for _, m := range msgs {
			if m.UUID != uid {
				kept = append(kept, m)
			}
		}
		if len(kept) == len(msgs) {
			return nil
		}
		if err := s.saveLocked(topic, paths, kept); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// ReplaceByUUID sets the matching message's content and refreshes its
// updated timestamp, preserving uuid and created. Returns false, with no
// file rewrite, when no message matches.
func (s *Store) ReplaceByUUID(topic, uid, content string) (bool, error) {
	topic, err := validTopic(topic)
	if err != nil {
		return false, err
	}
	replaced := false
	err = s.withLock(topic, true, func(paths TopicPaths) error {
		msgs, err := s.loadLocked(topic, paths)
		if err != nil {
			return err
		}
		for i := range msgs {
			if msgs[i].UUID == uid {
				msgs[i].Content = content
				msgs[i].Updated = s.timestamp()
				if err := s.saveLocked(topic, paths, msgs); err != nil {
					return err
				}
				replaced = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return replaced, nil
}
