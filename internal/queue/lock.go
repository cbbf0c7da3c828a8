package queue

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// withLock acquires the topic's advisory file lock, runs body, and releases
// the lock on every exit path. The lock lives in a dedicated lock file that
// is opened append-or-create and never replaced, so the data file can be
// swapped atomically without disturbing a lock another process holds.
//
// Acquisition blocks until any conflicting holder releases; there is no
// timeout at this layer.
func (s *Store) withLock(topic string, exclusive bool, body func(paths TopicPaths) error) error {
	paths, err := s.PathsFor(topic)
	if err != nil {
		return err
	}
	if err := s.ensureBaseDir(); err != nil {
		return err
	}

	fl := flock.New(paths.Lock)
	if exclusive {
		err = fl.Lock()
	} else {
		err = fl.RLock()
	}
	if err != nil {
		return fmt.Errorf("locking topic %q: %w", topic, err)
	}
	// Unlock is best-effort: closing the descriptor releases the lock
	// even if the explicit unlock fails.
	defer fl.Unlock() //nolint:errcheck

	return body(paths)
}

// ensureBaseDir creates the base directory if missing, with best-effort
// owner-only permissions.
func (s *Store) ensureBaseDir() error {
	if err := os.MkdirAll(s.baseDir, 0o700); err != nil {
		return fmt.Errorf("creating queue directory: %w", err)
	}
	// Tighten an existing directory's mode; don't fail on odd filesystems.
	_ = os.Chmod(s.baseDir, 0o700)
	return nil
}
