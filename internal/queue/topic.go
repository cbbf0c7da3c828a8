package queue

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// Keep encoded names under common filesystem limits (255 bytes),
	// leaving room for the .json/.lock suffixes.
	maxEncodedLen = 180
	truncatedLen  = 150
)

// TopicPaths holds the filesystem paths for a topic's data and lock files.
// They are derived from the topic on every access, never persisted.
type TopicPaths struct {
	Data string
	Lock string
}

// EncodeTopic returns a filesystem-safe filename component for a topic.
// The encoding is deterministic and collision-resistant: characters outside
// [A-Za-z0-9._-] are percent-encoded byte-wise, leading and trailing dots
// are stripped, and over-long results are truncated with a hash suffix.
func EncodeTopic(topic string) (string, error) {
	t := strings.TrimSpace(topic)
	if t == "" {
		return "", ErrEmptyTopic
	}

	var b strings.Builder
	for i := 0; i < len(t); i++ {
		c := t[i]
		if isSafeByte(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}

	// Strip leading/trailing dots so a topic can never encode to "." or "..".
	safe := strings.Trim(b.String(), ".")
	if safe == "" {
		safe = topicDigest(t)
	}

	if len(safe) > maxEncodedLen {
		safe = safe[:truncatedLen] + "__" + topicDigest(t)
	}
	return safe, nil
}

func isSafeByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '.' || c == '_' || c == '-':
		return true
	}
	return false
}

// topicDigest returns the first 16 hex characters of the topic's SHA-256.
func topicDigest(topic string) string {
	sum := sha256.Sum256([]byte(topic))
	return hex.EncodeToString(sum[:])[:16]
}
