package queue

import (
	"encoding/json"
	"testing"
)

func TestMessage_JSONRoundTrip(t *testing.T) {
	in := `{"uuid":"u1","created":"2023-05-01T10:00:00Z","content":"hello","updated":"2023-05-02T10:00:00Z"}`

	var m Message
	if err := json.Unmarshal([]byte(in), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m.UUID != "u1" || m.Created != "2023-05-01T10:00:00Z" || m.Content != "hello" || m.Updated != "2023-05-02T10:00:00Z" {
		t.Fatalf("decoded message = %+v", m)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if got["uuid"] != "u1" || got["content"] != "hello" || got["updated"] != "2023-05-02T10:00:00Z" {
		t.Errorf("re-encoded message = %v", got)
	}
}

func TestMessage_OmitsUpdatedWhenUnset(t *testing.T) {
	out, err := json.Marshal(Message{UUID: "u1", Created: "2023-05-01T10:00:00Z", Content: ""})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if _, ok := got["updated"]; ok {
		t.Errorf("updated present in %v, want omitted", got)
	}
	if c, ok := got["content"]; !ok || c != "" {
		t.Errorf("content = %v, want empty string present", c)
	}
}

func TestMessage_PreservesUnknownFields(t *testing.T) {
	in := `{"uuid":"u1","content":"x","retries":2,"tags":["a"]}`

	var m Message
	if err := json.Unmarshal([]byte(in), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if got["retries"] != float64(2) {
		t.Errorf("retries = %v, want 2", got["retries"])
	}
	tags, ok := got["tags"].([]any)
	if !ok || len(tags) != 1 || tags[0] != "a" {
		t.Errorf("tags = %v, want [a]", got["tags"])
	}
}

func TestMessage_AbsentKnownKeysStayAbsent(t *testing.T) {
	// A retained entry that never had a created or updated key must not
	// gain one on re-encode.
	in := `{"uuid":"u1","content":"x"}`

	var m Message
	if err := json.Unmarshal([]byte(in), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if _, ok := got["created"]; ok {
		t.Errorf("created invented in %v, want absent", got)
	}
	if _, ok := got["updated"]; ok {
		t.Errorf("updated invented in %v, want absent", got)
	}
}

func TestMessage_EmptyStringFieldsRoundTrip(t *testing.T) {
	// An explicitly empty created survives as an empty string rather than
	// being dropped or replaced.
	in := `{"uuid":"u1","created":"","content":"x"}`

	var m Message
	if err := json.Unmarshal([]byte(in), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if c, ok := got["created"]; !ok || c != "" {
		t.Errorf("created = %v (present=%v), want empty string present", c, ok)
	}
}

func TestMessage_NonStringKnownFieldKeptRaw(t *testing.T) {
	// A uuid that is not a JSON string fails the lenient decode but must
	// still round-trip unchanged.
	in := `{"uuid":17,"content":"x"}`

	var m Message
	if err := json.Unmarshal([]byte(in), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m.UUID != "" {
		t.Errorf("UUID = %q, want empty for non-string uuid", m.UUID)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if got["uuid"] != float64(17) {
		t.Errorf("uuid = %v, want 17 preserved", got["uuid"])
	}
}
