package queue

import "encoding/json"

// Message is one queued unit of text content. UUID and Created are assigned
// at append time and never change; Updated is set each time the content is
// replaced.
//
// Fields this version does not understand are preserved verbatim across a
// load/save cycle so newer writers can round-trip through older readers.
// Known keys a retained entry never had are not invented on rewrite.
type Message struct {
	UUID    string
	Created string
	Content string
	Updated string

	extra   map[string]json.RawMessage
	present fieldSet
}

// fieldSet records which known keys held string values when the message was
// decoded, so an empty string round-trips while an absent key stays absent.
type fieldSet struct {
	uuid, created, content, updated bool
}

// messageFromFields builds a Message from a decoded JSON object. Known
// string-valued fields are lifted into the struct; everything else stays in
// extra. A known field holding a non-string value is treated as unknown and
// preserved as-is rather than rejected.
func messageFromFields(fields map[string]json.RawMessage) Message {
	var m Message
	m.present.uuid = takeString(fields, "uuid", &m.UUID)
	m.present.created = takeString(fields, "created", &m.Created)
	m.present.content = takeString(fields, "content", &m.Content)
	m.present.updated = takeString(fields, "updated", &m.Updated)
	if len(fields) > 0 {
		m.extra = fields
	}
	return m
}

func takeString(fields map[string]json.RawMessage, key string, dst *string) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	*dst = s
	delete(fields, key)
	return true
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*m = messageFromFields(fields)
	return nil
}

func (m Message) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(m.extra)+4)
	for k, v := range m.extra {
		fields[k] = v
	}

	// A known key is written when the struct field is set, or when the key
	// was a (possibly empty) string in the decoded entry. An absent key is
	// never invented and a preserved non-string value is left untouched;
	// content alone is required and is emitted even for an empty new
	// message.
	emit := func(key, val string, seen, required bool) error {
		if val == "" && !seen {
			if _, preserved := fields[key]; preserved || !required {
				return nil
			}
		}
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		fields[key] = b
		return nil
	}

	if err := emit("uuid", m.UUID, m.present.uuid, false); err != nil {
		return nil, err
	}
	if err := emit("created", m.Created, m.present.created, false); err != nil {
		return nil, err
	}
	if err := emit("content", m.Content, m.present.content, true); err != nil {
		return nil, err
	}
	if err := emit("updated", m.Updated, m.present.updated, false); err != nil {
		return nil, err
	}

	return json.Marshal(fields)
}
