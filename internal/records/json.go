package records

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strconv"
)

// member binds a JSON name to the typed field it decodes into.
type member struct {
	name string
	ptr  any
}

func (e *DiaryEntry) members() []member {
	return []member{
		{"id", &e.ID},
		{"timestamp", &e.Timestamp},
		{"noiseLevel", &e.NoiseLevel},
		{"wellbeing", &e.Wellbeing},
		{"location", &e.Location},
		{"duration", &e.Duration},
		{"notes", &e.Notes},
	}
}

func (h *HearingTest) members() []member {
	return []member{
		{"id", &h.ID},
		{"timestamp", &h.Timestamp},
		{"score", &h.Score},
		{"leftEar", &h.LeftEar},
		{"rightEar", &h.RightEar},
		{"notes", &h.Notes},
	}
}

func (s *Settings) members() []member {
	return []member{
		{"notifications", &s.Notifications},
		{"theme", &s.Theme},
	}
}

type (
	diaryEntryJSON  DiaryEntry
	hearingTestJSON HearingTest
	settingsJSON    Settings
)

// MarshalJSON implements json.Marshaler.
func (e DiaryEntry) MarshalJSON() ([]byte, error) {
	return marshalRecord(diaryEntryJSON(e), e.members(), e.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *DiaryEntry) UnmarshalJSON(data []byte) error {
	var v DiaryEntry
	all, err := decodeMembers(data, v.members())
	if err != nil || all == nil {
		return err
	}
	if v.Extra, err = leftovers(all, diaryEntryJSON(v)); err != nil {
		return err
	}
	*e = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (h HearingTest) MarshalJSON() ([]byte, error) {
	return marshalRecord(hearingTestJSON(h), h.members(), h.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *HearingTest) UnmarshalJSON(data []byte) error {
	var v HearingTest
	all, err := decodeMembers(data, v.members())
	if err != nil || all == nil {
		return err
	}
	if v.Extra, err = leftovers(all, hearingTestJSON(v)); err != nil {
		return err
	}
	*h = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Settings) MarshalJSON() ([]byte, error) {
	return marshalRecord(settingsJSON(s), s.members(), s.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var v Settings
	all, err := decodeMembers(data, v.members())
	if err != nil || all == nil {
		return err
	}
	if v.Extra, err = leftovers(all, settingsJSON(v)); err != nil {
		return err
	}
	*s = v
	return nil
}

// decodeMembers splits the JSON object in data into its members and
// decodes each modelled one into its typed field. A member whose value
// does not fit the field's type leaves the field at its zero value; the
// raw value survives through leftovers. A JSON null yields nil, nil.
func decodeMembers(data []byte, members []member) (map[string]json.RawMessage, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, m := range members {
		raw, ok := all[m.name]
		if !ok {
			continue
		}
		dst := reflect.ValueOf(m.ptr).Elem()
		tmp := reflect.New(dst.Type())
		if err := json.Unmarshal(raw, tmp.Interface()); err == nil {
			dst.Set(tmp.Elem())
		}
	}
	if all == nil {
		all = map[string]json.RawMessage{}
	}
	return all, nil
}

// leftovers returns the members of all that encoding typed would not
// reproduce byte for byte: unknown names, plus modelled names whose value
// was empty, null, of another type or formatted differently. nil when
// there are none.
func leftovers(all map[string]json.RawMessage, typed any) (map[string]json.RawMessage, error) {
	data, err := marshalRaw(typed)
	if err != nil {
		return nil, err
	}
	var encoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, err
	}

	var out map[string]json.RawMessage
	for name, raw := range all {
		if enc, ok := encoded[name]; ok {
			if c, err := compact(raw); err == nil && c == string(enc) {
				continue
			}
		}
		if out == nil {
			out = map[string]json.RawMessage{}
		}
		out[name] = raw
	}
	return out, nil
}

// marshalRecord encodes typed and merges in extra. Modelled members come
// first in declaration order, then the remaining extra keys sorted.
//
// For a modelled name held in extra the raw value is written back while
// the typed field is empty or still means the same JSON value; a typed
// field that was changed since decoding wins.
func marshalRecord(typed any, members []member, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := marshalRaw(typed)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var encoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(name string, value json.RawMessage) error {
		key, err := marshalRaw(name)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(bytes.TrimSpace(value))
		return nil
	}

	modelled := make(map[string]bool, len(members))
	for _, m := range members {
		modelled[m.name] = true
		enc, hasEnc := encoded[m.name]
		raw, hasRaw := extra[m.name]

		var err error
		switch {
		case hasRaw && (!hasEnc || emptyJSON(enc) || sameJSON(raw, enc)):
			err = write(m.name, raw)
		case hasEnc:
			err = write(m.name, enc)
		}
		if err != nil {
			return nil, err
		}
	}

	rest := make([]string, 0, len(extra))
	for name := range extra {
		if !modelled[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		if err := write(name, extra[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// emptyJSON reports whether v encodes a zero value.
func emptyJSON(v json.RawMessage) bool {
	switch string(bytes.TrimSpace(v)) {
	case "[]", "{}":
		return true
	}
	return !truthy(v)
}

// sameJSON reports whether a and b decode to the same value.
func sameJSON(a, b json.RawMessage) bool {
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

// marshalRaw is json.Marshal without HTML escaping. The caller's encoder
// decides whether to escape.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// truthy reports whether raw holds a JSON value that a loosely typed
// client would treat as present: anything except null, false, 0 and "".
func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", `""`:
		return false
	}
	if f, err := strconv.ParseFloat(string(v), 64); err == nil {
		return f != 0
	}
	return true
}

// compact returns raw with insignificant whitespace removed.
func compact(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}
