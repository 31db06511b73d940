package blocks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Attrs is a block attribute object that keeps key order and raw values,
// so untouched attributes serialize back byte for byte.
type Attrs struct {
	keys   []string
	values map[string]json.RawMessage
}

// ParseAttrs decodes a JSON object.
func ParseAttrs(raw string) (*Attrs, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("attributes must be a JSON object")
	}

	a := &Attrs{values: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected attribute key %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		if _, dup := a.values[key]; !dup {
			a.keys = append(a.keys, key)
		}
		a.values[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return a, nil
}

// Len returns the number of attributes.
func (a *Attrs) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Keys returns attribute names in document order.
func (a *Attrs) Keys() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.keys...)
}

// Raw returns the undecoded JSON value for key.
func (a *Attrs) Raw(key string) (json.RawMessage, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[key]
	return v, ok
}

// String returns key as a string. Numbers are formatted, other types report false.
func (a *Attrs) String(key string) (string, bool) {
	raw, ok := a.Raw(key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// Int returns key as an integer, accepting numeric strings.
func (a *Attrs) Int(key string) (int64, bool) {
	s, ok := a.String(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	}
	return n, true
}

// Set replaces or appends key.
func (a *Attrs) Set(key string, value any) error {
	raw, err := marshalValue(value)
	if err != nil {
		return err
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = raw
	return nil
}

// Clone returns an independent copy.
func (a *Attrs) Clone() *Attrs {
	if a == nil {
		return nil
	}
	c := &Attrs{keys: append([]string(nil), a.keys...), values: make(map[string]json.RawMessage, len(a.values))}
	for k, v := range a.values {
		c.values[k] = append(json.RawMessage(nil), v...)
	}
	return c
}

// MarshalJSON encodes attributes in key order with comment-safe escaping.
func (a *Attrs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalValue(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(a.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalValue encodes v so it cannot terminate the enclosing HTML comment.
func marshalValue(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(data)
	s = strings.ReplaceAll(s, "--", `\u002d\u002d`)
	return json.RawMessage(s), nil
}
