package export

import (
	"fmt"
	"strconv"
	"strings"
)

// DecodeMetaValue returns the structured form of a PHP-serialized string, or
// the string itself when it is not serialized or fails to decode.
func DecodeMetaValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if !IsSerialized(trimmed) {
		return raw
	}
	v, err := Unserialize(trimmed)
	if err != nil {
		return raw
	}
	return v
}

// IsSerialized reports whether s looks like a PHP-serialized value.
func IsSerialized(s string) bool {
	if s == "N;" {
		return true
	}
	if len(s) < 4 || s[1] != ':' {
		return false
	}
	last := s[len(s)-1]
	if last != ';' && last != '}' {
		return false
	}
	switch s[0] {
	case 's', 'a', 'O', 'i', 'd', 'b':
		return true
	}
	return false
}

// Unserialize decodes a PHP-serialized value. Arrays with keys 0..n-1 become
// []any; other arrays and objects become map[string]any.
func Unserialize(s string) (any, error) {
	p := &phpParser{s: s}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("trailing data at offset %d", p.pos)
	}
	return v, nil
}

type phpParser struct {
	s   string
	pos int
}

func (p *phpParser) errorf(format string, args ...any) error {
	return fmt.Errorf("unserialize at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *phpParser) expect(c byte) error {
	if p.pos >= len(p.s) || p.s[p.pos] != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

// until returns the text up to (not including) c and consumes c.
func (p *phpParser) until(c byte) (string, error) {
	i := strings.IndexByte(p.s[p.pos:], c)
	if i < 0 {
		return "", p.errorf("missing %q", c)
	}
	out := p.s[p.pos : p.pos+i]
	p.pos += i + 1
	return out, nil
}

func (p *phpParser) value() (any, error) {
	if p.pos+1 >= len(p.s) {
		return nil, p.errorf("unexpected end")
	}
	typ := p.s[p.pos]
	p.pos++
	if typ == 'N' {
		return nil, p.expect(';')
	}
	if err := p.expect(':'); err != nil {
		return nil, err
	}

	switch typ {
	case 'b':
		v, err := p.until(';')
		if err != nil {
			return nil, err
		}
		return v == "1", nil
	case 'i':
		v, err := p.until(';')
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, p.errorf("bad integer %q", v)
		}
		return n, nil
	case 'd':
		v, err := p.until(';')
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, p.errorf("bad float %q", v)
		}
		return f, nil
	case 's':
		str, err := p.str()
		if err != nil {
			return nil, err
		}
		return str, p.expect(';')
	case 'a':
		return p.array()
	case 'O':
		class, err := p.str()
		if err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		obj, err := p.array()
		if err != nil {
			return nil, err
		}
		m := toMap(obj)
		if _, taken := m["__class"]; !taken {
			m["__class"] = class
		}
		return m, nil
	}
	return nil, p.errorf("unknown type %q", typ)
}

// str reads len:"bytes" (length counted in bytes).
func (p *phpParser) str() (string, error) {
	lenStr, err := p.until(':')
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(lenStr)
	if err != nil || n < 0 {
		return "", p.errorf("bad string length %q", lenStr)
	}
	if err := p.expect('"'); err != nil {
		return "", err
	}
	if p.pos+n > len(p.s) {
		return "", p.errorf("string overruns input")
	}
	out := p.s[p.pos : p.pos+n]
	p.pos += n
	return out, p.expect('"')
}

type phpEntry struct {
	key   string
	index int64
	isInt bool
	value any
}

func (p *phpParser) array() (any, error) {
	countStr, err := p.until(':')
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(countStr)
	if err != nil || count < 0 {
		return nil, p.errorf("bad element count %q", countStr)
	}
	if err := p.expect('{'); err != nil {
		return nil, err
	}

	// every entry takes at least two bytes, so the remaining input bounds
	// how many can really follow
	entries := make([]phpEntry, 0, min(count, (len(p.s)-p.pos)/2))
	for i := 0; i < count; i++ {
		k, err := p.value()
		if err != nil {
			return nil, err
		}
		var e phpEntry
		switch key := k.(type) {
		case int64:
			e.index, e.isInt, e.key = key, true, strconv.FormatInt(key, 10)
		case string:
			e.key = key
		default:
			return nil, p.errorf("unsupported array key %T", k)
		}
		if e.value, err = p.value(); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := p.expect('}'); err != nil {
		return nil, err
	}

	if isList(entries) {
		list := make([]any, len(entries))
		for i, e := range entries {
			list[i] = e.value
		}
		return list, nil
	}
	m := make(map[string]any, len(entries))
	for _, e := range entries {
		m[e.key] = e.value
	}
	return m, nil
}

func isList(entries []phpEntry) bool {
	for i, e := range entries {
		if !e.isInt || e.index != int64(i) {
			return false
		}
	}
	return true
}

func toMap(v any) map[string]any {
	switch val := v.(type) {
	case map[string]any:
		return val
	case []any:
		m := make(map[string]any, len(val))
		for i, item := range val {
			m[strconv.Itoa(i)] = item
		}
		return m
	}
	return map[string]any{}
}
