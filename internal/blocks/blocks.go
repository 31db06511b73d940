// Package blocks parses and rewrites serialized block markup of the form
//
//	<!-- wp:namespace/name {"attr":1} -->inner html<!-- /wp:namespace/name -->
//	<!-- wp:name {"attr":1} /-->
//
// Markup between top-level delimiters becomes a freeform block with an empty Name.
package blocks

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Block is one node of a parsed component tree.
type Block struct {
	// Name is the fully qualified block name ("core/paragraph"), "" for freeform HTML
	Name string

	// Attrs is nil when the delimiter carried no attribute object
	Attrs *Attrs

	InnerBlocks []*Block

	// InnerContent interleaves HTML chunks with inner block slots; a nil entry
	// marks where the next element of InnerBlocks is serialized.
	InnerContent []*string

	// SelfClosing blocks have no inner content and no closing delimiter
	SelfClosing bool

	rawOpen  string
	rawClose string
	dirty    bool
	unclosed bool
}

// NewBlock builds a block that serializes in canonical form.
func NewBlock(name string, attrs map[string]any) (*Block, error) {
	b := &Block{Name: qualify(name), SelfClosing: true, dirty: true}
	if len(attrs) > 0 {
		data, err := json.Marshal(attrs)
		if err != nil {
			return nil, err
		}
		a, err := ParseAttrs(string(data))
		if err != nil {
			return nil, err
		}
		b.Attrs = a
	}
	return b, nil
}

// SetAttr sets an attribute and marks the delimiter for re-serialization.
func (b *Block) SetAttr(key string, value any) error {
	if b.Attrs == nil {
		b.Attrs = &Attrs{values: make(map[string]json.RawMessage)}
	}
	if err := b.Attrs.Set(key, value); err != nil {
		return err
	}
	b.dirty = true
	return nil
}

// IsFreeform reports whether b is raw HTML outside any delimiter.
func (b *Block) IsFreeform() bool {
	return b.Name == ""
}

// Clone deep-copies b.
func (b *Block) Clone() *Block {
	c := *b
	c.Attrs = b.Attrs.Clone()
	c.InnerBlocks = Clone(b.InnerBlocks)
	if b.InnerContent != nil {
		c.InnerContent = make([]*string, len(b.InnerContent))
		for i, chunk := range b.InnerContent {
			if chunk != nil {
				s := *chunk
				c.InnerContent[i] = &s
			}
		}
	}
	return &c
}

// Clone deep-copies a block list.
func Clone(blocks []*Block) []*Block {
	if blocks == nil {
		return nil
	}
	out := make([]*Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return out
}

// Walk visits every block depth-first, parents before children.
func Walk(blocks []*Block, fn func(*Block)) {
	for _, b := range blocks {
		fn(b)
		Walk(b.InnerBlocks, fn)
	}
}

// HasBlocks reports whether content contains at least one block delimiter.
func HasBlocks(content string) bool {
	return strings.Contains(content, "<!-- wp:")
}

var closeAttrsRegex = regexp.MustCompile(`\}\s+(/)?-->`)

type tokenKind int

const (
	tokenOpen tokenKind = iota
	tokenClose
	tokenVoid
)

type token struct {
	kind  tokenKind
	name  string
	attrs string
	start int
	end   int
}

// Parse splits content into a block tree. It never fails: malformed
// delimiters are kept as HTML.
func Parse(content string) []*Block {
	var (
		output []*Block
		stack  []*Block
		offset int
	)

	appendHTML := func(html string) {
		if html == "" {
			return
		}
		if len(stack) == 0 {
			output = append(output, freeform(html))
			return
		}
		top := stack[len(stack)-1]
		top.InnerContent = append(top.InnerContent, &html)
	}
	attach := func(b *Block) {
		if len(stack) == 0 {
			output = append(output, b)
			return
		}
		top := stack[len(stack)-1]
		top.InnerBlocks = append(top.InnerBlocks, b)
		top.InnerContent = append(top.InnerContent, nil)
	}

	for {
		tok, ok := nextToken(content, offset)
		if !ok {
			break
		}
		raw := content[tok.start:tok.end]

		if tok.kind == tokenClose && len(stack) == 0 {
			// Errant closer; keep it verbatim
			appendHTML(content[offset:tok.end])
			offset = tok.end
			continue
		}

		appendHTML(content[offset:tok.start])
		offset = tok.end

		switch tok.kind {
		case tokenVoid:
			b := newParsed(tok, raw)
			b.SelfClosing = true
			attach(b)
		case tokenOpen:
			stack = append(stack, newParsed(tok, raw))
		case tokenClose:
			b := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			b.rawClose = raw
			attach(b)
		}
	}

	appendHTML(content[offset:])
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b.unclosed = true
		attach(b)
	}
	return output
}

func freeform(html string) *Block {
	return &Block{InnerContent: []*string{&html}}
}

func newParsed(tok token, raw string) *Block {
	b := &Block{Name: qualify(tok.name), rawOpen: raw}
	if tok.attrs != "" {
		if a, err := ParseAttrs(tok.attrs); err == nil {
			b.Attrs = a
		}
	}
	return b
}

// qualify adds the implicit core namespace.
func qualify(name string) string {
	if name == "" || strings.Contains(name, "/") {
		return name
	}
	return "core/" + name
}

// nextToken finds the next block delimiter at or after from.
func nextToken(s string, from int) (token, bool) {
	for from < len(s) {
		idx := strings.Index(s[from:], "<!--")
		if idx < 0 {
			return token{}, false
		}
		start := from + idx
		if tok, ok := readDelimiter(s, start); ok {
			return tok, true
		}
		from = start + 4
	}
	return token{}, false
}

func readDelimiter(s string, start int) (token, bool) {
	tok := token{start: start, kind: tokenOpen}
	i := start + 4
	i = skipSpace(s, i)
	if i == start+4 {
		return tok, false
	}
	if i < len(s) && s[i] == '/' {
		tok.kind = tokenClose
		i++
	}
	if !strings.HasPrefix(s[i:], "wp:") {
		return tok, false
	}
	i += 3

	nameStart := i
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	tok.name = s[nameStart:i]
	if !validName(tok.name) {
		return tok, false
	}

	j := skipSpace(s, i)
	if j == i {
		return tok, false
	}
	i = j

	if tok.kind == tokenClose {
		if !strings.HasPrefix(s[i:], "-->") {
			return tok, false
		}
		tok.end = i + 3
		return tok, true
	}

	if i < len(s) && s[i] == '{' {
		loc := closeAttrsRegex.FindStringSubmatchIndex(s[i:])
		if loc == nil {
			return tok, false
		}
		tok.attrs = s[i : i+loc[0]+1]
		if loc[2] >= 0 {
			tok.kind = tokenVoid
		}
		tok.end = i + loc[1]
		return tok, true
	}

	if strings.HasPrefix(s[i:], "/-->") {
		tok.kind = tokenVoid
		tok.end = i + 4
		return tok, true
	}
	if strings.HasPrefix(s[i:], "-->") {
		tok.end = i + 3
		return tok, true
	}
	return tok, false
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '/'
}

func validName(name string) bool {
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		return false
	}
	parts := strings.Split(name, "/")
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if p == "" || p[0] < 'a' || p[0] > 'z' {
			return false
		}
	}
	return true
}

// Serialize renders a block list back to markup.
func Serialize(blocks []*Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		b.write(&sb)
	}
	return sb.String()
}

// String renders a single block.
func (b *Block) String() string {
	var sb strings.Builder
	b.write(&sb)
	return sb.String()
}

func (b *Block) write(sb *strings.Builder) {
	if b.IsFreeform() {
		b.writeInner(sb)
		return
	}

	if b.rawOpen != "" && !b.dirty {
		sb.WriteString(b.rawOpen)
	} else {
		sb.WriteString("<!-- wp:")
		sb.WriteString(shortName(b.Name))
		sb.WriteByte(' ')
		if b.Attrs.Len() > 0 {
			data, err := b.Attrs.MarshalJSON()
			if err == nil {
				sb.Write(data)
				sb.WriteByte(' ')
			}
		}
		if b.SelfClosing {
			sb.WriteString("/-->")
		} else {
			sb.WriteString("-->")
		}
	}
	if b.SelfClosing {
		return
	}

	b.writeInner(sb)

	switch {
	case b.unclosed:
	case b.rawClose != "":
		sb.WriteString(b.rawClose)
	default:
		sb.WriteString("<!-- /wp:")
		sb.WriteString(shortName(b.Name))
		sb.WriteString(" -->")
	}
}

func (b *Block) writeInner(sb *strings.Builder) {
	next := 0
	for _, chunk := range b.InnerContent {
		if chunk != nil {
			sb.WriteString(*chunk)
			continue
		}
		if next < len(b.InnerBlocks) {
			b.InnerBlocks[next].write(sb)
			next++
		}
	}
}

func shortName(name string) string {
	return strings.TrimPrefix(name, "core/")
}
