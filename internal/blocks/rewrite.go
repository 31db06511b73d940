package blocks

import (
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand/v2"
	"strings"
)

// InstanceIDAttr is the attribute carrying a block's styling instance id.
const InstanceIDAttr = "block_id"

// InstanceIDPrefix is the CSS class/selector prefix that embeds an instance id.
const InstanceIDPrefix = "uagb-block-"

// ReferenceBlock is the block name of a synced reusable component reference.
const ReferenceBlock = "core/block"

const maxIDAttempts = 5

// IDGenerator returns a candidate instance id.
type IDGenerator func() string

// RandomID returns 4 random bytes as hex, falling back to 8 pseudo-random
// lowercase alphanumerics when the system source fails.
func RandomID() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fallbackID()
	}
	return hex.EncodeToString(b[:])
}

func fallbackID() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	out := make([]byte, 8)
	for i := range out {
		out[i] = alphabet[mrand.IntN(len(alphabet))]
	}
	return string(out)
}

// HasInstanceID reports whether b is a styled block that owns an instance id.
func HasInstanceID(b *Block) bool {
	if !strings.HasPrefix(b.Name, "uagb/") {
		return false
	}
	_, ok := b.Attrs.Raw(InstanceIDAttr)
	return ok
}

// RegenerateIDs gives every instance-id block a fresh id, unique within this
// call, and returns the old → new mapping. gen may be nil.
func RegenerateIDs(tree []*Block, gen IDGenerator) map[string]string {
	if gen == nil {
		gen = RandomID
	}
	used := make(map[string]bool)
	mapping := make(map[string]string)

	Walk(tree, func(b *Block) {
		if !HasInstanceID(b) {
			return
		}
		old, _ := b.Attrs.String(InstanceIDAttr)
		id := uniqueID(gen, used)
		if err := b.SetAttr(InstanceIDAttr, id); err != nil {
			return
		}
		if old != "" {
			mapping[old] = id
		}
	})
	return mapping
}

// uniqueID draws up to maxIDAttempts candidates, then falls back to the
// alternate alphabet. A collision after that is tolerated.
func uniqueID(gen IDGenerator, used map[string]bool) string {
	var candidate string
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		candidate = gen()
		if !used[candidate] {
			break
		}
	}
	if used[candidate] {
		candidate = fallbackID()
	}
	used[candidate] = true
	return candidate
}

// RewriteIDReferences replaces "uagb-block-<old>" with "uagb-block-<new>" in
// serialized markup, for every pair in mapping.
func RewriteIDReferences(markup string, mapping map[string]string) string {
	if len(mapping) == 0 {
		return markup
	}
	pairs := make([]string, 0, len(mapping)*2)
	for old, id := range mapping {
		pairs = append(pairs, InstanceIDPrefix+old, InstanceIDPrefix+id)
	}
	return strings.NewReplacer(pairs...).Replace(markup)
}

// RegenerateContentIDs parses markup, regenerates instance ids and rewrites the
// textual references. Markup without blocks is returned unchanged.
func RegenerateContentIDs(markup string, gen IDGenerator) string {
	if markup == "" || !HasBlocks(markup) {
		return markup
	}
	tree := Parse(markup)
	mapping := RegenerateIDs(tree, gen)
	return RewriteIDReferences(Serialize(tree), mapping)
}

// RefOf returns the referenced record id of a reusable-component reference block.
func RefOf(b *Block) (int64, bool) {
	if b.Name != ReferenceBlock {
		return 0, false
	}
	return b.Attrs.Int("ref")
}

// FindRefs lists every referenced record id in tree order.
func FindRefs(tree []*Block) []int64 {
	var refs []int64
	Walk(tree, func(b *Block) {
		if ref, ok := RefOf(b); ok {
			refs = append(refs, ref)
		}
	})
	return refs
}

// RepairReferences rewrites reference ids found in idMap to their mapped value.
// Returns the source ids that had no mapping and whether anything changed.
func RepairReferences(tree []*Block, idMap map[int64]int64) (missing []int64, changed bool) {
	Walk(tree, func(b *Block) {
		ref, ok := RefOf(b)
		if !ok {
			return
		}
		local, found := idMap[ref]
		if !found {
			missing = append(missing, ref)
			return
		}
		if local == ref {
			return
		}
		if err := b.SetAttr("ref", local); err == nil {
			changed = true
		}
	})
	return missing, changed
}

// Detach replaces the first reference to ref with the replacement blocks,
// searching depth-first. It returns nil when no reference to ref exists.
func Detach(tree []*Block, ref int64, replacement []*Block) []*Block {
	out, ok := detach(tree, ref, replacement)
	if !ok {
		return nil
	}
	return out
}

func detach(tree []*Block, ref int64, replacement []*Block) ([]*Block, bool) {
	for i, b := range tree {
		if id, ok := RefOf(b); ok && id == ref {
			out := make([]*Block, 0, len(tree)-1+len(replacement))
			out = append(out, tree[:i]...)
			out = append(out, replacement...)
			out = append(out, tree[i+1:]...)
			return out, true
		}
		if len(b.InnerBlocks) == 0 {
			continue
		}
		inner, ok := detach(b.InnerBlocks, ref, replacement)
		if !ok {
			continue
		}
		b.InnerBlocks = inner
		b.InnerContent = respliceContent(b.InnerContent, len(inner))
		out := append([]*Block(nil), tree...)
		return out, true
	}
	return nil, false
}

// respliceContent adjusts the number of inner block slots to n, keeping HTML
// chunks in place. Extra slots are added where the last slot was.
func respliceContent(content []*string, n int) []*string {
	slots := 0
	last := -1
	for i, c := range content {
		if c == nil {
			slots++
			last = i
		}
	}
	if slots == n {
		return content
	}

	out := make([]*string, 0, len(content)+n-slots)
	if slots < n {
		extra := n - slots
		for i, c := range content {
			out = append(out, c)
			if i == last {
				for ; extra > 0; extra-- {
					out = append(out, nil)
				}
			}
		}
		for ; extra > 0; extra-- {
			out = append(out, nil)
		}
		return out
	}

	drop := slots - n
	for i := len(content) - 1; i >= 0; i-- {
		if content[i] == nil && drop > 0 {
			drop--
			continue
		}
		out = append(out, content[i])
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}
