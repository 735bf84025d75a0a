package output

import (
	"fmt"
	"strings"
)

// ConsistencyFault reports a violated structural invariant. It is raised with
// panic and is not meant to be recovered from.
type ConsistencyFault struct {
	Reason string
}

func (f *ConsistencyFault) Error() string {
	return "output consistency fault: " + f.Reason
}

// Output is the ordered, index-stable list of items produced by the current
// passage. It is owned by a single playing session.
type Output struct {
	items   []Item
	cursors []int
	scopes  []*StyleGroup

	// OnRemoved is called after an item has been removed.
	OnRemoved func(Item)
}

// New returns an empty output list.
func New() *Output {
	return &Output{}
}

// Len returns the number of items.
func (o *Output) Len() int { return len(o.items) }

// Items returns a copy of the item list.
func (o *Output) Items() []Item {
	out := make([]Item, len(o.items))
	copy(out, o.items)
	return out
}

// At returns the item at index i.
func (o *Output) At(i int) Item { return o.items[i] }

// Add tags item with the current style scope and places it at the top
// insert cursor, or at the end when no cursor is pushed. It returns the
// item's index.
func (o *Output) Add(item Item) int {
	if b := item.base(); b.group == nil {
		b.group = o.CurrentScope()
	}
	if len(o.cursors) > 0 {
		return o.InsertAtCursor(item)
	}
	return o.Append(item)
}

// Append places item at the end.
func (o *Output) Append(item Item) int {
	b := item.base()
	b.index = len(o.items)
	b.indexed = true
	o.items = append(o.items, item)
	return b.index
}

// InsertAtCursor inserts item at the top cursor, renumbers the following
// items and advances the cursor. With no cursor it appends.
func (o *Output) InsertAtCursor(item Item) int {
	if len(o.cursors) == 0 {
		return o.Append(item)
	}
	top := len(o.cursors) - 1
	pos := o.cursors[top]
	if pos < 0 {
		pos = 0
	}
	if pos > len(o.items) {
		pos = len(o.items)
	}
	o.items = append(o.items, nil)
	copy(o.items[pos+1:], o.items[pos:])
	o.items[pos] = item
	o.RenumberFrom(pos)
	for i := 0; i < top; i++ {
		if o.cursors[i] > pos {
			o.cursors[i]++
		}
	}
	o.cursors[top] = pos + 1
	return pos
}

// Remove removes item by identity. Cursors past the removed position shift
// back by one.
func (o *Output) Remove(item Item) bool {
	idx := -1
	for i, it := range o.items {
		if it == item {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	o.items = append(o.items[:idx], o.items[idx+1:]...)
	b := item.base()
	b.indexed = false
	o.RenumberFrom(idx)
	for i, c := range o.cursors {
		if c > idx {
			o.cursors[i] = c - 1
		}
	}
	if o.OnRemoved != nil {
		o.OnRemoved(item)
	}
	return true
}

// RenumberFrom rewrites the Index of every item from start onward.
func (o *Output) RenumberFrom(start int) {
	if start < 0 {
		start = 0
	}
	for i := start; i < len(o.items); i++ {
		b := o.items[i].base()
		b.index = i
		b.indexed = true
	}
}

// PushInsertCursor makes index the insertion point until popped.
func (o *Output) PushInsertCursor(index int) {
	o.cursors = append(o.cursors, index)
}

// PopInsertCursor removes the top cursor and returns its final position.
func (o *Output) PopInsertCursor() (int, bool) {
	if len(o.cursors) == 0 {
		return 0, false
	}
	top := o.cursors[len(o.cursors)-1]
	o.cursors = o.cursors[:len(o.cursors)-1]
	return top, true
}

// CursorDepth returns the number of pushed cursors.
func (o *Output) CursorDepth() int { return len(o.cursors) }

// OpenStyleScope pushes a new style group nested in the current one.
func (o *Output) OpenStyleScope(style *Style) *StyleGroup {
	g := &StyleGroup{Style: style, Parent: o.CurrentScope()}
	o.scopes = append(o.scopes, g)
	return g
}

// CloseStyleScope pops g, which must be the innermost open scope.
func (o *Output) CloseStyleScope(g *StyleGroup) {
	if len(o.scopes) == 0 {
		panic(&ConsistencyFault{Reason: "style scope closed with no open scope"})
	}
	if top := o.scopes[len(o.scopes)-1]; top != g {
		panic(&ConsistencyFault{Reason: fmt.Sprintf("style scope %q closed out of order (innermost is %q)", scopeName(g), scopeName(top))})
	}
	o.scopes = o.scopes[:len(o.scopes)-1]
}

func scopeName(g *StyleGroup) string {
	if g == nil {
		return "<nil>"
	}
	return g.Style.String()
}

// WithStyleScope runs fn inside a scope for style and closes it on every
// exit path.
func (o *Output) WithStyleScope(style *Style, fn func(*StyleGroup)) {
	g := o.OpenStyleScope(style)
	defer o.CloseStyleScope(g)
	fn(g)
}

// CurrentScope returns the innermost open style group.
func (o *Output) CurrentScope() *StyleGroup {
	if len(o.scopes) == 0 {
		return nil
	}
	return o.scopes[len(o.scopes)-1]
}

// ScopeDepth returns the number of open style scopes.
func (o *Output) ScopeDepth() int { return len(o.scopes) }

// EffectiveStyle returns the merged style of item's group chain.
func (o *Output) EffectiveStyle(item Item) *Style {
	return EffectiveStyle(item)
}

// EffectiveStyle returns the merged style of item's group chain.
func EffectiveStyle(item Item) *Style {
	if g := item.Group(); g != nil {
		return g.Effective()
	}
	return NewStyle()
}

// Reset clears items, cursors and scopes.
func (o *Output) Reset() {
	for _, it := range o.items {
		it.base().indexed = false
	}
	o.items = nil
	o.cursors = nil
	o.scopes = nil
}

// Text concatenates the text and line breaks in output order.
func (o *Output) Text() string {
	var b strings.Builder
	for _, it := range o.items {
		switch v := it.(type) {
		case *Text:
			b.WriteString(v.Text)
		case *LineBreak:
			b.WriteString("\n")
		case *Link:
			b.WriteString(v.Text)
		}
	}
	return b.String()
}

// Links returns the links in output order.
func (o *Output) Links() []*Link {
	var links []*Link
	for _, it := range o.items {
		if l, ok := it.(*Link); ok {
			links = append(links, l)
		}
	}
	return links
}

// Embeds returns the embedded passage markers in output order.
func (o *Output) Embeds() []*EmbedPassage {
	var embeds []*EmbedPassage
	for _, it := range o.items {
		if e, ok := it.(*EmbedPassage); ok {
			embeds = append(embeds, e)
		}
	}
	return embeds
}
