// Package output holds the narrative output of a playing passage: the item
// types a passage produces, the lazy sequences that produce them, and the
// index-stable Output list with its insert cursors and style scopes.
package output

import "fmt"

// Kind names an item type.
type Kind string

const (
	KindText          Kind = "text"
	KindLineBreak     Kind = "linebreak"
	KindLink          Kind = "link"
	KindEmbedPassage  Kind = "embed-passage"
	KindEmbedFragment Kind = "embed-fragment"
	KindGroup         Kind = "group"
	KindAbort         Kind = "abort"
)

// Item is a unit of narrative output.
type Item interface {
	Kind() Kind
	// Index is the item's position in the Output list, or -1 before it is
	// added.
	Index() int
	// Embed is the embed marker this item was produced under, if any.
	Embed() Embed
	// Group is the innermost style group the item belongs to, if any.
	Group() *StyleGroup
	base() *Base
}

// Embed is implemented by the markers that introduce nested output.
type Embed interface {
	Item
	embedMarker()
}

// Base carries the bookkeeping shared by every item.
type Base struct {
	index   int
	indexed bool
	embed   Embed
	group   *StyleGroup
}

func (b *Base) Index() int {
	if !b.indexed {
		return -1
	}
	return b.index
}

func (b *Base) Embed() Embed { return b.embed }
func (b *Base) Group() *StyleGroup { return b.group }
func (b *Base) base() *Base { return b }
func (b *Base) SetEmbed(e Embed) { b.embed = e }
func (b *Base) SetGroup(g *StyleGroup) { b.group = g }

// Text is a run of narrative text.
type Text struct {
	Base
	Text string
}

func NewText(s string) *Text { return &Text{Text: s} }

func (t *Text) Kind() Kind { return KindText }
func (t *Text) String() string { return t.Text }

// LineBreak ends a line.
type LineBreak struct {
	Base
}

func NewLineBreak() *LineBreak { return &LineBreak{} }

func (l *LineBreak) Kind() Kind { return KindLineBreak }
func (l *LineBreak) String() string { return "\n" }

// Link is a choice the player can take with Session.DoLink. Action, when
// set, produces the link's own output; PassageName, when set, is entered
// after the action completes.
type Link struct {
	Base
	Name        string
	Text        string
	PassageName string
	Action      func() Sequence
}

// NewLink returns a link whose name defaults to its text.
func NewLink(text, passage string, action func() Sequence) *Link {
	return &Link{Name: text, Text: text, PassageName: passage, Action: action}
}

func (l *Link) Kind() Kind { return KindLink }
func (l *Link) String() string { return l.Text }

// EmbedPassage marks the output of another passage embedded in place.
type EmbedPassage struct {
	Base
	Name string
}

func NewEmbedPassage(name string) *EmbedPassage { return &EmbedPassage{Name: name} }

func (e *EmbedPassage) Kind() Kind { return KindEmbedPassage }
func (e *EmbedPassage) String() string { return fmt.Sprintf("<embed %s>", e.Name) }
func (e *EmbedPassage) embedMarker() {}

// EmbedFragment marks inline output produced by Action.
type EmbedFragment struct {
	Base
	Action func() Sequence
}

func NewEmbedFragment(action func() Sequence) *EmbedFragment {
	return &EmbedFragment{Action: action}
}

func (e *EmbedFragment) Kind() Kind { return KindEmbedFragment }
func (e *EmbedFragment) String() string { return "<fragment>" }
func (e *EmbedFragment) embedMarker() {}

// GroupMarker opens a style scope. Items produced by Body belong to the
// scope; the marker itself is the scope's first item.
type GroupMarker struct {
	Base
	Style *Style
	Body  Sequence
}

func NewGroupMarker(style *Style, body Sequence) *GroupMarker {
	return &GroupMarker{Style: style, Body: body}
}

func (g *GroupMarker) Kind() Kind { return KindGroup }
func (g *GroupMarker) String() string { return "<group " + g.Style.String() + ">" }

// Abort stops the current thread. GoTo, when set, is entered next.
type Abort struct {
	Base
	GoTo string
}

func NewAbort(goTo string) *Abort { return &Abort{GoTo: goTo} }

func (a *Abort) Kind() Kind { return KindAbort }
func (a *Abort) String() string { return "<abort " + a.GoTo + ">" }

// Describe renders an item for logs and journals.
func Describe(item Item) string {
	if s, ok := item.(fmt.Stringer); ok {
		return s.String()
	}
	return string(item.Kind())
}
