package story

import (
	"fmt"

	"github.com/opencode-ai/cradle/internal/output"
	"github.com/opencode-ai/cradle/internal/vars"
)

// EnchantCommand selects how Enchant rewrites matched output.
type EnchantCommand int

const (
	EnchantAppend EnchantCommand = iota
	EnchantPrepend
	EnchantReplace
	EnchantRemove
)

func (c EnchantCommand) String() string {
	switch c {
	case EnchantAppend:
		return "append"
	case EnchantPrepend:
		return "prepend"
	case EnchantReplace:
		return "replace"
	case EnchantRemove:
		return "remove"
	default:
		return fmt.Sprintf("EnchantCommand(%d)", int(c))
	}
}

// ParseEnchantCommand resolves a command name.
func ParseEnchantCommand(name string) (EnchantCommand, error) {
	for _, c := range []EnchantCommand{EnchantAppend, EnchantPrepend, EnchantReplace, EnchantRemove} {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown enchant command %q", name)
}

// Query selects output items. Text matches text runs containing the value;
// StyleKey matches items whose effective style sets the key.
type Query struct {
	Text     string
	StyleKey string
}

// Query returns the output items matching q in output order.
func (s *Session) Query(q Query) []output.Item {
	var matched []output.Item
	for _, item := range s.out.Items() {
		if q.matches(item) {
			matched = append(matched, item)
		}
	}
	return matched
}

func (q Query) matches(item output.Item) bool {
	if q.Text != "" {
		text, ok := item.(*output.Text)
		if !ok {
			return false
		}
		has, err := vars.Compare(vars.Contains, vars.String(text.Text), vars.String(q.Text))
		if err != nil || !has {
			return false
		}
	}
	if q.StyleKey != "" {
		has, err := vars.Compare(vars.Contains, vars.Object(output.EffectiveStyle(item)), vars.String(q.StyleKey))
		if err != nil || !has {
			return false
		}
	}
	return q.Text != "" || q.StyleKey != ""
}

// Enchant rewrites the output around each target. produce is called once
// per target and its items are spliced through an insert cursor, inheriting
// the target's style group. It returns the inserted items.
func (s *Session) Enchant(targets []output.Item, cmd EnchantCommand, produce func() output.Sequence) []output.Item {
	var inserted []output.Item
	for _, target := range targets {
		if target.Index() < 0 {
			continue
		}
		switch cmd {
		case EnchantRemove:
			s.remove(target)
		case EnchantAppend:
			inserted = append(inserted, s.splice(target.Index()+1, target.Group(), produce)...)
		case EnchantPrepend:
			inserted = append(inserted, s.splice(target.Index(), target.Group(), produce)...)
		case EnchantReplace:
			inserted = append(inserted, s.splice(target.Index(), target.Group(), produce)...)
			s.remove(target)
		}
	}
	return inserted
}

func (s *Session) splice(at int, group *output.StyleGroup, produce func() output.Sequence) []output.Item {
	if produce == nil {
		return nil
	}
	var inserted []output.Item
	s.out.PushInsertCursor(at)
	defer s.out.PopInsertCursor()

	depth := s.out.ScopeDepth()
	th := s.collapse(produce())
	for {
		item, ok := th.Next()
		if !ok {
			break
		}
		if _, isAbort := item.(*output.Abort); isAbort {
			continue
		}
		if item.Group() == nil && s.out.ScopeDepth() == depth {
			if setter, ok := item.(groupSetter); ok {
				setter.SetGroup(group)
			}
		}
		s.out.Add(item)
		if _, isEmbed := item.(*output.EmbedPassage); isEmbed {
			s.updateCuesValid = false
		}
		inserted = append(inserted, item)
		s.emit(Event{Type: EventOutputAdded, Passage: s.currentName(), Item: item})
	}
	return inserted
}

func (s *Session) remove(item output.Item) {
	s.out.Remove(item)
	if _, isEmbed := item.(*output.EmbedPassage); isEmbed {
		s.updateCuesValid = false
	}
}
