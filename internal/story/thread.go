package story

import (
	"github.com/opencode-ai/cradle/internal/output"
)

type embedSetter interface {
	SetEmbed(output.Embed)
}

type groupSetter interface {
	SetGroup(*output.StyleGroup)
}

// frame is one level of the collapse stack.
type frame struct {
	seq   output.Sequence
	embed output.Embed
	scope *output.StyleGroup
}

// thread lazily flattens a passage sequence depth-first. Embed markers are
// yielded before their content, and every inner item is tagged with the
// nearest enclosing embed. Group markers open their style scope when pulled
// and close it when their body is exhausted.
type thread struct {
	s     *Session
	stack []frame
}

func (s *Session) collapse(seq output.Sequence) *thread {
	t := &thread{s: s}
	if seq != nil {
		t.stack = append(t.stack, frame{seq: seq})
	}
	return t
}

func (t *thread) Next() (output.Item, bool) {
	for len(t.stack) > 0 {
		top := t.stack[len(t.stack)-1]
		item, ok := top.seq.Next()
		if !ok {
			t.pop()
			continue
		}
		if item == nil {
			continue
		}

		if embed := t.enclosingEmbed(); embed != nil && item.Embed() == nil {
			if setter, ok := item.(embedSetter); ok {
				setter.SetEmbed(embed)
			}
		}

		switch v := item.(type) {
		case *output.EmbedPassage:
			p, ok := t.s.story.Passage(v.Name)
			if !ok {
				t.s.logger.Warn().Str("passage", v.Name).Msg("embedded passage not found")
				break
			}
			t.stack = append(t.stack, frame{seq: p.Factory(t.s), embed: v})
		case *output.EmbedFragment:
			if v.Action == nil {
				break
			}
			if seq := v.Action(); seq != nil {
				t.stack = append(t.stack, frame{seq: seq, embed: v})
			}
		case *output.GroupMarker:
			g := t.s.out.OpenStyleScope(v.Style)
			if setter, ok := item.(groupSetter); ok {
				setter.SetGroup(g)
			}
			body := v.Body
			if body == nil {
				body = output.Empty()
			}
			t.stack = append(t.stack, frame{seq: body, scope: g})
		}
		return item, true
	}
	return nil, false
}

func (t *thread) enclosingEmbed() output.Embed {
	for i := len(t.stack) - 1; i >= 0; i-- {
		if t.stack[i].embed != nil {
			return t.stack[i].embed
		}
	}
	return nil
}

func (t *thread) pop() {
	top := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	if top.scope != nil {
		t.s.out.CloseStyleScope(top.scope)
	}
}

// close unwinds the remaining frames, closing their style scopes.
func (t *thread) close() {
	for len(t.stack) > 0 {
		t.pop()
	}
}
