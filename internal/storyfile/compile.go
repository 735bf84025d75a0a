package storyfile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/opencode-ai/cradle/internal/logging"
	"github.com/opencode-ai/cradle/internal/output"
	"github.com/opencode-ai/cradle/internal/story"
	"github.com/opencode-ai/cradle/internal/vars"
)

// assignOps maps set operators to the combine operator applied to the
// current value. "=" stores the value directly.
var assignOps = map[string]vars.Operator{
	"=":  vars.Equals,
	"+=": vars.Add,
	"-=": vars.Subtract,
	"*=": vars.Multiply,
	"/=": vars.Divide,
	"%=": vars.Modulo,
	"++": vars.Increment,
	"--": vars.Decrement,
}

func parseConditionOp(symbol string) (vars.Operator, bool, error) {
	switch strings.ToLower(symbol) {
	case "!=", "ne", "not":
		return vars.Equals, true, nil
	case "!contains", "not contains":
		return vars.Contains, true, nil
	}
	op, err := vars.ParseOperator(symbol)
	if err != nil {
		return 0, false, err
	}
	if !op.IsComparison() {
		return 0, false, fmt.Errorf("operator %q is not a comparison", symbol)
	}
	return op, false, nil
}

// Compile turns a loaded story file into a playable story. Passage bodies
// are evaluated lazily each time the passage is entered or embedded, so
// conditions and printed values see the variables as they are at that
// point of playback.
func Compile(sf *StoryFile) (*story.Story, error) {
	if sf == nil {
		return nil, fmt.Errorf("story file is required")
	}

	st := story.New(sf.Name)
	st.StartPassage = sf.Start
	st.Strict = sf.Strict

	for _, v := range sf.Variables {
		value, err := vars.From(v.Value)
		if err != nil {
			return nil, fmt.Errorf("story variable %q: %w", v.Name, err)
		}
		st.Variables = append(st.Variables, story.Variable{Name: v.Name, Value: value})
	}

	c := &compiler{
		story:  sf.Name,
		logger: logging.Component("storyfile"),
	}
	for _, def := range sf.Passages {
		body := def.Body
		name := def.Name
		p := story.Passage{
			Name: name,
			Tags: append([]string(nil), def.Tags...),
			Factory: func(s *story.Session) output.Sequence {
				return c.steps(s, name, body)
			},
		}
		if err := st.Add(p); err != nil {
			return nil, err
		}
	}

	return st, nil
}

// Load reads and compiles a story file in one step.
func Load(path string) (*story.Story, error) {
	sf, err := LoadStory(path)
	if err != nil {
		return nil, err
	}
	return Compile(sf)
}

type compiler struct {
	story  string
	logger zerolog.Logger
}

func (c *compiler) steps(s *story.Session, passage string, steps []Step) output.Sequence {
	seqs := make([]output.Sequence, 0, len(steps))
	for i := range steps {
		seqs = append(seqs, c.step(s, passage, steps[i]))
	}
	return output.Concat(seqs...)
}

func (c *compiler) step(s *story.Session, passage string, step Step) output.Sequence {
	switch step.kind {
	case StepText:
		return output.Defer(func() output.Sequence {
			text, err := renderText(passage, step.Text, s.Vars())
			if err != nil {
				c.warn(passage, err).Msg("text template failed")
				text = step.Text
			}
			return output.Items(output.NewText(text))
		})

	case StepBreak:
		return output.Defer(func() output.Sequence {
			return output.Items(output.NewLineBreak())
		})

	case StepSet:
		set := *step.Set
		return output.Do(func() {
			if err := c.assign(s.Vars(), set); err != nil {
				c.warn(passage, err).Str("var", set.Var).Msg("set failed")
			}
		})

	case StepIf:
		return output.Defer(func() output.Sequence {
			ok, err := c.evaluate(s.Vars(), *step.If)
			if err != nil {
				c.warn(passage, err).Msg("condition failed")
			}
			if ok {
				return c.steps(s, passage, step.Then)
			}
			return c.steps(s, passage, step.Else)
		})

	case StepStyle:
		return output.Defer(func() output.Sequence {
			return output.Items(output.NewGroupMarker(c.styleOf(passage, step.Style), c.steps(s, passage, step.Body)))
		})

	case StepPrint:
		return output.Defer(func() output.Sequence {
			value, err := lookupPath(s.Vars(), step.Print)
			if err != nil {
				c.warn(passage, err).Str("var", step.Print).Msg("print failed")
			}
			return output.Items(output.NewText(value.String()))
		})

	case StepLink:
		link := *step.Link
		return output.Defer(func() output.Sequence {
			var action func() output.Sequence
			if len(link.Action) > 0 {
				action = func() output.Sequence {
					return c.steps(s, passage, link.Action)
				}
			}
			text, err := renderText(passage, link.Text, s.Vars())
			if err != nil {
				text = link.Text
			}
			l := output.NewLink(text, link.Passage, action)
			if link.Name != "" {
				l.Name = link.Name
			} else {
				l.Name = link.Text
			}
			return output.Items(l)
		})

	case StepEmbed:
		return output.Defer(func() output.Sequence {
			return output.Items(output.NewEmbedPassage(step.Embed))
		})

	case StepFragment:
		body := step.Fragment
		return output.Defer(func() output.Sequence {
			return output.Items(output.NewEmbedFragment(func() output.Sequence {
				return c.steps(s, passage, body)
			}))
		})

	case StepAbort:
		target := *step.Abort
		return output.Defer(func() output.Sequence {
			return output.Items(output.NewAbort(target))
		})
	}
	return output.Empty()
}

func (c *compiler) assign(store *vars.Store, set SetStep) error {
	value, err := vars.From(set.Value)
	if err != nil {
		return err
	}
	op := assignOps[set.Op]
	if set.Op == "=" {
		return store.Set(set.Var, value)
	}
	_, err = store.Apply(set.Var, op, value)
	return err
}

func (c *compiler) evaluate(store *vars.Store, cond Condition) (bool, error) {
	if len(cond.All) > 0 || len(cond.Any) > 0 {
		for _, sub := range cond.All {
			ok, err := c.evaluate(store, sub)
			if err != nil || !ok {
				return false, err
			}
		}
		if len(cond.Any) == 0 {
			return true, nil
		}
		for _, sub := range cond.Any {
			ok, err := c.evaluate(store, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	current, err := lookupPath(store, cond.Var)
	if err != nil {
		return false, err
	}
	if cond.Op == "" {
		return current.Truthy(), nil
	}

	op, negate, err := parseConditionOp(cond.Op)
	if err != nil {
		return false, err
	}
	value, err := vars.From(cond.Value)
	if err != nil {
		return false, err
	}
	ok, err := store.Ops().Compare(op, current, value)
	if err != nil {
		return false, err
	}
	return ok != negate, nil
}

func (c *compiler) warn(passage string, err error) *zerolog.Event {
	return c.logger.Warn().Err(err).Str("story", c.story).Str("passage", passage)
}

// lookupPath resolves "name" or "name.member.member" against the store.
// Missing variables read as Empty.
func lookupPath(store *vars.Store, path string) (vars.Var, error) {
	parts := strings.Split(path, ".")
	value := store.Get(parts[0])
	for _, part := range parts[1:] {
		member, err := vars.From(memberKey(part))
		if err != nil {
			return vars.Empty, err
		}
		value, err = store.Ops().GetMember(value, member)
		if err != nil {
			return vars.Empty, fmt.Errorf("%s: %w", path, err)
		}
	}
	return value, nil
}

func memberKey(part string) any {
	if n, err := strconv.Atoi(part); err == nil {
		return n
	}
	return part
}

// styleOf builds a style from a step's map. Values the type system cannot
// hold are logged and skipped.
func (c *compiler) styleOf(passage string, values map[string]any) *output.Style {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	style := output.NewStyle()
	for _, key := range keys {
		v, err := vars.From(values[key])
		if err != nil {
			c.warn(passage, err).Str("style", key).Msg("style value skipped")
			continue
		}
		style.Set(key, v)
	}
	return style
}
