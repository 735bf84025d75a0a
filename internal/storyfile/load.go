package storyfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opencode-ai/cradle/internal/vars"
)

// LoadStory reads a single story file from disk.
func LoadStory(path string) (*StoryFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("story path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story %s: %w", path, err)
	}

	sf, err := ParseStory(data)
	if err != nil {
		return nil, fmt.Errorf("parse story %s: %w", path, err)
	}
	sf.Source = path
	return sf, nil
}

// LoadStoriesFromDir loads all story files from a directory.
func LoadStoriesFromDir(dir string) ([]*StoryFile, error) {
	if strings.TrimSpace(dir) == "" {
		return []*StoryFile{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*StoryFile{}, nil
		}
		return nil, fmt.Errorf("read stories dir %s: %w", dir, err)
	}

	stories := make([]*StoryFile, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		sf, err := LoadStory(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		stories = append(stories, sf)
	}

	sort.Slice(stories, func(i, j int) bool {
		return stories[i].Name < stories[j].Name
	})

	return stories, nil
}

// ParseStory decodes and validates a YAML story definition.
func ParseStory(data []byte) (*StoryFile, error) {
	var sf StoryFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, err
	}

	sf.Name = strings.TrimSpace(sf.Name)
	if sf.Name == "" {
		return nil, fmt.Errorf("story name is required")
	}
	sf.Description = strings.TrimSpace(sf.Description)

	if len(sf.Passages) == 0 {
		return nil, fmt.Errorf("story passages are required")
	}

	seen := make(map[string]struct{})
	for i := range sf.Variables {
		name := strings.TrimSpace(sf.Variables[i].Name)
		if name == "" {
			return nil, fmt.Errorf("story variable name is required")
		}
		if _, exists := seen[name]; exists {
			return nil, fmt.Errorf("duplicate story variable %q", name)
		}
		if _, err := vars.From(sf.Variables[i].Value); err != nil {
			return nil, fmt.Errorf("story variable %q: %w", name, err)
		}
		seen[name] = struct{}{}
		sf.Variables[i].Name = name
	}

	passages := make(map[string]struct{}, len(sf.Passages))
	for i := range sf.Passages {
		p := &sf.Passages[i]
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("passage %d: name is required", i+1)
		}
		if _, exists := passages[p.Name]; exists {
			return nil, fmt.Errorf("duplicate passage %q", p.Name)
		}
		passages[p.Name] = struct{}{}

		tags := p.Tags[:0]
		for _, tag := range p.Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		p.Tags = tags

		if err := normalizeSteps(p.Body); err != nil {
			return nil, fmt.Errorf("passage %q: %w", p.Name, err)
		}
	}

	sf.Start = strings.TrimSpace(sf.Start)
	if sf.Start == "" {
		sf.Start = sf.Passages[0].Name
	}
	if _, ok := passages[sf.Start]; !ok {
		return nil, fmt.Errorf("start passage %q is not defined", sf.Start)
	}

	for _, p := range sf.Passages {
		if err := checkTargets(p.Body, passages); err != nil {
			return nil, fmt.Errorf("passage %q: %w", p.Name, err)
		}
	}

	return &sf, nil
}

func normalizeSteps(steps []Step) error {
	for i := range steps {
		if err := normalizeStep(&steps[i]); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func normalizeStep(step *Step) error {
	step.Print = strings.TrimSpace(step.Print)
	step.Embed = strings.TrimSpace(step.Embed)
	if step.Abort != nil {
		target := strings.TrimSpace(*step.Abort)
		step.Abort = &target
	}

	kinds := make([]StepKind, 0, 1)
	if step.Text != "" {
		kinds = append(kinds, StepText)
	}
	if step.Break {
		kinds = append(kinds, StepBreak)
	}
	if step.Set != nil {
		kinds = append(kinds, StepSet)
	}
	if step.If != nil {
		kinds = append(kinds, StepIf)
	}
	if step.Style != nil {
		kinds = append(kinds, StepStyle)
	}
	if step.Print != "" {
		kinds = append(kinds, StepPrint)
	}
	if step.Link != nil {
		kinds = append(kinds, StepLink)
	}
	if step.Embed != "" {
		kinds = append(kinds, StepEmbed)
	}
	if step.Fragment != nil {
		kinds = append(kinds, StepFragment)
	}
	if step.Abort != nil {
		kinds = append(kinds, StepAbort)
	}

	switch len(kinds) {
	case 0:
		return fmt.Errorf("step has no instruction")
	case 1:
		step.kind = kinds[0]
	default:
		return fmt.Errorf("step mixes %s and %s", kinds[0], kinds[1])
	}

	if step.kind != StepIf && (step.Then != nil || step.Else != nil) {
		return fmt.Errorf("then and else are only valid on if")
	}
	if step.kind != StepStyle && step.Body != nil {
		return fmt.Errorf("body is only valid on style")
	}

	switch step.kind {
	case StepSet:
		step.Set.Var = strings.TrimSpace(step.Set.Var)
		if step.Set.Var == "" {
			return fmt.Errorf("set var is required")
		}
		op := strings.TrimSpace(step.Set.Op)
		if op == "" {
			op = "="
		}
		if _, ok := assignOps[op]; !ok {
			return fmt.Errorf("unknown set op %q", step.Set.Op)
		}
		step.Set.Op = op
		if _, err := vars.From(step.Set.Value); err != nil {
			return fmt.Errorf("set %s: %w", step.Set.Var, err)
		}

	case StepIf:
		if err := normalizeCondition(step.If); err != nil {
			return err
		}
		if err := normalizeSteps(step.Then); err != nil {
			return fmt.Errorf("then: %w", err)
		}
		if err := normalizeSteps(step.Else); err != nil {
			return fmt.Errorf("else: %w", err)
		}

	case StepStyle:
		if len(step.Style) == 0 {
			return fmt.Errorf("style needs at least one key")
		}
		for key, value := range step.Style {
			if _, err := vars.From(value); err != nil {
				return fmt.Errorf("style %s: %w", key, err)
			}
		}
		if err := normalizeSteps(step.Body); err != nil {
			return fmt.Errorf("body: %w", err)
		}

	case StepLink:
		step.Link.Text = strings.TrimSpace(step.Link.Text)
		step.Link.Name = strings.TrimSpace(step.Link.Name)
		step.Link.Passage = strings.TrimSpace(step.Link.Passage)
		if step.Link.Text == "" {
			return fmt.Errorf("link text is required")
		}
		if err := normalizeSteps(step.Link.Action); err != nil {
			return fmt.Errorf("link %q action: %w", step.Link.Text, err)
		}

	case StepFragment:
		if err := normalizeSteps(step.Fragment); err != nil {
			return fmt.Errorf("fragment: %w", err)
		}
	}

	return nil
}

func normalizeCondition(c *Condition) error {
	nested := len(c.All) + len(c.Any)
	c.Var = strings.TrimSpace(c.Var)
	c.Op = strings.TrimSpace(c.Op)

	if nested > 0 {
		if c.Var != "" {
			return fmt.Errorf("condition mixes var with all/any")
		}
		for i := range c.All {
			if err := normalizeCondition(&c.All[i]); err != nil {
				return err
			}
		}
		for i := range c.Any {
			if err := normalizeCondition(&c.Any[i]); err != nil {
				return err
			}
		}
		return nil
	}

	if c.Var == "" {
		return fmt.Errorf("condition var is required")
	}
	if c.Op == "" {
		if c.Value != nil {
			c.Op = "=="
		}
		return nil
	}
	if _, _, err := parseConditionOp(c.Op); err != nil {
		return err
	}
	if _, err := vars.From(c.Value); err != nil {
		return fmt.Errorf("condition %s: %w", c.Var, err)
	}
	return nil
}

func checkTargets(steps []Step, passages map[string]struct{}) error {
	for _, step := range steps {
		var target string
		switch step.kind {
		case StepEmbed:
			target = step.Embed
		case StepLink:
			target = step.Link.Passage
		case StepAbort:
			target = *step.Abort
		}
		if target != "" {
			if _, ok := passages[target]; !ok {
				return fmt.Errorf("%s target %q is not defined", step.kind, target)
			}
		}

		for _, nested := range [][]Step{step.Then, step.Else, step.Body, step.Fragment} {
			if err := checkTargets(nested, passages); err != nil {
				return err
			}
		}
		if step.Link != nil {
			if err := checkTargets(step.Link.Action, passages); err != nil {
				return err
			}
		}
	}
	return nil
}
