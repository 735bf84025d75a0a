package cues

import (
	"regexp"
	"strconv"
	"sync"
)

// Rank is the specificity class of a cue. Lower ranks fire first when
// explicit orders tie.
type Rank int

const (
	RankPassage Rank = iota
	RankTag
	RankLink
	RankGeneral
)

func (r Rank) String() string {
	switch r {
	case RankPassage:
		return "passage"
	case RankTag:
		return "tag"
	case RankLink:
		return "link"
	default:
		return "general"
	}
}

// Decl is an explicit cue declaration on a method.
type Decl struct {
	Kind    EventKind
	Passage string
	Tag     string
	Link    string
	Order   int
}

// Qualifier narrows a declaration.
type Qualifier func(*Decl)

// ForPassage restricts a cue to one passage.
func ForPassage(name string) Qualifier { return func(d *Decl) { d.Passage = name } }

// ForTag restricts a cue to passages carrying tag.
func ForTag(tag string) Qualifier { return func(d *Decl) { d.Tag = tag } }

// ForLink restricts a cue to one link name.
func ForLink(name string) Qualifier { return func(d *Decl) { d.Link = name } }

// WithOrder sets the explicit order; lower runs first.
func WithOrder(order int) Qualifier { return func(d *Decl) { d.Order = order } }

// On builds a declaration for kind.
func On(kind EventKind, qualifiers ...Qualifier) Decl {
	d := Decl{Kind: kind}
	for _, q := range qualifiers {
		q(&d)
	}
	return d
}

func (d Decl) rank() Rank {
	switch {
	case d.Passage != "":
		return RankPassage
	case d.Tag != "":
		return RankTag
	case d.Link != "":
		return RankLink
	default:
		return RankGeneral
	}
}

func (d Decl) matches(kind EventKind, passage string, tags []string, link string) bool {
	if d.Kind != kind {
		return false
	}
	if d.Passage != "" && d.Passage != passage {
		return false
	}
	if d.Link != "" && d.Link != link {
		return false
	}
	if d.Tag != "" && !hasTag(tags, d.Tag) {
		return false
	}
	return true
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

type method struct {
	name    string
	handler any
	decls   []Decl
}

// Target is a named listener holding cue methods.
type Target struct {
	name    string
	mu      sync.RWMutex
	methods []*method
	anon    int
}

// Name returns the target name.
func (t *Target) Name() string { return t.name }

// Method registers a named handler. Without declarations the method is a
// cue only through the <Passage>_<Suffix> naming convention.
func (t *Target) Method(name string, handler any, decls ...Decl) *Target {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.methods = append(t.methods, &method{name: name, handler: handler, decls: decls})
	return t
}

// On registers an anonymous handler with a single declaration.
func (t *Target) On(kind EventKind, handler any, qualifiers ...Qualifier) *Target {
	t.mu.Lock()
	t.anon++
	name := kind.String() + "#" + strconv.Itoa(t.anon)
	t.mu.Unlock()
	return t.Method(name, handler, On(kind, qualifiers...))
}

func (t *Target) snapshot() []*method {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*method, len(t.methods))
	copy(out, t.methods)
	return out
}

// Registry is the set of listener targets known to a session.
type Registry struct {
	mu      sync.RWMutex
	targets []*Target
	byName  map[string]*Target
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Target)}
}

// Target returns the named target, creating it on first use.
func (r *Registry) Target(name string) *Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.byName[name]; ok {
		return t
	}
	t := &Target{name: name}
	r.targets = append(r.targets, t)
	r.byName[name] = t
	return t
}

// Remove drops a target. Cached lookups keep it until Index.Clear.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		return
	}
	delete(r.byName, name)
	for i, t := range r.targets {
		if t.name == name {
			r.targets = append(r.targets[:i], r.targets[i+1:]...)
			break
		}
	}
}

// Targets returns targets in registration order.
func (r *Registry) Targets() []*Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Target, len(r.targets))
	copy(out, r.targets)
	return out
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether name can take part in conventional cue names.
func IsIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// ConventionalName returns the method name that handles kind for passage,
// or "" when the passage (or link) name is not an identifier.
func ConventionalName(kind EventKind, passage, link string) string {
	if !IsIdentifier(passage) {
		return ""
	}
	if kind.isLinkKind() {
		if !IsIdentifier(link) {
			return ""
		}
		return passage + "_" + link + "_" + kind.suffix()
	}
	return passage + "_" + kind.suffix()
}
