// Package storyfile loads YAML story definitions and compiles them into
// playable stories.
package storyfile

// StoryFile is a story definition loaded from YAML.
type StoryFile struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Start       string        `yaml:"start"`
	Strict      bool          `yaml:"strict,omitempty"`
	Variables   []VariableDef `yaml:"variables,omitempty"`
	Passages    []PassageDef  `yaml:"passages"`
	Source      string        `yaml:"-"`
}

// VariableDef declares an initial variable value.
type VariableDef struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// PassageDef is one passage and its body.
type PassageDef struct {
	Name string   `yaml:"name"`
	Tags []string `yaml:"tags,omitempty"`
	Body []Step   `yaml:"body,omitempty"`
}

// StepKind identifies which field of a Step is set.
type StepKind string

const (
	StepText     StepKind = "text"
	StepBreak    StepKind = "br"
	StepSet      StepKind = "set"
	StepIf       StepKind = "if"
	StepStyle    StepKind = "style"
	StepPrint    StepKind = "print"
	StepLink     StepKind = "link"
	StepEmbed    StepKind = "embed"
	StepFragment StepKind = "fragment"
	StepAbort    StepKind = "abort"
)

// Step is a single body instruction. Exactly one instruction field is set;
// Then, Else and Body qualify If and Style.
type Step struct {
	Text     string         `yaml:"text,omitempty"`
	Break    bool           `yaml:"br,omitempty"`
	Set      *SetStep       `yaml:"set,omitempty"`
	If       *Condition     `yaml:"if,omitempty"`
	Then     []Step         `yaml:"then,omitempty"`
	Else     []Step         `yaml:"else,omitempty"`
	Style    map[string]any `yaml:"style,omitempty"`
	Body     []Step         `yaml:"body,omitempty"`
	Print    string         `yaml:"print,omitempty"`
	Link     *LinkStep      `yaml:"link,omitempty"`
	Embed    string         `yaml:"embed,omitempty"`
	Fragment []Step         `yaml:"fragment,omitempty"`
	Abort    *string        `yaml:"abort,omitempty"`

	kind StepKind
}

// Kind returns the instruction kind resolved during loading.
func (s Step) Kind() StepKind { return s.kind }

// SetStep assigns or updates a variable.
type SetStep struct {
	Var   string `yaml:"var"`
	Op    string `yaml:"op,omitempty"`
	Value any    `yaml:"value,omitempty"`
}

// Condition compares a variable against a value. All and Any combine
// nested conditions instead.
type Condition struct {
	Var   string      `yaml:"var,omitempty"`
	Op    string      `yaml:"op,omitempty"`
	Value any         `yaml:"value,omitempty"`
	All   []Condition `yaml:"all,omitempty"`
	Any   []Condition `yaml:"any,omitempty"`
}

// LinkStep places a link. Passage is the follow-up passage; Action runs
// when the link is activated.
type LinkStep struct {
	Text    string `yaml:"text"`
	Name    string `yaml:"name,omitempty"`
	Passage string `yaml:"passage,omitempty"`
	Action  []Step `yaml:"action,omitempty"`
}
