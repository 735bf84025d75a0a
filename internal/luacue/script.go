// Package luacue exposes Lua scripts as cue listener targets.
//
// A script registers cues in two ways. Global functions named after the
// <Passage>_<Event> convention are picked up automatically, and the cue{}
// builtin declares handlers with explicit qualifiers:
//
//	cue{event = "Enter", tag = "dark", order = -1, fn = function(ev) ... end}
//
// Scripts reach the session through the story table: story.get, story.set,
// story.pause, story.wait, story.finish and story.log.
package luacue

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/rs/zerolog"

	"github.com/opencode-ai/cradle/internal/cues"
	"github.com/opencode-ai/cradle/internal/logging"
	"github.com/opencode-ai/cradle/internal/output"
	"github.com/opencode-ai/cradle/internal/vars"
)

// ErrNoHost is returned by story functions when the script has no host.
var ErrNoHost = errors.New("script has no host")

// cueTableKey names the registry table holding cue{} handler functions.
const cueTableKey = "cradle.cues"

const waitTypeName = "cradle.wait"

// Host is the playback surface scripts can reach.
type Host interface {
	Vars() *vars.Store
	Pause() error
}

type declaration struct {
	decl cues.Decl
	ref  int
	wait bool
}

// Script is a loaded Lua listener. It is not safe for concurrent use; the
// session calls it from its own goroutine.
type Script struct {
	name      string
	state     *lua.State
	host      Host
	logger    zerolog.Logger
	builtins  map[string]struct{}
	decls     []declaration
	functions []string
}

// LoadFile runs the script at path. The target name is the file's base name
// without extension.
func LoadFile(path string, host Host) (*Script, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s := newScript(name, host)
	if err := lua.LoadFile(s.state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua %s: %w", path, err)
	}
	if err := s.run(); err != nil {
		return nil, fmt.Errorf("run lua %s: %w", path, err)
	}
	return s, nil
}

// LoadString runs source as a script registered under name.
func LoadString(name, source string, host Host) (*Script, error) {
	s := newScript(name, host)
	if err := lua.LoadString(s.state, source); err != nil {
		return nil, fmt.Errorf("load lua %s: %w", name, err)
	}
	if err := s.run(); err != nil {
		return nil, fmt.Errorf("run lua %s: %w", name, err)
	}
	return s, nil
}

func newScript(name string, host Host) *Script {
	s := &Script{
		name:   name,
		state:  lua.NewState(),
		host:   host,
		logger: logging.Component("luacue").With().Str("script", name).Logger(),
	}
	lua.OpenLibraries(s.state)
	s.registerAPI()
	s.builtins = s.globalFunctions()
	return s
}

func (s *Script) run() error {
	if err := s.state.ProtectedCall(0, 0, 0); err != nil {
		s.state.Pop(1)
		return err
	}
	for name := range s.globalFunctions() {
		if _, builtin := s.builtins[name]; !builtin && cues.IsIdentifier(name) {
			s.functions = append(s.functions, name)
		}
	}
	sort.Strings(s.functions)
	return nil
}

// Name returns the target name the script registers under.
func (s *Script) Name() string { return s.name }

// Functions returns the script's global functions in name order.
func (s *Script) Functions() []string {
	out := make([]string, len(s.functions))
	copy(out, s.functions)
	return out
}

// Register adds the script's cues to reg as a target named after the
// script. Callers must clear the cue index after registering into a
// session that has already resolved cues.
func (s *Script) Register(reg *cues.Registry) *cues.Target {
	target := reg.Target(s.name)
	for _, fn := range s.functions {
		target.Method(fn, s.globalHandler(fn))
	}
	for i, d := range s.decls {
		name := fmt.Sprintf("cue#%d", i+1)
		if d.wait {
			target.Method(name, s.waitHandler(d.ref), d.decl)
		} else {
			target.Method(name, s.refHandler(d.ref), d.decl)
		}
	}
	return target
}

// Call invokes a global function with string arguments.
func (s *Script) Call(name string, args ...string) error {
	s.state.Global(name)
	if !s.state.IsFunction(-1) {
		s.state.Pop(1)
		return fmt.Errorf("lua function %q not defined", name)
	}
	for _, arg := range args {
		s.state.PushString(arg)
	}
	if err := s.state.ProtectedCall(len(args), 0, 0); err != nil {
		s.state.Pop(1)
		return err
	}
	return nil
}

// Global reads a global variable as a Var.
func (s *Script) Global(name string) (vars.Var, error) {
	s.state.Global(name)
	defer s.state.Pop(1)
	return toVar(s.state, -1)
}

func (s *Script) globalHandler(name string) func(cues.Event) {
	return func(ev cues.Event) {
		s.state.Global(name)
		s.invoke(name, ev, 0)
	}
}

func (s *Script) refHandler(ref int) func(cues.Event) {
	return func(ev cues.Event) {
		s.pushRef(ref)
		s.invoke(fmt.Sprintf("cue#%d", ref), ev, 0)
	}
}

func (s *Script) waitHandler(ref int) func(cues.Event) cues.Suspension {
	return func(ev cues.Event) cues.Suspension {
		s.pushRef(ref)
		if !s.invoke(fmt.Sprintf("cue#%d", ref), ev, 1) {
			return nil
		}
		defer s.state.Pop(1)
		if w, ok := s.state.ToUserData(-1).(*cues.Wait); ok {
			return w
		}
		return nil
	}
}

// invoke calls the function on top of the stack with the event table. On
// success the results are left on the stack; on failure the error value is
// popped.
func (s *Script) invoke(name string, ev cues.Event, results int) bool {
	pushEvent(s.state, ev)
	if err := s.state.ProtectedCall(1, results, 0); err != nil {
		s.state.Pop(1)
		s.logger.Warn().Err(err).Str("function", name).Str("event", ev.Kind.String()).Msg("lua cue failed")
		return false
	}
	return true
}

func (s *Script) pushRef(ref int) {
	s.state.Field(lua.RegistryIndex, cueTableKey)
	s.state.RawGetInt(-1, ref)
	s.state.Remove(-2)
}

func (s *Script) globalFunctions() map[string]struct{} {
	names := make(map[string]struct{})
	l := s.state
	l.PushGlobalTable()
	index := l.AbsIndex(-1)
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) == lua.TypeString && l.IsFunction(-1) {
			key, _ := l.ToString(-2)
			names[key] = struct{}{}
		}
		l.Pop(1)
	}
	l.Pop(1)
	return names
}

func pushEvent(l *lua.State, ev cues.Event) {
	l.NewTable()
	l.PushString(ev.Kind.String())
	l.SetField(-2, "kind")
	l.PushString(ev.Passage)
	l.SetField(-2, "passage")
	if ev.Link != nil {
		l.PushString(ev.Link.Name)
		l.SetField(-2, "link")
	}
	if ev.Item != nil {
		l.PushString(string(ev.Item.Kind()))
		l.SetField(-2, "item")
		if text, ok := ev.Item.(*output.Text); ok {
			l.PushString(text.Text)
			l.SetField(-2, "text")
		}
	}
}
