package luacue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencode-ai/cradle/internal/cues"
	"github.com/opencode-ai/cradle/internal/output"
	"github.com/opencode-ai/cradle/internal/story"
	"github.com/opencode-ai/cradle/internal/vars"
)

func passage(name string, tags []string, lines ...string) story.Passage {
	return story.Passage{
		Name: name,
		Tags: tags,
		Factory: func(*story.Session) output.Sequence {
			items := make([]output.Item, 0, len(lines)+1)
			for _, line := range lines {
				items = append(items, output.NewText(line))
			}
			items = append(items, output.NewLink("next", "Hall", nil))
			return output.Items(items...)
		},
	}
}

func newSession(t *testing.T, source string) (*story.Session, *Script) {
	t.Helper()
	st := story.New("lua").
		MustAdd(passage("Start", []string{"intro"}, "Hello")).
		MustAdd(passage("Hall", []string{"dark"}, "A hall"))
	reg := cues.NewRegistry()
	s := story.NewSession(st, story.Options{Registry: reg})

	script, err := LoadString("listener", source, s)
	require.NoError(t, err)
	script.Register(reg)
	return s, script
}

func TestConventionalFunctionsBecomeCues(t *testing.T) {
	s, script := newSession(t, `
entered = 0
function Start_Enter(ev)
  entered = entered + 1
  story.set("kind", ev.kind)
end
function Start_next_Begin(ev)
  story.set("link", ev.link)
end
local function helper() end
`)

	require.Equal(t, []string{"Start_Enter", "Start_next_Begin"}, script.Functions())
	require.NoError(t, s.Begin())

	entered, err := script.Global("entered")
	require.NoError(t, err)
	require.True(t, entered.Equals(vars.Int(1)))
	require.Equal(t, "Enter", s.Vars().Get("kind").String())

	require.NoError(t, s.FollowLink("next"))
	require.Equal(t, "next", s.Vars().Get("link").String())
	require.Equal(t, "Hall", s.CurrentPassage().Name)
}

func TestDeclaredCuesUseQualifiersAndOrder(t *testing.T) {
	s, _ := newSession(t, `
cue{event = "Enter", tag = "dark", fn = function(ev) story.set("order", story.get("order") .. "b") end}
cue{event = "Enter", tag = "dark", order = -1, fn = function(ev) story.set("order", "a") end}
cue{event = "Output", passage = "Hall", fn = function(ev)
  if ev.text then story.apply("texts", "+", 1) end
end}
`)

	require.NoError(t, s.Begin())
	require.True(t, s.Vars().Get("order").IsEmpty())

	require.NoError(t, s.GoTo("Hall"))
	require.Equal(t, "ab", s.Vars().Get("order").String())
	require.True(t, s.Vars().Get("texts").Equals(vars.Int(1)))
}

func TestPauseFromScript(t *testing.T) {
	s, _ := newSession(t, `
function Start_Enter(ev)
  story.pause()
end
`)

	require.NoError(t, s.Begin())
	require.Equal(t, story.Paused, s.State())
	require.Equal(t, "", s.Text())

	require.NoError(t, s.Resume())
	require.Equal(t, story.Idle, s.State())
	require.Equal(t, "Hellonext", s.Text())
}

func TestWaitHandleSuspendsUntilFinished(t *testing.T) {
	s, script := newSession(t, `
handle = nil
cue{event = "Enter", passage = "Start", wait = true, fn = function(ev)
  handle = story.wait()
  return handle
end}
function release()
  handle:finish()
end
`)

	require.NoError(t, s.Begin())
	require.Equal(t, story.Paused, s.State())

	s.Update()
	require.Equal(t, story.Paused, s.State())

	require.NoError(t, script.Call("release"))
	s.Update()
	require.Equal(t, story.Idle, s.State())
	require.Equal(t, "Hellonext", s.Text())
}

func TestScriptErrorsAreLoggedNotFatal(t *testing.T) {
	s, _ := newSession(t, `
function Start_Enter(ev)
  error("boom")
end
`)

	require.NoError(t, s.Begin())
	require.Equal(t, "Hellonext", s.Text())
}

func TestFailingListenersLeaveStackBalanced(t *testing.T) {
	s, script := newSession(t, `
function Start_Enter(ev)
  error("boom")
end
cue{event = "Output", fn = function(ev) error("again") end}
function fail() error("called") end
`)
	top := script.state.Top()

	require.NoError(t, s.Begin())
	require.Error(t, script.Call("fail"))
	require.Error(t, script.Call("fail"))
	require.Equal(t, top, script.state.Top())

	s.Reset()
	require.NoError(t, s.Begin())
	require.Equal(t, top, script.state.Top())
}

func TestLoadRejectsBadDeclarations(t *testing.T) {
	_, err := LoadString("bad", `cue{event = "Nope", fn = function() end}`, nil)
	require.Error(t, err)

	_, err = LoadString("bad", `cue{event = "Done", wait = true, fn = function() end}`, nil)
	require.Error(t, err)

	_, err = LoadString("bad", `cue{event = "Enter"}`, nil)
	require.Error(t, err)

	_, err = LoadString("bad", `this is not lua`, nil)
	require.Error(t, err)
}

func TestStoryFunctionsNeedHost(t *testing.T) {
	script, err := LoadString("hostless", `function probe() story.get("x") end`, nil)
	require.NoError(t, err)
	require.Error(t, script.Call("probe"))
}

func TestValuesRoundTripThroughLua(t *testing.T) {
	s, script := newSession(t, `
function copy()
  story.set("copy", story.get("source"))
end
`)
	require.NoError(t, s.Vars().Set("source", vars.Of([]any{1, "two", 3.5})))
	require.NoError(t, script.Call("copy"))

	copied := s.Vars().Get("copy")
	require.Equal(t, vars.TypeList, copied.Type())
	require.Equal(t, "1, two, 3.5", copied.String())
}
