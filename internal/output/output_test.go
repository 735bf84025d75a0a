package output

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencode-ai/cradle/internal/vars"
)

func requireIndexed(t *testing.T, o *Output) {
	t.Helper()
	for i, item := range o.Items() {
		require.Equal(t, i, item.Index(), "item %d (%s)", i, Describe(item))
	}
}

func TestIndexInvariantAcrossMutations(t *testing.T) {
	o := New()
	a, b, c := NewText("a"), NewText("b"), NewText("c")
	o.Add(a)
	o.Add(b)
	o.Add(c)
	requireIndexed(t, o)

	o.PushInsertCursor(1)
	o.Add(NewText("x"))
	requireIndexed(t, o)

	require.True(t, o.Remove(a))
	requireIndexed(t, o)
	require.Equal(t, -1, a.Index())
	require.False(t, o.Remove(a))

	_, ok := o.PopInsertCursor()
	require.True(t, ok)
	o.Add(NewLineBreak())
	requireIndexed(t, o)
	require.Equal(t, "xbc\n", o.Text())
}

func TestInsertCursorContiguity(t *testing.T) {
	o := New()
	o.Add(NewText("start "))
	o.Add(NewText("end"))

	o.PushInsertCursor(1)
	for _, s := range []string{"one ", "two ", "three "} {
		o.Add(NewText(s))
	}
	pos, ok := o.PopInsertCursor()
	require.True(t, ok)
	require.Equal(t, 4, pos)

	require.Equal(t, "start one two three end", o.Text())
	requireIndexed(t, o)

	o.Add(NewText("!"))
	require.Equal(t, "start one two three end!", o.Text())
}

func TestNestedInsertCursors(t *testing.T) {
	o := New()
	o.Add(NewText("a"))
	o.Add(NewText("d"))

	o.PushInsertCursor(1)
	o.Add(NewText("b"))
	o.PushInsertCursor(2)
	o.Add(NewText("c"))
	o.PopInsertCursor()
	o.PopInsertCursor()

	require.Equal(t, "abcd", o.Text())
	requireIndexed(t, o)
}

func TestRemoveNotifiesObserver(t *testing.T) {
	o := New()
	var removed []Item
	o.OnRemoved = func(item Item) { removed = append(removed, item) }

	x := NewText("x")
	o.Add(NewText("a"))
	o.Add(x)
	require.True(t, o.Remove(x))
	require.Equal(t, []Item{x}, removed)
}

func TestStyleScopes(t *testing.T) {
	o := New()
	outer := o.OpenStyleScope(NewStyle().Set("color", vars.String("red")).Set("bold", vars.Bool(true)))
	first := NewText("loud")
	o.Add(first)

	inner := o.OpenStyleScope(NewStyle().Set("color", vars.String("blue")))
	second := NewText("quiet")
	o.Add(second)
	o.CloseStyleScope(inner)
	o.CloseStyleScope(outer)

	plain := NewText("plain")
	o.Add(plain)

	require.Same(t, outer, first.Group())
	require.Same(t, inner, second.Group())
	require.Nil(t, plain.Group())

	eff := o.EffectiveStyle(second)
	color, _ := eff.Get("color")
	require.Equal(t, "blue", color.String())
	require.True(t, eff.Has("bold"))
	require.Equal(t, 0, o.EffectiveStyle(plain).Len())
	require.True(t, second.Group().Within(outer))
}

func TestMismatchedScopeCloseIsFatal(t *testing.T) {
	o := New()
	outer := o.OpenStyleScope(NewStyle().Set("a", vars.Int(1)))
	o.OpenStyleScope(NewStyle().Set("b", vars.Int(2)))

	defer func() {
		r := recover()
		require.NotNil(t, r)
		_, ok := r.(*ConsistencyFault)
		require.True(t, ok, "expected *ConsistencyFault, got %T", r)
	}()
	o.CloseStyleScope(outer)
}

func TestWithStyleScopeClosesOnPanic(t *testing.T) {
	o := New()
	func() {
		defer func() { _ = recover() }()
		o.WithStyleScope(NewStyle(), func(*StyleGroup) { panic("boom") })
	}()
	require.Equal(t, 0, o.ScopeDepth())
}

func TestStyleIsAVar(t *testing.T) {
	style := vars.Object(NewStyle().Set("bold", vars.Bool(true)))
	has, err := vars.Compare(vars.Contains, style, vars.String("bold"))
	require.NoError(t, err)
	require.True(t, has)

	same := vars.Object(NewStyle().Set("bold", vars.Bool(true)))
	require.True(t, style.Equals(same))
	require.Equal(t, TypeStyle, style.Type())
}

func TestSequences(t *testing.T) {
	ran := 0
	seq := Concat(
		Items(NewText("a"), nil, NewText("b")),
		Do(func() { ran++ }),
		Defer(func() Sequence { return Items(NewText("c")) }),
		Empty(),
	)
	items := Collect(seq)
	require.Len(t, items, 3)
	require.Equal(t, 1, ran)

	_, ok := seq.Next()
	require.False(t, ok)
	require.Equal(t, 1, ran)
}

func TestDeferEvaluatesAtPullTime(t *testing.T) {
	n := 0
	seq := Defer(func() Sequence {
		n++
		return Items(NewText("x"))
	})
	require.Equal(t, 0, n)
	_, ok := seq.Next()
	require.True(t, ok)
	require.Equal(t, 1, n)
}
