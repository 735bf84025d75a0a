package luacue

import (
	"math"

	"github.com/Shopify/go-lua"

	"github.com/opencode-ai/cradle/internal/vars"
)

// pushVar pushes v onto the Lua stack. Lists and maps become tables; other
// aggregates are pushed as their string form.
func pushVar(l *lua.State, v vars.Var) {
	switch v.Kind() {
	case vars.KindBool:
		b, _ := v.Bool()
		l.PushBoolean(b)
	case vars.KindInt:
		n, _ := v.Int()
		l.PushInteger(n)
	case vars.KindFloat:
		f, _ := v.Float()
		l.PushNumber(f)
	case vars.KindString:
		s, _ := v.Str()
		l.PushString(s)
	case vars.KindObject:
		obj, _ := v.Object()
		switch agg := obj.(type) {
		case *vars.List:
			l.NewTable()
			for i, item := range agg.Items() {
				pushVar(l, item)
				l.RawSetInt(-2, i+1)
			}
		case *vars.Map:
			l.NewTable()
			for _, key := range agg.Keys() {
				item, _ := agg.Get(key)
				pushVar(l, item)
				l.SetField(-2, key)
			}
		default:
			l.PushString(v.String())
		}
	default:
		l.PushNil()
	}
}

// toVar converts the Lua value at index into a Var.
func toVar(l *lua.State, index int) (vars.Var, error) {
	return vars.From(luaToGo(l, index))
}

func luaToGo(l *lua.State, index int) any {
	switch l.TypeOf(index) {
	case lua.TypeString:
		value, _ := l.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := l.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(l, index)
	default:
		return nil
	}
}

func tableToMap(l *lua.State, index int) map[string]any {
	out := map[string]any{}
	if l.TypeOf(index) != lua.TypeTable {
		return out
	}

	index = l.AbsIndex(index)
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) == lua.TypeString {
			key, _ := l.ToString(-2)
			out[key] = luaToGo(l, -1)
		}
		l.Pop(1)
	}
	return out
}

// tableToGo returns a slice for sequence tables and a map otherwise.
func tableToGo(l *lua.State, index int) any {
	index = l.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	l.PushNil()
	for l.Next(index) {
		if isArray {
			if l.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := l.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		l.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			l.RawGetInt(index, i)
			result = append(result, luaToGo(l, -1))
			l.Pop(1)
		}
		return result
	}
	return tableToMap(l, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 && math.Abs(value) < math.MaxInt32 {
		return int(value)
	}
	return value
}
