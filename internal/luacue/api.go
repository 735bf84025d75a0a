package luacue

import (
	"github.com/Shopify/go-lua"

	"github.com/opencode-ai/cradle/internal/cues"
	"github.com/opencode-ai/cradle/internal/vars"
)

func (s *Script) registerAPI() {
	l := s.state

	l.NewTable()
	l.SetField(lua.RegistryIndex, cueTableKey)

	lua.NewMetaTable(l, waitTypeName)
	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "finish", Function: s.luaFinish},
		{Name: "done", Function: s.luaWaitDone},
	}, 0)
	l.SetField(-2, "__index")
	l.Pop(1)

	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "get", Function: s.luaGet},
		{Name: "set", Function: s.luaSet},
		{Name: "apply", Function: s.luaApply},
		{Name: "pause", Function: s.luaPause},
		{Name: "wait", Function: s.luaWait},
		{Name: "finish", Function: s.luaFinish},
		{Name: "log", Function: s.luaLog},
	}, 0)
	l.SetGlobal("story")

	l.PushGoFunction(s.luaCue)
	l.SetGlobal("cue")
}

func (s *Script) checkHost(l *lua.State) {
	if s.host == nil {
		lua.Errorf(l, "%s", ErrNoHost.Error())
	}
}

func (s *Script) luaGet(l *lua.State) int {
	s.checkHost(l)
	name := lua.CheckString(l, 1)
	pushVar(l, s.host.Vars().Get(name))
	return 1
}

func (s *Script) luaSet(l *lua.State) int {
	s.checkHost(l)
	name := lua.CheckString(l, 1)
	value, err := toVar(l, 2)
	if err != nil {
		lua.Errorf(l, "story.set %s: %s", name, err.Error())
		return 0
	}
	if err := s.host.Vars().Set(name, value); err != nil {
		lua.Errorf(l, "story.set %s: %s", name, err.Error())
	}
	return 0
}

func (s *Script) luaApply(l *lua.State) int {
	s.checkHost(l)
	name := lua.CheckString(l, 1)
	op, err := vars.ParseOperator(lua.CheckString(l, 2))
	if err != nil {
		lua.ArgumentError(l, 2, err.Error())
		return 0
	}
	operand, err := toVar(l, 3)
	if err != nil {
		lua.ArgumentError(l, 3, err.Error())
		return 0
	}
	result, err := s.host.Vars().Apply(name, op, operand)
	if err != nil {
		lua.Errorf(l, "story.apply %s: %s", name, err.Error())
		return 0
	}
	pushVar(l, result)
	return 1
}

func (s *Script) luaPause(l *lua.State) int {
	s.checkHost(l)
	if err := s.host.Pause(); err != nil {
		lua.Errorf(l, "story.pause: %s", err.Error())
	}
	return 0
}

func (s *Script) luaWait(l *lua.State) int {
	l.PushUserData(cues.NewWait())
	lua.SetMetaTableNamed(l, waitTypeName)
	return 1
}

func checkWait(l *lua.State) *cues.Wait {
	ud := lua.CheckUserData(l, 1, waitTypeName)
	if w, ok := ud.(*cues.Wait); ok && w != nil {
		return w
	}
	lua.ArgumentError(l, 1, "wait handle expected")
	return nil
}

func (s *Script) luaFinish(l *lua.State) int {
	checkWait(l).Finish()
	return 0
}

func (s *Script) luaWaitDone(l *lua.State) int {
	l.PushBoolean(checkWait(l).Done())
	return 1
}

func (s *Script) luaLog(l *lua.State) int {
	s.logger.Info().Msg(lua.CheckString(l, 1))
	return 0
}

// luaCue records a cue{} declaration. Recognised fields are event, fn,
// passage, tag, link, order and wait.
func (s *Script) luaCue(l *lua.State) int {
	lua.CheckType(l, 1, lua.TypeTable)

	opts := tableToMap(l, 1)
	event, _ := opts["event"].(string)
	kind, err := cues.ParseEventKind(event)
	if err != nil {
		lua.ArgumentError(l, 1, err.Error())
		return 0
	}

	l.Field(1, "fn")
	if !l.IsFunction(-1) {
		l.Pop(1)
		lua.ArgumentError(l, 1, "fn must be a function")
		return 0
	}
	ref := len(s.decls) + 1
	l.Field(lua.RegistryIndex, cueTableKey)
	l.PushValue(-2)
	l.RawSetInt(-2, ref)
	l.Pop(2)

	decl := cues.Decl{Kind: kind}
	decl.Passage, _ = opts["passage"].(string)
	decl.Tag, _ = opts["tag"].(string)
	decl.Link, _ = opts["link"].(string)
	if order, ok := opts["order"].(int); ok {
		decl.Order = order
	}
	wait, _ := opts["wait"].(bool)
	if wait && !kind.AllowsSuspending() {
		lua.ArgumentError(l, 1, kind.String()+" cues cannot wait")
		return 0
	}

	s.decls = append(s.decls, declaration{decl: decl, ref: ref, wait: wait})
	return 0
}
