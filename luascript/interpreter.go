// Package luascript runs clip methods and listener broadcasts as Lua
// functions. Frame bytecode is still handled by marquee.BasicInterpreter.
//
// Scripts define two global tables:
//
//	handlers = {
//	  _root = { onEnterFrame = function(self) end },
//	  ball  = { onMouseDown = function(self) stop(self) end },
//	}
//	listeners = {
//	  Mouse = { onMouseDown = function() trace("click") end },
//	}
//
// handlers is keyed by clip instance name, with _root for the main timeline.
// Methods receive the clip's path, which every API function accepts as its
// target argument.
package luascript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/phanxgames/marquee"
)

// APIVersion is published to scripts as the API_VERSION global.
const APIVersion = 1

const (
	handlersGlobal  = "handlers"
	listenersGlobal = "listeners"
	rootName        = "_root"
)

// ErrNoUpdate is returned by API functions called outside of an action.
var ErrNoUpdate = errors.New("luascript: called outside of an update")

// Interpreter is a marquee.ScriptInterpreter backed by a Lua state.
type Interpreter struct {
	vm    *lua.LState
	log   *zap.Logger
	basic *marquee.BasicInterpreter

	// ctx is only set while an action runs.
	ctx *marquee.UpdateContext
}

// New creates an interpreter and loads every .lua file in dir in name order.
// A missing dir is not an error. An empty dir skips loading.
func New(dir string, log *zap.Logger) (*Interpreter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	i := &Interpreter{vm: vm, log: log, basic: marquee.NewBasicInterpreter()}
	i.register()

	if dir != "" {
		if err := i.loadDir(dir); err != nil {
			vm.Close()
			return nil, err
		}
	}
	return i, nil
}

func (i *Interpreter) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			i.log.Debug("lua script dir missing", zap.String("dir", dir))
			return nil
		}
		return fmt.Errorf("read lua dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".lua") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := i.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		i.log.Debug("loaded lua script", zap.String("file", e.Name()))
	}
	return nil
}

// LoadString runs src in the interpreter's global scope.
func (i *Interpreter) LoadString(src string) error {
	if err := i.vm.DoString(src); err != nil {
		return fmt.Errorf("load lua source: %w", err)
	}
	return nil
}

// Close releases the Lua state.
func (i *Interpreter) Close() {
	i.vm.Close()
}

// Global returns a Lua global, for hosts that read script state.
func (i *Interpreter) Global(name string) lua.LValue {
	return i.vm.GetGlobal(name)
}

// Skipped reports the bytecode opcodes the fallback interpreter skipped.
func (i *Interpreter) Skipped() int { return i.basic.Skipped }

// Run executes a. Bytecode goes to the basic interpreter; methods and
// listener broadcasts call into Lua.
func (i *Interpreter) Run(ctx *marquee.UpdateContext, a marquee.Action) error {
	switch a.Kind {
	case marquee.ActionNormal, marquee.ActionInit:
		return i.basic.Run(ctx, a)
	case marquee.ActionMethod:
		n := ctx.Node(a.Target)
		if n == nil {
			return nil
		}
		fn := i.method(ctx, n, a.Method)
		if fn == nil {
			return nil
		}
		return i.call(ctx, fn, lua.LString(pathOf(ctx, n)))
	case marquee.ActionNotifyListeners:
		fn := i.lookup(listenersGlobal, a.Listener, a.Method)
		if fn == nil {
			return nil
		}
		args := make([]lua.LValue, len(a.Args))
		for k, s := range a.Args {
			args[k] = lua.LString(s)
		}
		return i.call(ctx, fn, args...)
	}
	return nil
}

// HasMethod reports whether the handlers table defines name for target.
func (i *Interpreter) HasMethod(ctx *marquee.UpdateContext, target marquee.Handle, name string) bool {
	n := ctx.Node(target)
	return n != nil && i.method(ctx, n, name) != nil
}

func (i *Interpreter) method(ctx *marquee.UpdateContext, n *marquee.Node, name string) *lua.LFunction {
	key := n.Name
	if n.Handle() == ctx.Root {
		key = rootName
	}
	if key == "" {
		return nil
	}
	return i.lookup(handlersGlobal, key, name)
}

// lookup returns global[table][field] when it is a function.
func (i *Interpreter) lookup(global, table, field string) *lua.LFunction {
	g, ok := i.vm.GetGlobal(global).(*lua.LTable)
	if !ok {
		return nil
	}
	t, ok := g.RawGetString(table).(*lua.LTable)
	if !ok {
		return nil
	}
	fn, _ := t.RawGetString(field).(*lua.LFunction)
	return fn
}

func (i *Interpreter) call(ctx *marquee.UpdateContext, fn *lua.LFunction, args ...lua.LValue) error {
	prev := i.ctx
	i.ctx = ctx
	defer func() { i.ctx = prev }()

	if err := i.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
		return fmt.Errorf("lua call: %w", err)
	}
	return nil
}

// pathOf builds the slash path of n from the root, e.g. /menu/button.
// Unnamed ancestors produce an empty segment and the path will not resolve.
func pathOf(ctx *marquee.UpdateContext, n *marquee.Node) string {
	var parts []string
	for n != nil && n.Handle() != ctx.Root {
		parts = append(parts, n.Name)
		n = ctx.Node(n.Parent())
	}
	if len(parts) == 0 {
		return "/"
	}
	var b strings.Builder
	for k := len(parts) - 1; k >= 0; k-- {
		b.WriteByte('/')
		b.WriteString(parts[k])
	}
	return b.String()
}
