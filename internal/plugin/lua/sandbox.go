package lua

import (
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"
)

// safeModules may be loaded with require. They are already open as globals.
var safeModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// removedGlobals load code from disk or strings and bypass the sandbox.
var removedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"module",
	"getfenv",
	"setfenv",
	"collectgarbage",
}

// Sandbox restricts Lua execution to safe operations.
type Sandbox struct {
	L *lua.LState

	instructionLimit int64
	instructionCount int64
	exceeded         atomic.Bool

	log zerolog.Logger
}

// NewSandbox creates a new sandbox for the Lua state.
func NewSandbox(L *lua.LState, instructionLimit int64, log zerolog.Logger) *Sandbox {
	return &Sandbox{
		L:                L,
		instructionLimit: instructionLimit,
		log:              log,
	}
}

// Install sets up the sandbox restrictions.
func (s *Sandbox) Install() {
	for _, name := range removedGlobals {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installPrint()
	s.installRequire()
}

// installPrint routes print to the logger at info level.
func (s *Sandbox) installPrint() {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		s.log.Info().Str("source", "lua").Msg(strings.Join(parts, "\t"))
		return 0
	}))
}

// installRequire replaces require with a whitelist of the open libraries.
// Nothing is ever loaded from disk.
func (s *Sandbox) installRequire() {
	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !safeModules[name] {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(L.GetGlobal(name))
		return 1
	}))
}

// ResetInstructionCount resets the instruction counter.
func (s *Sandbox) ResetInstructionCount() {
	atomic.StoreInt64(&s.instructionCount, 0)
	s.exceeded.Store(false)
}

// InstructionCount returns the current instruction count.
func (s *Sandbox) InstructionCount() int64 {
	return atomic.LoadInt64(&s.instructionCount)
}

// IncrementInstructions adds to the instruction count and returns true if limit exceeded.
func (s *Sandbox) IncrementInstructions(n int64) bool {
	if s.instructionLimit <= 0 {
		return false
	}
	count := atomic.AddInt64(&s.instructionCount, n)
	if count > s.instructionLimit {
		s.exceeded.Store(true)
		return true
	}
	return false
}

// Exceeded reports whether the current call ran over its budget.
func (s *Sandbox) Exceeded() bool {
	return s.exceeded.Load()
}

// Charge counts one host API call and aborts the Lua call when the budget
// is spent.
func (s *Sandbox) Charge(L *lua.LState) {
	if s.IncrementInstructions(1) {
		L.RaiseError("%s", ErrInstructionLimit.Error())
	}
}
