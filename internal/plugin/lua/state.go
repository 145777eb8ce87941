package lua

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"
)

// Default limits for Lua state.
const (
	DefaultExecutionTimeout = 5 * time.Second // Wall time per call
	DefaultInstructionLimit = 10_000_000      // Host API calls per call
)

// State wraps gopher-lua with sandboxing, limits and panic recovery.
//
// gopher-lua's LState is not goroutine-safe. Every entry point takes the
// state mutex, so a State may be shared between goroutines, but calls are
// not reentrant: a Go function invoked from Lua must not call back into the
// same State.
type State struct {
	L *lua.LState

	mu sync.Mutex

	executionTimeout time.Duration
	instructionLimit int64
	log              zerolog.Logger

	sandbox *Sandbox

	// raised is the Go error behind the current Lua error, if any.
	raised error
	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the wall time limit of a single call.
// Zero disables the limit.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// WithInstructionLimit sets the budget of host API calls a single call may
// make. Zero disables the limit.
func WithInstructionLimit(limit int64) StateOption {
	return func(s *State) {
		s.instructionLimit = limit
	}
}

// WithLogger routes Lua print output and hook diagnostics to log.
func WithLogger(log zerolog.Logger) StateOption {
	return func(s *State) {
		s.log = log
	}
}

// NewState creates a new sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	state := &State{
		executionTimeout: DefaultExecutionTimeout,
		instructionLimit: DefaultInstructionLimit,
		log:              zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	state.L = L
	openSafeLibraries(L)

	state.sandbox = NewSandbox(L, state.instructionLimit, state.log)
	state.sandbox.Install()
	state.installEditorType()
	state.installContentType()

	return state
}

// openSafeLibraries opens only safe Lua standard libraries.
// io, os, debug and package are not opened.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// DoFile executes a Lua file and returns the values the chunk returns.
func (s *State) DoFile(ctx context.Context, path string) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fn, err := s.L.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return s.call(ctx, fn, lua.MultRet, nil)
}

// DoString executes a Lua chunk and returns the values it returns.
func (s *State) DoString(ctx context.Context, code string) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fn, err := s.L.LoadString(code)
	if err != nil {
		return nil, err
	}
	return s.call(ctx, fn, lua.MultRet, nil)
}

// Call calls fn with args. Build args inside the call with the build
// function when they need the LState; it may be nil.
// Returns an empty slice (not nil) if the function returns no values.
func (s *State) Call(ctx context.Context, fn lua.LValue, build func(L *lua.LState) []lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w (got %s)", ErrNotFunction, fn.Type())
	}

	var args []lua.LValue
	if build != nil {
		args = build(s.L)
	}
	return s.call(ctx, fn, lua.MultRet, args)
}

// call runs fn under the context, timeout and instruction budget.
// Caller must hold s.mu.
func (s *State) call(ctx context.Context, fn lua.LValue, nret int, args []lua.LValue) (results []lua.LValue, err error) {
	L := s.L
	top := L.GetTop()

	if s.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.executionTimeout)
		defer cancel()
	}
	L.SetContext(ctx)
	defer L.RemoveContext()

	s.raised = nil
	s.sandbox.ResetInstructionCount()

	defer func() {
		if r := recover(); r != nil {
			L.SetTop(top)
			results, err = nil, fmt.Errorf("lua panic: %v", r)
		}
	}()

	L.Push(fn)
	for _, arg := range args {
		L.Push(arg)
	}
	if callErr := L.PCall(len(args), nret, nil); callErr != nil {
		L.SetTop(top)
		return nil, s.classify(ctx, callErr)
	}

	n := L.GetTop() - top
	results = make([]lua.LValue, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		results = append(results, L.Get(top+i))
	}
	L.SetTop(top)
	return results, nil
}

// classify maps a Lua error to the package sentinels.
func (s *State) classify(ctx context.Context, err error) error {
	switch {
	case s.sandbox.Exceeded():
		return fmt.Errorf("%w: %v", ErrInstructionLimit, err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	case s.raised != nil:
		return fmt.Errorf("%w: %v", s.raised, err)
	}
	return err
}

// Do runs fn with exclusive access to the LState outside any Lua call.
// Panics are recovered into errors.
func (s *State) Do(fn func(L *lua.LState) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn(s.L)
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// raise aborts the running Lua call with err. The returned PCall error
// wraps err so callers can match it with errors.Is.
func (s *State) raise(L *lua.LState, err error) {
	s.raised = err
	L.RaiseError("%s", err.Error())
}

// Sandbox returns the sandbox of the state.
func (s *State) Sandbox() *Sandbox {
	return s.sandbox
}

// Logger returns the logger Lua output is routed to.
func (s *State) Logger() zerolog.Logger {
	return s.log
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases all resources associated with the Lua state.
// After Close is called, all other methods will return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.L.Close()
	s.closed = true
	return nil
}
