// Package tools maps the mutation names an oracle may request onto callable
// functions. Unknown names fail soft so a hallucinated tool never crashes a
// review.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Result is the uniform outcome of a tool call.
type Result struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// OK builds a successful result carrying data.
func OK(data interface{}) Result { return Result{Status: StatusOK, Data: data} }

// Failed builds a failed result with a message.
func Failed(msg string) Result { return Result{Status: StatusFailed, Error: msg} }

// Func executes one tool against loosely typed arguments.
type Func func(ctx context.Context, args map[string]interface{}) Result

// Registry holds named tools. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register adds or replaces a tool under name.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Call dispatches to the named tool. An unknown name or a panicking tool
// yields a failed Result, never a crash.
func (r *Registry) Call(ctx context.Context, name string, args map[string]interface{}) (res Result) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()
	if !ok {
		return Failed("Tool not found")
	}

	defer func() {
		if rec := recover(); rec != nil {
			res = Failed(fmt.Sprintf("tool %s panicked: %v", name, rec))
		}
	}()
	return fn(ctx, args)
}
