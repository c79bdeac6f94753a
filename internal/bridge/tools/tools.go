// Package tools exposes CRM record operations as named tools over HTTP JSON.
// It is the sole consumer of the structured remote error shape: handlers
// never see a raw upstream failure, and everything they return is safe to
// render to the calling agent.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Request is one tool invocation.
type Request struct {
	Tool      string          `json:"tool"`
	RequestID string          `json:"requestId,omitempty"`
	Params    json.RawMessage `json:"params"`
}

// Handler executes one tool. A returned error must be (or sanitize to) a
// RemoteError; the server renders it as the standard error envelope.
type Handler func(ctx context.Context, req *Request) (any, error)

// Registry maps tool names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a tool. Panics on duplicate names; registration happens once
// at startup.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("tool %q registered twice", name))
	}
	r.handlers[name] = h
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// List returns registered tool names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
