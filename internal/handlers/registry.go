package handlers

import (
	"fmt"
	"strings"

	"github.com/desertthunder/jbtracks/internal/paths"
	"github.com/desertthunder/jbtracks/internal/shared"
)

// AutoType is the type identifier returned for the AUTO keyword.
const AutoType = "auto"

// Registry maps type identifiers to handlers in registration order.
//
// Registration order breaks ties when several handlers claim the same extension.
type Registry struct {
	handlers []Handler
	byType   map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string]Handler)}
}

// Register appends h. Empty and duplicate type identifiers are rejected.
func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("%w: nil handler", shared.ErrInvalidInput)
	}
	id := strings.TrimSpace(h.Type())
	if id == "" {
		return fmt.Errorf("%w: handler has an empty type", shared.ErrInvalidInput)
	}
	if _, ok := r.byType[id]; ok {
		return fmt.Errorf("%w: %s", shared.ErrDuplicateHandler, id)
	}
	r.handlers = append(r.handlers, h)
	r.byType[id] = h
	return nil
}

// Lookup returns the handler registered for typeID.
func (r *Registry) Lookup(typeID string) (Handler, bool) {
	h, ok := r.byType[typeID]
	return h, ok
}

// Types returns every registered type identifier in registration order.
//
// This is the list of type subdirectories scanned for existing artifacts.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for _, h := range r.handlers {
		types = append(types, h.Type())
	}
	return types
}

// Handlers returns the registered handlers in registration order.
func (r *Registry) Handlers() []Handler {
	return append([]Handler(nil), r.handlers...)
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int { return len(r.handlers) }

// DetermineType sniffs the type of a source path.
//
// The AUTO keyword maps to [AutoType]. Otherwise the first handler with a matching extension wins.
func (r *Registry) DetermineType(path string) (string, bool) {
	if paths.Path(path).IsAuto() {
		return AutoType, true
	}
	path = strings.TrimSpace(path)
	for _, h := range r.handlers {
		for _, ext := range h.Extensions() {
			if paths.HasExtension(path, ext) {
				return h.Type(), true
			}
		}
	}
	return "", false
}
