package keybinds

import (
	"slices"
	"strings"
)

// Binding represents a keybinding mapping
type Binding struct {
	Key     string
	Action  Action
	Context Context
}

// Registry manages keybinding mappings and matching.
// It is owned by the UI loop and not safe for concurrent use.
type Registry struct {
	// bindings maps context -> key -> action
	bindings map[Context]map[string]Action

	// pending holds the first key of a sequence like "gg"
	pending map[Context]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[Context]map[string]Action),
		pending:  make(map[Context]string),
	}
}

// Register adds a keybinding to the registry
func (r *Registry) Register(context Context, key string, action Action) {
	if r.bindings[context] == nil {
		r.bindings[context] = make(map[string]Action)
	}
	r.bindings[context][key] = action
}

// RegisterMultiple registers multiple keys for the same action
func (r *Registry) RegisterMultiple(context Context, keys []string, action Action) {
	for _, key := range keys {
		r.Register(context, key, action)
	}
}

// Unbind removes key from context
func (r *Registry) Unbind(context Context, key string) {
	delete(r.bindings[context], key)
}

// Match resolves key in context, falling back to the global context
func (r *Registry) Match(context Context, key string) (Action, bool) {
	if action, ok := r.bindings[context][key]; ok {
		return action, true
	}
	if action, ok := r.bindings[ContextGlobal][key]; ok {
		return action, true
	}
	return "", false
}

// isSequenceStart reports whether key begins a longer bound sequence
func (r *Registry) isSequenceStart(context Context, key string) bool {
	if len(key) != 1 {
		return false
	}
	for _, ctx := range []Context{context, ContextGlobal} {
		for bound := range r.bindings[ctx] {
			if isPrintableSequence(bound) && strings.HasPrefix(bound, key) {
				return true
			}
		}
	}
	return false
}

// MatchSequence handles two-key sequences like "gg".
// It returns the action, whether it is a complete match and whether key
// started a sequence that awaits its next key.
func (r *Registry) MatchSequence(context Context, key string) (Action, bool, bool) {
	if prev, ok := r.pending[context]; ok {
		delete(r.pending, context)
		if action, ok := r.Match(context, prev+key); ok {
			return action, true, false
		}
		return "", false, false
	}

	if r.isSequenceStart(context, key) {
		r.pending[context] = key
		return "", false, true
	}

	action, ok := r.Match(context, key)
	return action, ok, false
}

// ClearPending drops any half-typed sequence in context
func (r *Registry) ClearPending(context Context) {
	delete(r.pending, context)
}

// Keys returns the sorted keys bound to action, checking context then global
func (r *Registry) Keys(context Context, action Action) []string {
	var keys []string
	for key, act := range r.bindings[context] {
		if act == action {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		for key, act := range r.bindings[ContextGlobal] {
			if act == action {
				keys = append(keys, key)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

// KeyString returns a human-readable list of keys bound to action
func (r *Registry) KeyString(context Context, action Action) string {
	keys := r.Keys(context, action)
	if len(keys) == 0 {
		return "unbound"
	}
	for i, k := range keys {
		if k == " " {
			keys[i] = "space"
		}
	}
	return strings.Join(keys, "/")
}

// Actions returns the distinct actions bound in context (without global),
// sorted by name
func (r *Registry) Actions(context Context) []Action {
	seen := make(map[Action]bool)
	var actions []Action
	for _, action := range r.bindings[context] {
		if !seen[action] {
			seen[action] = true
			actions = append(actions, action)
		}
	}
	slices.Sort(actions)
	return actions
}

// ListBindings returns the bindings of context followed by global ones,
// sorted by key within each
func (r *Registry) ListBindings(context Context) []Binding {
	contexts := []Context{context}
	if context != ContextGlobal {
		contexts = append(contexts, ContextGlobal)
	}

	var bindings []Binding
	for _, ctx := range contexts {
		keys := make([]string, 0, len(r.bindings[ctx]))
		for key := range r.bindings[ctx] {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			bindings = append(bindings, Binding{Key: key, Action: r.bindings[ctx][key], Context: ctx})
		}
	}
	return bindings
}

// HasBinding checks if a key is bound in context or globally
func (r *Registry) HasBinding(context Context, key string) bool {
	_, ok := r.Match(context, key)
	return ok
}

// Clone creates a deep copy of the registry
func (r *Registry) Clone() *Registry {
	clone := NewRegistry()
	clone.Merge(r)
	return clone
}

// Merge copies bindings from other, other taking precedence
func (r *Registry) Merge(other *Registry) {
	for context, contextBindings := range other.bindings {
		for key, action := range contextBindings {
			r.Register(context, key, action)
		}
	}
}
