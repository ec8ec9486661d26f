package keybinds

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a keybinding validation error
type ValidationError struct {
	Type    string // "conflict", "invalid", "warning"
	Context Context
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s in context '%s': %s", e.Type, e.Key, e.Context, e.Message)
}

// ValidationResult contains all validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any errors
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any warnings
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of validation results
func (r *ValidationResult) String() string {
	var sb strings.Builder

	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "Errors (%d):\n", len(r.Errors))
		for _, err := range r.Errors {
			fmt.Fprintf(&sb, "  - %s\n", err.Error())
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "Warnings (%d):\n", len(r.Warnings))
		for _, warn := range r.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", warn.Error())
		}
	}

	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}

	return sb.String()
}

// Validator checks a registry for unusable or surprising bindings
type Validator struct {
	// reservedKeys must keep their action in every context
	reservedKeys map[string]Action

	// required actions must stay reachable or a screen becomes a trap
	required map[Context][]Action
}

// NewValidator creates a new keybinding validator
func NewValidator() *Validator {
	return &Validator{
		reservedKeys: map[string]Action{
			"ctrl+c": ActionQuitForce,
		},
		required: map[Context][]Action{
			ContextSearch: {ActionTextCancel},
			ContextPicker: {ActionCloseModal},
			ContextDetail: {ActionCloseModal},
			ContextHelp:   {ActionCloseModal},
		},
	}
}

// ValidateRegistry validates an entire registry
func (v *Validator) ValidateRegistry(registry *Registry) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	v.checkReservedKeys(registry, result)
	v.checkRequiredActions(registry, result)
	v.checkSequences(registry, result)
	v.checkShadowing(registry, result)

	return result
}

// ValidateConfig applies config over the defaults and validates the result
func (v *Validator) ValidateConfig(config Config) *ValidationResult {
	registry := NewDefaultRegistry()
	if err := ApplyConfig(registry, config); err != nil {
		return &ValidationResult{
			Errors: []ValidationError{{Type: "invalid", Message: err.Error()}},
		}
	}
	return v.ValidateRegistry(registry)
}

func (v *Validator) checkReservedKeys(registry *Registry, result *ValidationResult) {
	for context, bindings := range registry.bindings {
		for key, action := range bindings {
			if want, reserved := v.reservedKeys[key]; reserved && action != want {
				result.Errors = append(result.Errors, ValidationError{
					Type:    "conflict",
					Context: context,
					Key:     key,
					Message: fmt.Sprintf("reserved key rebound to %s", action),
				})
			}
		}
	}
}

func (v *Validator) checkRequiredActions(registry *Registry, result *ValidationResult) {
	for context, actions := range v.required {
		for _, action := range actions {
			if len(registry.Keys(context, action)) == 0 {
				result.Errors = append(result.Errors, ValidationError{
					Type:    "invalid",
					Context: context,
					Message: fmt.Sprintf("%s is unbound", action),
				})
			}
		}
	}
}

// checkSequences warns when a sequence like "gg" hides a single key binding
// that shares its first key, since the single key then never fires.
func (v *Validator) checkSequences(registry *Registry, result *ValidationResult) {
	for context, bindings := range registry.bindings {
		for key := range bindings {
			if len(key) < 2 || strings.Contains(key, "+") || !isPrintableSequence(key) {
				continue
			}
			first := key[:1]
			if action, ok := bindings[first]; ok {
				result.Warnings = append(result.Warnings, ValidationError{
					Type:    "warning",
					Context: context,
					Key:     first,
					Message: fmt.Sprintf("%s is unreachable because %q starts a sequence", action, key),
				})
			}
		}
	}
}

// named keys are words like "enter" or "pgup", not typed sequences
var namedKeys = []string{
	"enter", "esc", "tab", "backspace", "delete", "insert", "space",
	"up", "down", "left", "right", "home", "end", "pgup", "pgdown",
}

func isPrintableSequence(key string) bool {
	if slices.Contains(namedKeys, key) {
		return false
	}
	if len(key) > 1 && key[0] == 'f' && strings.Trim(key[1:], "0123456789") == "" {
		return false // f1..f12
	}
	return len(key) == 2
}

func (v *Validator) checkShadowing(registry *Registry, result *ValidationResult) {
	globalBindings := registry.bindings[ContextGlobal]
	for context, bindings := range registry.bindings {
		if context == ContextGlobal {
			continue
		}
		for key, action := range bindings {
			if globalAction, ok := globalBindings[key]; ok && action != globalAction {
				result.Warnings = append(result.Warnings, ValidationError{
					Type:    "warning",
					Context: context,
					Key:     key,
					Message: fmt.Sprintf("shadows global binding (%s -> %s)", globalAction, action),
				})
			}
		}
	}
}

// ValidateKey checks if a key string is valid
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	for _, mod := range []string{"ctrl+", "alt+", "shift+", "super+"} {
		if key == mod {
			return fmt.Errorf("modifier without key: %s", key)
		}
	}
	return nil
}
