package keybinds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// Unbound is the action value that removes a default binding
const Unbound = "none"

// Config is the user's keybinds.json: context -> key -> action.
//
//	{
//	  "table": { "n": "next_page", "l": "none" },
//	  "detail": { "y": "copy" }
//	}
type Config map[Context]map[string]string

// LoadConfig reads a keybinding file. Comments are allowed.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
		return nil, fmt.Errorf("invalid keybinds.json format: %w", err)
	}
	return config, nil
}

// SaveConfig writes config as indented JSON
func SaveConfig(config Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ApplyConfig applies user bindings over registry. Unknown contexts or
// actions are rejected so typos do not silently disable keys.
func ApplyConfig(registry *Registry, config Config) error {
	known := make(map[Context]bool, len(Contexts))
	for _, c := range Contexts {
		known[c] = true
	}

	var errs []error
	for context, bindings := range config {
		if !known[context] {
			errs = append(errs, fmt.Errorf("unknown context %q", context))
			continue
		}
		for key, actionStr := range bindings {
			if err := ValidateKey(key); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", context, err))
				continue
			}
			actionStr = strings.TrimSpace(actionStr)
			if actionStr == Unbound {
				registry.Unbind(context, key)
				continue
			}
			action := Action(actionStr)
			if !IsKnown(action) {
				errs = append(errs, fmt.Errorf("%s: unknown action %q for key %q", context, actionStr, key))
				continue
			}
			registry.Register(context, key, action)
		}
	}
	return errors.Join(errs...)
}

// LoadOrDefault returns the default registry with the file at configPath
// applied when it exists
func LoadOrDefault(configPath string) (*Registry, error) {
	registry := NewDefaultRegistry()

	config, err := LoadConfig(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return registry, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load keybinds.json: %w", err)
	}

	if err := ApplyConfig(registry, config); err != nil {
		return nil, fmt.Errorf("failed to apply keybinds config: %w", err)
	}
	return registry, nil
}

// ExportDefaults returns the default bindings as a config, for users to
// copy and edit
func ExportDefaults() Config {
	registry := NewDefaultRegistry()
	config := make(Config, len(registry.bindings))
	for context, bindings := range registry.bindings {
		config[context] = make(map[string]string, len(bindings))
		for key, action := range bindings {
			config[context][key] = string(action)
		}
	}
	return config
}
