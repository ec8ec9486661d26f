// Package filter evaluates JMESPath expressions over decoded JSON payloads:
// item/total lookup in list responses, dotted column accessors and the
// --where/--query projections of the list command.
package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jmespath/go-jmespath"
)

const (
	// ShellTimeout bounds a $(command) query
	ShellTimeout = 30 * time.Second
)

var (
	// Shell command pattern: $(command)
	shellPattern = regexp.MustCompile(`^\$\((.+)\)$`)

	// compiled expressions by source; column accessors run once per cell
	compiled sync.Map
)

// Compile parses expression, reusing an earlier compilation of the same text
func Compile(expression string) (*jmespath.JMESPath, error) {
	if jp, ok := compiled.Load(expression); ok {
		return jp.(*jmespath.JMESPath), nil
	}
	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}
	compiled.Store(expression, jp)
	return jp, nil
}

// Search evaluates a JMESPath expression against decoded JSON
func Search(data any, expression string) (any, error) {
	jp, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	result, err := jp.Search(data)
	if err != nil {
		return nil, fmt.Errorf("JMESPath search failed: %w", err)
	}
	return result, nil
}

// Apply narrows data with where, then projects the result with query.
// Either may be empty. A query written as $(command) pipes the JSON document
// to the shell command instead; its output is decoded when it is JSON and
// returned as a string otherwise.
func Apply(ctx context.Context, data any, where, query string) (any, error) {
	result := data

	if where != "" {
		narrowed, err := Search(result, where)
		if err != nil {
			return nil, fmt.Errorf("failed to apply filter: %w", err)
		}
		result = narrowed
	}

	if query == "" {
		return result, nil
	}

	if matches := shellPattern.FindStringSubmatch(query); len(matches) > 1 {
		out, err := runShell(ctx, result, matches[1])
		if err != nil {
			return nil, fmt.Errorf("failed to execute query shell command: %w", err)
		}
		var decoded any
		if json.Unmarshal([]byte(out), &decoded) == nil {
			return decoded, nil
		}
		return out, nil
	}

	projected, err := Search(result, query)
	if err != nil {
		return nil, fmt.Errorf("failed to apply query: %w", err)
	}
	return projected, nil
}

// runShell executes command with the JSON encoding of data on stdin
func runShell(ctx context.Context, data any, command string) (string, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode input: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, ShellTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdin = bytes.NewReader(body)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := err.Error()
		if stderr.Len() > 0 {
			msg = strings.TrimSpace(stderr.String())
		}
		return "", fmt.Errorf("command '%s' failed: %s", command, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsValidJMESPath checks if an expression is valid JMESPath syntax
func IsValidJMESPath(expression string) bool {
	_, err := Compile(expression)
	return err == nil
}

// IsShellCommand checks if a query is a shell command (starts with $(...))
func IsShellCommand(query string) bool {
	return shellPattern.MatchString(query)
}
