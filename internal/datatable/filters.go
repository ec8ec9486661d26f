package datatable

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// FilterFunc reports whether a cell passes a column filter value
type FilterFunc func(cell any, value any) bool

// FilterDefault is used when a column has no FilterFn:
// a set means membership of the cell (empty set means no constraint),
// a string means a case-insensitive substring match.
func FilterDefault(cell any, value any) bool {
	switch v := value.(type) {
	case []string:
		if len(v) == 0 {
			return true
		}
		if cells, ok := cellStrings(cell); ok {
			return containsAny(cells, v)
		}
		return slices.Contains(v, CellString(cell))
	case string:
		return FilterContains(cell, v)
	case nil:
		return true
	default:
		return CellString(cell) == CellString(value)
	}
}

// FilterContains is a case-insensitive substring match
func FilterContains(cell any, value any) bool {
	needle := strings.ToLower(CellString(value))
	if needle == "" {
		return true
	}
	if cells, ok := cellStrings(cell); ok {
		for _, c := range cells {
			if strings.Contains(strings.ToLower(c), needle) {
				return true
			}
		}
		return false
	}
	return strings.Contains(strings.ToLower(CellString(cell)), needle)
}

// FilterIncludesAny matches list cells (tags, roles) sharing any value with the selection
func FilterIncludesAny(cell any, value any) bool {
	set := selection(value)
	if len(set) == 0 {
		return true
	}
	cells, ok := cellStrings(cell)
	if !ok {
		cells = []string{CellString(cell)}
	}
	return containsAny(cells, set)
}

// FilterEquals matches the cell exactly against a string or any set member
func FilterEquals(cell any, value any) bool {
	set := selection(value)
	if len(set) == 0 {
		return true
	}
	return slices.Contains(set, CellString(cell))
}

// FilterByName resolves the config names of the built-in filter functions
func FilterByName(name string) (FilterFunc, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return nil, nil
	case "contains", "includesstring":
		return FilterContains, nil
	case "includesany", "arrincludessome":
		return FilterIncludesAny, nil
	case "equals", "equalsstring":
		return FilterEquals, nil
	default:
		return nil, fmt.Errorf("unknown filter function %q", name)
	}
}

func selection(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

func containsAny(cells, set []string) bool {
	for _, c := range cells {
		if slices.Contains(set, c) {
			return true
		}
	}
	return false
}

// CellString renders a cell the way filters and facets compare it
func CellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		if cells, ok := cellStrings(v); ok {
			return strings.Join(cells, ", ")
		}
		return fmt.Sprint(val)
	}
}

// cellStrings flattens list cells; ok is false for scalars
func cellStrings(v any) ([]string, bool) {
	switch val := v.(type) {
	case []string:
		return val, true
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, CellString(item))
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// compareCells orders two cells: numbers numerically, bools false first,
// everything else case-insensitively as text
func compareCells(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(strings.ToLower(CellString(a)), strings.ToLower(CellString(b)))
}
