package resource

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/studiowebux/lmscli/internal/datatable"
)

// Query parameter names of list endpoints
const (
	ParamPage   = "page"
	ParamLimit  = "limit"
	ParamSort   = "sort"
	ParamSearch = "q"
)

// Query encodes table state as list query parameters.
// Pages are 1-based on the wire.
func Query(state datatable.State) url.Values {
	q := url.Values{}

	for _, f := range state.ColumnFilters {
		if IsReservedParam(f.ColumnID) {
			continue
		}
		switch v := f.Value.(type) {
		case string:
			q.Set(f.ColumnID, v)
		case []string:
			q.Set(f.ColumnID, strings.Join(v, ","))
		default:
			q.Set(f.ColumnID, datatable.CellString(v))
		}
	}

	p := state.Pagination
	q.Set(ParamPage, strconv.Itoa(p.PageIndex+1))
	if p.PageSize > 0 {
		q.Set(ParamLimit, strconv.Itoa(p.PageSize))
	}

	if len(state.Sorting) > 0 {
		q.Set(ParamSort, FormatSort(state.Sorting))
	}

	if state.GlobalFilter != "" {
		q.Set(ParamSearch, state.GlobalFilter)
	}
	return q
}

// IsReservedParam reports whether name is a pagination, sort or search
// parameter and so cannot carry a column filter
func IsReservedParam(name string) bool {
	switch name {
	case ParamPage, ParamLimit, ParamSort, ParamSearch:
		return true
	}
	return false
}

// FormatSort renders rules as col:asc,col:desc
func FormatSort(rules []datatable.SortingRule) string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		dir := "asc"
		if r.Desc {
			dir = "desc"
		}
		parts[i] = r.ColumnID + ":" + dir
	}
	return strings.Join(parts, ",")
}

// ParseSort parses col[:asc|desc][,col...]; a leading "-" also means descending
func ParseSort(s string) ([]datatable.SortingRule, error) {
	var rules []datatable.SortingRule
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		rule := datatable.SortingRule{ColumnID: part}
		if strings.HasPrefix(part, "-") {
			rule = datatable.SortingRule{ColumnID: part[1:], Desc: true}
		} else if id, dir, ok := strings.Cut(part, ":"); ok {
			rule.ColumnID = id
			switch strings.ToLower(dir) {
			case "asc":
			case "desc":
				rule.Desc = true
			default:
				return nil, fmt.Errorf("invalid sort direction %q (use asc or desc)", dir)
			}
		}
		if rule.ColumnID == "" {
			return nil, fmt.Errorf("invalid sort %q", part)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// ParseFilter parses col=value. Facet columns take a comma-separated set,
// any other column a text value.
func (d Definition) ParseFilter(s string) (datatable.ColumnFilter, error) {
	id, value, ok := strings.Cut(s, "=")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return datatable.ColumnFilter{}, fmt.Errorf("invalid filter %q (use column=value)", s)
	}
	if _, known := d.Column(id); !known {
		return datatable.ColumnFilter{}, fmt.Errorf("unknown column %q", id)
	}

	if _, facet := d.Table.Facet(id); facet {
		var set []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				set = append(set, v)
			}
		}
		return datatable.ColumnFilter{ColumnID: id, Value: set}, nil
	}
	return datatable.ColumnFilter{ColumnID: id, Value: value}, nil
}
