package datatable

// Option is one selectable value of a faceted filter
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// SearchKey is a column the free-text search can target
type SearchKey struct {
	Value string `json:"value" yaml:"value"` // column ID
	Label string `json:"label" yaml:"label"`
}

// FacetFilter binds a multi-select to one column
type FacetFilter struct {
	ColumnID string   `json:"columnId" yaml:"columnId"`
	Title    string   `json:"title" yaml:"title"`
	Options  []Option `json:"options" yaml:"options"`
}

// Config is the declarative toolbar configuration of a table
type Config struct {
	SearchKey  string        `json:"searchKey,omitempty" yaml:"searchKey,omitempty"`
	SearchKeys []SearchKey   `json:"searchKeys,omitempty" yaml:"searchKeys,omitempty"`
	Filters    []FacetFilter `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// SearchMode is how free text is applied
type SearchMode int

const (
	// SearchGlobal applies text to the global filter
	SearchGlobal SearchMode = iota
	// SearchSingleKey applies text to the SearchKey column
	SearchSingleKey
	// SearchMultiKey applies text to the selected SearchKeys column
	SearchMultiKey
)

func (m SearchMode) String() string {
	switch m {
	case SearchSingleKey:
		return "single-key"
	case SearchMultiKey:
		return "multi-key"
	default:
		return "global"
	}
}

// Mode derives the search mode; SearchKeys wins over SearchKey
func (c Config) Mode() SearchMode {
	switch {
	case len(c.SearchKeys) > 0:
		return SearchMultiKey
	case c.SearchKey != "":
		return SearchSingleKey
	default:
		return SearchGlobal
	}
}

// Facet returns the facet filter for columnID
func (c Config) Facet(columnID string) (FacetFilter, bool) {
	for _, f := range c.Filters {
		if f.ColumnID == columnID {
			return f, true
		}
	}
	return FacetFilter{}, false
}

// Label returns the option label for value, or value itself
func (f FacetFilter) Label(value string) string {
	for _, o := range f.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}
