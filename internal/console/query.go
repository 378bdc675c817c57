package console

import (
	"strconv"
	"strings"
)

// FilterPage is the reserved filter name carrying the page number.
// Changing any other filter resets the page to 1.
const FilterPage = "page"

// FilterPerPage is the reserved filter name carrying the page size.
const FilterPerPage = "per_page"

// Query is a snapshot of the filter state sent to the gateway.
type Query struct {
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
	Filters map[string]string `json:"filters"`
}

// Composer deterministically turns independently edited inputs into a Query.
type Composer struct {
	page    int
	perPage int
	filters map[string]string
}

// NewComposer builds a composer starting at page 1 with the given page size.
func NewComposer(perPage int) *Composer {
	if perPage <= 0 {
		perPage = 20
	}
	return &Composer{page: 1, perPage: perPage, filters: make(map[string]string)}
}

// SetFilter stores a filter value. An empty value removes the filter so the
// server treats absence as "no constraint". Setting anything other than the
// page number resets pagination back to the first page.
func (c *Composer) SetFilter(name, value string) {
	name = strings.TrimSpace(name)
	switch name {
	case "":
		return
	case FilterPage:
		if page, err := strconv.Atoi(value); err == nil && page >= 1 {
			c.page = page
		}
		return
	case FilterPerPage:
		if size, err := strconv.Atoi(value); err == nil && size > 0 {
			c.perPage = size
			c.page = 1
		}
		return
	}

	if value == "" {
		delete(c.filters, name)
	} else {
		c.filters[name] = value
	}
	c.page = 1
}

// SetSearchFields joins the free-text search inputs into the single opaque
// "search" filter. The join is lossy on purpose: the server matches the
// combined string, not individual fields.
func (c *Composer) SetSearchFields(fields ...string) {
	c.SetFilter("search", CombineSearchFields(fields...))
}

// CombineSearchFields joins all non-empty fields with a single space.
func CombineSearchFields(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

// Page returns the current page number.
func (c *Composer) Page() int { return c.page }

// ToQuery snapshots the current filter state plus pagination.
func (c *Composer) ToQuery() Query {
	filters := make(map[string]string, len(c.filters))
	for name, value := range c.filters {
		filters[name] = value
	}
	return Query{Page: c.page, PerPage: c.perPage, Filters: filters}
}
