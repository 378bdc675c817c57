package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetFilterResetsPage(t *testing.T) {
	c := NewComposer(20)
	c.SetFilter("page", "4")
	assert.Equal(t, 4, c.Page())

	c.SetFilter("status", "active")
	assert.Equal(t, 1, c.Page())

	// pure page navigation does not reset
	c.SetFilter("page", "3")
	c.SetFilter("page", "5")
	assert.Equal(t, 5, c.Page())

	// clearing a filter is still a filter change
	c.SetFilter("status", "")
	assert.Equal(t, 1, c.Page())
}

func TestSetFilterRemovesEmptyValues(t *testing.T) {
	c := NewComposer(20)
	c.SetFilter("city", "Jakarta")
	c.SetFilter("severity", "high")
	c.SetFilter("city", "")

	q := c.ToQuery()
	assert.Equal(t, map[string]string{"severity": "high"}, q.Filters)
}

func TestCombineSearchFields(t *testing.T) {
	assert.Equal(t, "a b", CombineSearchFields("a", "", "b"))
	assert.Equal(t, "", CombineSearchFields("", "", ""))
	assert.Equal(t, "john 0812", CombineSearchFields("  john ", "0812"))
}

func TestSetSearchFieldsOmitsEmptySearch(t *testing.T) {
	c := NewComposer(20)
	c.SetSearchFields("john", "", "0812")
	assert.Equal(t, "john 0812", c.ToQuery().Filters["search"])

	// all-empty inputs remove the filter rather than sending search=""
	c.SetSearchFields("", "", "")
	_, present := c.ToQuery().Filters["search"]
	assert.False(t, present)
}

func TestToQuerySnapshotsState(t *testing.T) {
	c := NewComposer(25)
	c.SetFilter("status", "assigned")
	c.SetFilter("page", "2")

	q := c.ToQuery()
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 25, q.PerPage)

	// mutating the snapshot does not touch the composer
	q.Filters["status"] = "cancelled"
	assert.Equal(t, "assigned", c.ToQuery().Filters["status"])
}

func TestInvalidPageValuesIgnored(t *testing.T) {
	c := NewComposer(20)
	c.SetFilter("page", "abc")
	c.SetFilter("page", "0")
	c.SetFilter("page", "-2")
	assert.Equal(t, 1, c.Page())

	c.SetFilter("per_page", "50")
	assert.Equal(t, 50, c.ToQuery().PerPage)
}
