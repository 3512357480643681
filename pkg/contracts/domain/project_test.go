package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseField(t *testing.T) {
	for _, f := range FilterableFields {
		got, ok := ParseField(string(f))
		assert.True(t, ok)
		assert.Equal(t, f, got)
	}

	_, ok := ParseField("planned_end")
	assert.False(t, ok)
	_, ok = ParseField("")
	assert.False(t, ok)
}

func TestProjectValue(t *testing.T) {
	status := "Live"
	owner := "Finance"
	p := Project{CurrentStatus: &status, BusinessOwner: &owner}

	assert.Equal(t, &status, p.Value(FieldStatus))
	assert.Equal(t, &owner, p.Value(FieldOwner))
	assert.Nil(t, p.Value(FieldManager))
	assert.Nil(t, p.Value(Field("planned_end")))
}

func TestSelectionsConstrains(t *testing.T) {
	sel := Selections{
		FieldStatus:  {"Live"},
		FieldManager: {},
	}

	assert.True(t, sel.Constrains(FieldStatus))
	assert.False(t, sel.Constrains(FieldManager))
	assert.False(t, sel.Constrains(FieldVendor))
}
