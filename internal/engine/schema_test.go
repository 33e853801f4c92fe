package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_Validate_SortableOnlyOnNumber(t *testing.T) {
	bad := Schema{"title": {Type: FieldString, Sortable: true}}
	assert.Error(t, bad.Validate())

	good := Schema{"price": {Type: FieldNumber, Sortable: true}}
	assert.NoError(t, good.Validate())
}

func TestSchema_Validate_RejectsUnknownType(t *testing.T) {
	bad := Schema{"x": {Type: "date"}}
	assert.Error(t, bad.Validate())
}

func TestStringFieldsInOrder_IsLexicographic(t *testing.T) {
	schema := Schema{
		"zeta":  {Type: FieldString},
		"alpha": {Type: FieldString},
		"price": {Type: FieldNumber},
	}
	assert.Equal(t, []string{"alpha", "zeta"}, stringFieldsInOrder(schema))
}
