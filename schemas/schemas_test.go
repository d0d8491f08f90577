package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	schemaFiles := []string{
		LoanApplication,
		TrainRequest,
	}

	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := Read(schemaFile)
			require.NoError(t, err, "should be able to read embedded schema")

			var v interface{}
			err = json.Unmarshal(data, &v)
			assert.NoError(t, err, "schema file should be valid JSON: %s", schemaFile)
		})
	}
}

func TestSchemaFiles_DeclareRequiredApplicationFields(t *testing.T) {
	data, err := Read(LoanApplication)
	require.NoError(t, err)

	var schema struct {
		Required []string `json:"required"`
	}
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Contains(t, schema.Required, "loan_amount")
	assert.Contains(t, schema.Required, "term_days")
}
