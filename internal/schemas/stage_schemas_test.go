package schemas

import (
	"testing"

	"github.com/postforge/postforge/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStage_Problem_Valid(t *testing.T) {
	err := ValidateStage("problem", `{"discard":false,"summary":"people waste time on X","audience":"freelancers","why_matters":"costs them billable hours","bad_solutions":["spreadsheets"],"urgency":70,"quotes":["I hate doing this by hand"]}`)
	assert.NoError(t, err)
}

func TestValidateStage_Problem_MissingField(t *testing.T) {
	err := ValidateStage("problem", `{"summary":"x","audience":"freelancers"}`)
	require.Error(t, err)
	var schemaErr *apperr.SchemaInvalid
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "problem", schemaErr.Stage)
}

func TestValidateStage_Spec_Valid(t *testing.T) {
	err := ValidateStage("spec", `{"build":true,"type":"guide","title":"Invoice Kit","buyer":"freelancers","job_to_be_done":"stop reformatting invoices","deliverables":["a","b","c"],"failure_reason":"","price":19.0,"confidence":80}`)
	assert.NoError(t, err)
}

func TestValidateStage_Spec_MissingField(t *testing.T) {
	err := ValidateStage("spec", `{"build":true}`)
	require.Error(t, err)
	var schemaErr *apperr.SchemaInvalid
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "spec", schemaErr.Stage)
}

func TestValidateStage_Verify_OutOfRangeScore(t *testing.T) {
	err := ValidateStage("verify", `{"pass":true,"example_quality_score":11,"generic_language_detected":false,"missing_elements":[]}`)
	require.Error(t, err)
}

func TestValidateStage_UnknownStage(t *testing.T) {
	err := ValidateStage("nope", `{}`)
	require.Error(t, err)
}
