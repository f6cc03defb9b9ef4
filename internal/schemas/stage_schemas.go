package schemas

import (
	"fmt"

	"github.com/postforge/postforge/internal/apperr"
)

// StageSchema names the embedded JSON Schema literal for one stage's
// structured LLM output. Schemas live as Go string constants rather
// than on-disk files (unlike ResolveSchemaPath's file-based lookup)
// because stage-output shapes are part of this codebase, not an
// operator-supplied asset.
var stageSchemas = map[string]string{
	"problem": problemSchema,
	"spec":    specSchema,
	"verify":  verifySchema,
}

// ValidateStage validates a stage's JSON output against its schema,
// returning *apperr.SchemaInvalid (never retried by retrypolicy) on
// mismatch.
func ValidateStage(stage, jsonContent string) error {
	schema, ok := stageSchemas[stage]
	if !ok {
		return fmt.Errorf("no schema registered for stage %q", stage)
	}
	if err := ValidateJSONString(schema, jsonContent); err != nil {
		return &apperr.SchemaInvalid{Stage: stage, Detail: err.Error()}
	}
	return nil
}

const problemSchema = `{
  "type": "object",
  "required": ["discard", "summary", "audience", "why_matters", "bad_solutions", "urgency", "quotes"],
  "properties": {
    "discard": {"type": "boolean"},
    "summary": {"type": "string", "minLength": 10},
    "audience": {"type": "string", "minLength": 3},
    "why_matters": {"type": "string", "minLength": 3},
    "bad_solutions": {"type": "array", "items": {"type": "string"}},
    "urgency": {"type": "number", "minimum": 0, "maximum": 100},
    "quotes": {"type": "array", "items": {"type": "string"}}
  }
}`

const specSchema = `{
  "type": "object",
  "required": ["build", "type", "title", "buyer", "job_to_be_done", "deliverables", "failure_reason", "price", "confidence"],
  "properties": {
    "build": {"type": "boolean"},
    "type": {"type": "string", "enum": ["guide", "template", "prompt_pack"]},
    "title": {"type": "string", "minLength": 3},
    "buyer": {"type": "string", "minLength": 3},
    "job_to_be_done": {"type": "string", "minLength": 3},
    "deliverables": {"type": "array", "items": {"type": "string"}},
    "failure_reason": {"type": "string"},
    "price": {"type": "number", "minimum": 0},
    "confidence": {"type": "number", "minimum": 0, "maximum": 100}
  }
}`

const verifySchema = `{
  "type": "object",
  "required": ["pass", "example_quality_score", "generic_language_detected", "missing_elements"],
  "properties": {
    "pass": {"type": "boolean"},
    "example_quality_score": {"type": "number", "minimum": 0, "maximum": 10},
    "generic_language_detected": {"type": "boolean"},
    "missing_elements": {"type": "array", "items": {"type": "string"}}
  }
}`
