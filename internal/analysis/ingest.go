package analysis

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/khrees2412/careerflow/internal/apperr"
	"github.com/khrees2412/careerflow/pkg/models"
)

// payloadSchema is the minimum shape an analysis must have before an
// application is created from it.
const payloadSchema = `{
  "type": "object",
  "required": ["matching_score"],
  "properties": {
    "personal_info": {"type": ["object", "null"]},
    "matching_score": {
      "type": "object",
      "required": ["percentage"],
      "properties": {"percentage": {"type": ["number", "string"]}}
    },
    "requirements_breakdown": {"type": ["object", "null"]},
    "matched_keywords": {"type": ["array", "null"], "items": {"type": "string"}},
    "radar_chart": {"type": ["object", "null"], "additionalProperties": {"type": "number"}},
    "bilingual_content": {"type": ["object", "null"]}
  }
}`

var schema = mustSchema(payloadSchema)

func mustSchema(s string) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("analysis: invalid payload schema: %v", err))
	}
	return compiled
}

// Ingest turns an analysis payload into a structured result. Whatever form
// the payload arrived in, it is checked against the same schema, so a string
// and an object carrying the same document give the same result.
func Ingest(p models.Payload) (models.AnalysisResult, error) {
	const op = "analyze"

	doc, err := p.Document()
	if err != nil {
		return models.AnalysisResult{}, &apperr.ParseError{Op: op, Cause: err}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return models.AnalysisResult{}, &apperr.ParseError{Op: op, Cause: fmt.Errorf("payload is not JSON: %w", err)}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			problems = append(problems, field+": "+desc.Description())
		}
		return models.AnalysisResult{}, &apperr.ParseError{
			Op:    op,
			Cause: fmt.Errorf("payload does not match the analysis shape: %s", strings.Join(problems, "; ")),
		}
	}

	parsed, err := p.Resolve()
	if err != nil {
		return models.AnalysisResult{}, &apperr.ParseError{Op: op, Cause: err}
	}
	return parsed, nil
}
