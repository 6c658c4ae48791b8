// internal/engine/selector/selector.go

// Package selector decides which catalog operations answer a question. The
// service-backed implementation asks an LLM via tool calling; the rule-based
// implementation derives the calls from the classifier hint alone.
package selector

import (
	"context"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/vviyott/recall-engine/internal/common/errors"
	"github.com/vviyott/recall-engine/internal/models"
)

// Decision is the selector's verdict: either one or more operation calls, or
// a direct answer when no operation fits.
type Decision struct {
	Calls        []models.ToolCall
	DirectAnswer string
}

// Selector picks the operations for a question.
type Selector interface {
	Select(ctx context.Context, question string, h models.Hint, history []models.ChatTurn) (*Decision, error)
}

// Argument schemas, one per operation, used both as the tool definitions sent
// to the decision service and to validate what comes back.
var operationSchemas = map[models.Operation]string{
	models.OpCount: `{
		"type": "object",
		"description": "Count recall records matching the filters.",
		"properties": {
			"company": {"type": "string"},
			"brand": {"type": "string"},
			"product_type": {"type": "string"},
			"recall_reason": {"type": "string"},
			"recall_reason_detail": {"type": "string"},
			"year": {"type": "string"},
			"keyword": {"type": "string"}
		}
	}`,
	models.OpRank: `{
		"type": "object",
		"description": "Rank the most frequent values of one field.",
		"properties": {
			"field": {"type": "string"},
			"limit": {"type": "integer", "minimum": 1},
			"company": {"type": "string"},
			"brand": {"type": "string"},
			"product_type": {"type": "string"},
			"year": {"type": "string"},
			"keyword": {"type": "string"}
		},
		"required": ["field"]
	}`,
	models.OpTrend: `{
		"type": "object",
		"description": "Monthly recall counts over the most recent months.",
		"properties": {
			"months": {"type": "integer", "minimum": 1},
			"product_type": {"type": "string"},
			"company": {"type": "string"},
			"brand": {"type": "string"},
			"recall_reason": {"type": "string"},
			"keyword": {"type": "string"},
			"date_field": {"type": "string", "enum": ["fda", "fda_publish", "company", "company_announcement"]}
		}
	}`,
	models.OpCompare: `{
		"type": "object",
		"description": "Compare one metric between two periods (YYYY, YYYY-MM or relative words).",
		"properties": {
			"period1": {"type": "string"},
			"period2": {"type": "string"},
			"metric": {"type": "string", "enum": ["count", "companies", "brands", "product_types"]},
			"include_reasons": {"type": "boolean"},
			"product_type": {"type": "string"},
			"company": {"type": "string"},
			"brand": {"type": "string"},
			"keyword": {"type": "string"},
			"date_field": {"type": "string", "enum": ["fda", "fda_publish", "company", "company_announcement"]}
		},
		"required": ["period1", "period2"]
	}`,
	models.OpSearch: `{
		"type": "object",
		"description": "Semantic search over the recall notices.",
		"properties": {
			"query": {"type": "string"},
			"limit": {"type": "integer", "minimum": 1}
		},
		"required": ["query"]
	}`,
	models.OpExclude: `{
		"type": "object",
		"description": "List recalls matching the include terms while dropping the exclude terms.",
		"properties": {
			"include_terms": {"type": "array", "items": {"type": "string"}},
			"exclude_terms": {"type": "array", "items": {"type": "string"}},
			"limit": {"type": "integer", "minimum": 1}
		},
		"required": ["exclude_terms"]
	}`,
}

// ValidateArgs checks a tool call's arguments against the operation schema.
func ValidateArgs(call models.ToolCall) error {
	schema, ok := operationSchemas[call.Operation]
	if !ok {
		return errors.NewUnknownOperationError(string(call.Operation))
	}

	args := call.Args
	if args == nil {
		args = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return errors.NewInvalidArgumentsError(string(call.Operation), err.Error())
	}
	if !result.Valid() {
		details := ""
		for _, desc := range result.Errors() {
			if details != "" {
				details += "; "
			}
			details += desc.String()
		}
		return errors.NewInvalidArgumentsError(string(call.Operation), details)
	}
	return nil
}

// SchemaFor returns the raw JSON schema of an operation.
func SchemaFor(op models.Operation) (string, error) {
	schema, ok := operationSchemas[op]
	if !ok {
		return "", fmt.Errorf("no schema for operation %q", op)
	}
	return schema, nil
}
