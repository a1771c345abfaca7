package service

import (
	"encoding/json"
	"fmt"

	"github.com/mautops/deferral-gin/internal/review"
	"github.com/xeipuuv/gojsonschema"
)

// draftSchema 草稿载荷的 JSON Schema
const draftSchema = `{
  "type": "object",
  "required": ["checklistId", "draftData"],
  "properties": {
    "checklistId": {"type": "string", "minLength": 1},
    "draftData": {
      "type": "object",
      "required": ["documents"],
      "properties": {
        "creatorComment": {"type": "string", "maxLength": 2000},
        "documents": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["_id", "name"],
            "properties": {
              "_id": {"type": "string", "minLength": 1},
              "name": {"type": "string", "minLength": 1},
              "category": {"type": "string"},
              "status": {"type": "string", "maxLength": 32},
              "checkerStatus": {"type": "string", "maxLength": 32},
              "checkerComment": {"type": "string", "maxLength": 1000},
              "comment": {"type": "string", "maxLength": 1000}
            }
          }
        }
      }
    }
  }
}`

var draftSchemaLoader = gojsonschema.NewStringLoader(draftSchema)

// validateDraft 按 schema 校验草稿载荷
func validateDraft(payload review.DraftPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	result, err := gojsonschema.Validate(draftSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("draft validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		msgs[i] = desc.String()
	}
	return &review.ValidationError{Code: "invalid_draft", Messages: msgs}
}
