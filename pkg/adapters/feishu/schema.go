package feishu

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// metadataSchema describes the JSON held by a document's first code block.
const metadataSchema = `{
  "type": "object",
  "required": ["id"],
  "properties": {
    "id":         {"type": "string", "minLength": 1},
    "tags":       {"type": "array", "items": {"type": "string"}},
    "created_at": {"type": "string"},
    "origin":     {"type": "string"}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

// validateMetadata checks raw against metadataSchema. A block that fails is
// treated as body content.
func validateMetadata(raw string) error {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(metadataSchema))
	})
	if schemaErr != nil {
		return fmt.Errorf("compile metadata schema: %w", schemaErr)
	}

	result, err := compiledSchema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("validate metadata: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("metadata schema: %s", strings.Join(msgs, "; "))
}
