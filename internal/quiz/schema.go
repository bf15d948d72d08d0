package quiz

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// bankSchema describes a question-bank file: an array of records in the
// format the PDF ingester emits. Unknown keys are allowed so banks can
// carry extra annotations without breaking the loader.
var bankSchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"題別": map[string]any{"type": "string"},
			"題號": map[string]any{"type": "string"},
			"題目": map[string]any{"type": "string"},
			"選項": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"答案": map[string]any{"type": "string"},
			"出處": map[string]any{"type": "string"},
			"圖片": map[string]any{"type": "string"},
		},
		"required": []any{"題號", "題目", "選項", "答案"},
	},
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// validateBank checks raw bank JSON against the bank schema.
func validateBank(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://question-bank.json", bankSchema); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("schema://question-bank.json")
	})
	if compileErr != nil {
		return fmt.Errorf("compile bank schema: %w", compileErr)
	}

	if err := compiledSchema.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
