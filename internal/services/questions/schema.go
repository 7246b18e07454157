package questions

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"precificador/internal/domain"
)

const snapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["results"],
  "properties": {
    "corpus": {
      "type": "object",
      "properties": {
        "documents": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "pages": {"type": "array", "items": {"type": "object"}}
            }
          }
        }
      }
    },
    "results": {
      "type": "object",
      "required": ["agents"],
      "properties": {
        "agents": {
          "type": "object",
          "additionalProperties": {"type": "object"}
        }
      }
    },
    "context": {"type": "object"}
  }
}`

var compiledSnapshotSchema = jsonschema.MustCompileString("snapshot.json", snapshotSchema)

// ValidateSnapshot checks the stored shape the extractors rely on.
func ValidateSnapshot(snap domain.Snapshot) error {
	if snap.Corpus == nil {
		snap.Corpus = map[string]any{}
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return ValidateSnapshotJSON(b)
}

// ValidateSnapshotJSON validates a raw snapshot document.
func ValidateSnapshotJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return domain.Malformed("snapshot is not valid JSON: %v", err)
	}
	if err := compiledSnapshotSchema.Validate(v); err != nil {
		return domain.Malformed("snapshot does not match schema: %s", strings.TrimSpace(err.Error()))
	}
	return nil
}
