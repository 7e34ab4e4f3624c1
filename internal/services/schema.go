package services

import (
	"encoding/json"
	"fmt"
	"os"
)

// SchemaLoader holds the raw profile JSON schema. The schema is an opaque
// contract here: it is embedded into the extraction prompt verbatim, never
// interpreted structurally.
type SchemaLoader interface {
	SchemaDocument() string
}

type schemaLoader struct {
	raw string
}

func NewSchemaLoader(path string) (SchemaLoader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	var probe interface{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("schema file %s is not valid JSON: %w", path, err)
	}

	return &schemaLoader{raw: string(data)}, nil
}

func (s *schemaLoader) SchemaDocument() string {
	return s.raw
}
