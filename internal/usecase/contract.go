package usecase

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/foodlens/backend/internal/domain"
)

//go:embed schema/enriched_record.json
var enrichedRecordSchema []byte

const enrichedRecordSchemaURL = "enriched_record.json"

// RecordContract validates enriched records before they are loaded
type RecordContract struct {
	schema *jsonschema.Schema
}

// NewRecordContract compiles the enriched record schema
func NewRecordContract() (*RecordContract, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(enrichedRecordSchemaURL, bytes.NewReader(enrichedRecordSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(enrichedRecordSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &RecordContract{schema: schema}, nil
}

// Validate checks rec against the schema as it would be serialized
func (c *RecordContract) Validate(rec *domain.EnrichedRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: missing enriched data", domain.ErrInvalidRecord)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: marshal enriched record: %v", domain.ErrInvalidRecord, err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: unmarshal enriched record: %v", domain.ErrInvalidRecord, err)
	}
	if err := c.schema.Validate(v); err != nil {
		return fmt.Errorf("%w: enriched record does not match schema: %v", domain.ErrInvalidRecord, err)
	}
	return nil
}
