package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SourceOpenFoodFacts tags raw records fetched from Open Food Facts
const SourceOpenFoodFacts = "openfoodfacts"

// RawPayload is one product record exactly as received from the source.
// Values are whatever JSON decoding produced: strings, float64, bool, nil,
// []any and nested map[string]any.
type RawPayload map[string]any

// RawRecord is a stored raw payload together with its collection metadata
type RawRecord struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
	Hash      string          `json:"raw_hash"`
	Payload   json.RawMessage `json:"payload"`
}

// DecodePayload parses the stored payload. The payload must be a JSON object.
func (r RawRecord) DecodePayload() (RawPayload, error) {
	var payload RawPayload
	if err := json.Unmarshal(r.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: raw %s payload: %v", ErrInvalidRecord, r.ID, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: raw %s payload is not an object", ErrInvalidRecord, r.ID)
	}
	return payload, nil
}

// Nutrient is a per-100g value with its unit
type Nutrient struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// EnrichedRecord is the normalized, scored form of one raw payload.
// It is the input contract of the load stage.
type EnrichedRecord struct {
	ProductName       string              `json:"product_name"`
	Brand             string              `json:"brand"`
	Categories        []string            `json:"categories"`
	Countries         []string            `json:"countries"`
	NutriscoreGrade   string              `json:"nutriscore_grade"`
	NutriscoreScore   int                 `json:"nutriscore_score"`
	Nutrients         map[string]Nutrient `json:"nutrients"`
	DetectedAllergens []string            `json:"detected_allergens"`
	QualityScore      int                 `json:"quality_score"`
	HasImage          bool                `json:"has_image"`
	ImageURL          string              `json:"image_url"`
	Barcode           string              `json:"barcode"`
}

// OutcomeStatus is the result of enriching one raw record
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the enrichment result stored per raw id. Data is set on
// success, Error on failure.
type Outcome struct {
	RawID      string          `json:"raw_id"`
	Status     OutcomeStatus   `json:"status"`
	EnrichedAt time.Time       `json:"enriched_at"`
	Data       *EnrichedRecord `json:"data"`
	Error      *string         `json:"error"`
}

// NewSuccessOutcome builds a success outcome for rawID
func NewSuccessOutcome(rawID string, data EnrichedRecord, at time.Time) Outcome {
	return Outcome{RawID: rawID, Status: OutcomeSuccess, EnrichedAt: at.UTC(), Data: &data}
}

// NewFailedOutcome builds a failed outcome for rawID
func NewFailedOutcome(rawID string, errText string, at time.Time) Outcome {
	return Outcome{RawID: rawID, Status: OutcomeFailed, EnrichedAt: at.UTC(), Error: &errText}
}

// EnrichStats counts the results of one batch enrichment run
type EnrichStats struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// OutcomeStats summarizes the outcome store
type OutcomeStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// CollectStats counts the results of one collection run
type CollectStats struct {
	Collected  int `json:"collected"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// LoadStats counts the results of one load run
type LoadStats struct {
	Transferred int `json:"transferred"`
	Skipped     int `json:"skipped"`
	Errors      int `json:"errors"`
}
