// Package models contains domain types for the SoF extractor backend.
package models

// Event is a single maritime event recognized in a Statement of Facts.
type Event struct {
	Event   string   `json:"event" msgpack:"event"`
	Details []string `json:"details" msgpack:"details"` // extracted entities, free text
}

// ExtractionResult holds the events extracted from one submitted file.
type ExtractionResult struct {
	Filename string  `json:"filename" msgpack:"filename"`
	Preview  string  `json:"preview,omitempty" msgpack:"preview,omitempty"`
	Events   []Event `json:"events" msgpack:"events"`
}

// ResultsEnvelope is the body returned by the extraction service.
type ResultsEnvelope struct {
	Results []ExtractionResult `json:"results"`
}

// EventCount returns the total number of events across all results.
func EventCount(results []ExtractionResult) int {
	n := 0
	for _, r := range results {
		n += len(r.Events)
	}
	return n
}
