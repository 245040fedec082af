package model

import (
	"bytes"
	"encoding/json"
)

// Company is one input record: the unit of batch processing.
type Company struct {
	Name    string `json:"name"`
	Website string `json:"website"`
}

// Facts holds the three heuristically extracted fields for one company.
// An empty string means the pattern did not match; absence of one field
// never blocks the others.
type Facts struct {
	FoundedInfo string `json:"founded_info,omitempty"`
	AboutUs     string `json:"about_us,omitempty"`
	Email       string `json:"email,omitempty"`
}

// EnrichmentSections lists the nine top-level keys of a 360 record in
// report column order.
var EnrichmentSections = []string{
	"company_overview",
	"business_model",
	"products_services",
	"operational_footprint",
	"ai_ml_opportunity_map",
	"leadership",
	"strategic_developments",
	"strategic_outlook",
	"executive_brief",
}

// Enrichment is the structured record produced by the LLM adapter.
// Sections are keyed by name; each value is either a JSON string or a
// nested structure kept as raw JSON and serialized compactly at report
// time. A nil *Enrichment means the adapter was unavailable or failed;
// the output row then carries only the extracted facts.
type Enrichment struct {
	Sections map[string]json.RawMessage `json:"sections"`
}

// Section returns the named section as display text: JSON strings are
// unquoted, nested structures are compacted, absent sections are "".
func (e *Enrichment) Section(name string) string {
	if e == nil {
		return ""
	}
	raw, ok := e.Sections[name]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		return buf.String()
	}
	return string(bytes.TrimSpace(raw))
}
