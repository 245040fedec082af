// Package enrich generates a structured company intelligence report from
// crawled text. Enrichment is strictly best effort: a missing API key,
// a failed call, or malformed output all degrade to the regex facts.
package enrich

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/intel-crawler/internal/model"
	"github.com/sells-group/intel-crawler/pkg/anthropic"
)

const systemPrompt = "You are a senior business analyst, market intelligence expert, and " +
	"AI strategy consultant. You generate concise, structured company " +
	"intelligence reports from limited web data."

const userPromptTemplate = `Company Name: <<COMPANY_NAME>>
Company Website: <<COMPANY_WEBSITE>>
Source Data (About Us and related content):
<<ABOUT_TEXT>>

You are an enterprise intelligence analyst.

Your task is to generate a structured 360-degree company intelligence report strictly in JSON format.

CRITICAL RULES:
- Return strictly valid JSON.
- Do NOT include markdown or explanations.
- All fields must be present exactly as defined.
- If information is explicitly stated in the source, use it.
- If not explicitly stated but can be reasonably inferred based on industry norms, business model patterns, or company type, provide a clearly reasoned inference.
- Only return null when no reasonable inference can be made.
- Do NOT fabricate specific executive names, funding amounts, acquisition details, or dated events.
- Strategic analysis and AI opportunity mapping may include expert inference.

Return a single JSON object with the following structure:

{
  "company_overview": {
    "summary":"string",
    "mission_positioning":"string",
    "target_customers_industries":"string",
    "geographic_presence":"string",
    "growth_stage":"string"
  },
  "business_model": {
    "core_model":"string",
    "monetization_strategy":"string",
    "pricing_model":"string",
    "revenue_streams_primary":"string",
    "revenue_streams_secondary":"string",
    "distribution_channels":"string",
    "key_cost_drivers":"string"
  },
  "products_services": {
    "core_offerings":"string",
    "supporting_services":"string",
    "technology_infrastructure":"string",
    "technology_data_layer":"string",
    "technology_ai_ml":"string",
    "technology_security":"string",
    "competitive_advantages":"string",
    "ecosystem_integrations":"string"
  },
  "operational_footprint": {
    "key_operational_areas":"string",
    "supply_chain_characteristics":"string",
    "partnerships_alliances":"string",
    "regulatory_environment":"string"
  },
  "ai_ml_opportunity_map": {
    "customer_experience":"string",
    "sales_marketing":"string",
    "operations":"string",
    "supply_chain":"string",
    "finance":"string",
    "risk_compliance":"string",
    "product_innovation":"string",
    "executive_decision_intelligence":"string"
  },
  "leadership": {
    "executives":"string"
  },
  "strategic_developments": {
    "recent_news":"string",
    "partnerships": null,
    "acquisitions":"string",
    "funding": null,
    "product_launches": null,
    "strategic_initiatives":"string",
    "market_expansion": null,
    "regulatory_developments": null
  },
  "strategic_outlook": {
    "near_term_priorities":"string",
    "key_risks":"string",
    "growth_opportunities":"string",
    "ai_transformation_readiness":"string",
    "overall_assessment":"string"
  },
  "executive_brief":"string"
}`

// Enricher calls the model once per company and parses the report.
type Enricher struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates an Enricher. A nil client produces a disabled Enricher
// whose Enrich always returns nil.
func New(client anthropic.Client, modelID string, maxTokens int64) *Enricher {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Enricher{client: client, model: modelID, maxTokens: maxTokens}
}

// Enabled reports whether a backing client is configured.
func (e *Enricher) Enabled() bool {
	return e != nil && e.client != nil
}

// Enrich generates the intelligence report for one company. Returns
// (nil, nil) when disabled; any failure is returned for the caller to
// log as a diagnostic, never to abort the batch.
func (e *Enricher) Enrich(ctx context.Context, company model.Company, aboutText string) (*model.Enrichment, error) {
	if !e.Enabled() {
		return nil, nil
	}

	prompt := strings.NewReplacer(
		"<<COMPANY_NAME>>", company.Name,
		"<<COMPANY_WEBSITE>>", company.Website,
		"<<ABOUT_TEXT>>", aboutText,
	).Replace(userPromptTemplate)

	temp := 0.2
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		System:      []anthropic.SystemBlock{{Text: systemPrompt}},
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "enrich: create message")
	}
	resp.Usage.LogCost(e.model, "enrich")

	enrichment, err := parseReport(resp.Text())
	if err != nil {
		return nil, err
	}

	zap.L().Debug("enrich: report generated",
		zap.String("company", company.Name),
		zap.Int("sections", len(enrichment.Sections)),
	)
	return enrichment, nil
}

// parseReport decodes the model output into named sections. Markdown
// fences are stripped first since models add them despite instructions.
func parseReport(raw string) (*model.Enrichment, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, eris.New("enrich: empty model output")
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &sections); err != nil {
		return nil, eris.Wrap(err, "enrich: parse report JSON")
	}
	if len(sections) == 0 {
		return nil, eris.New("enrich: report has no sections")
	}
	return &model.Enrichment{Sections: sections}, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
