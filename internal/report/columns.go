// Package report reads the company input file and writes the output
// workbook. The output schema is fixed: every row carries every column
// regardless of which lookups succeeded.
package report

import "github.com/sells-group/intel-crawler/internal/model"

// Columns is the output schema, in order. It never varies per row or
// per run.
var Columns = []string{
	"Company Name",
	"Website",
	"Founded Info",
	"About Us",
	"company_overview",
	"business_model",
	"products_services",
	"operational_footprint",
	"ai_ml_opportunity_map",
	"leadership",
	"strategic_developments",
	"strategic_outlook",
	"executive_brief",
	"Email",
}

// BuildRow flattens one company's results into the output schema.
// Missing facts and sections become empty cells, never omitted cells.
func BuildRow(company model.Company, facts model.Facts, enrichment *model.Enrichment) []string {
	row := make([]string, 0, len(Columns))
	row = append(row,
		company.Name,
		company.Website,
		facts.FoundedInfo,
		facts.AboutUs,
	)
	for _, section := range model.EnrichmentSections {
		row = append(row, enrichment.Section(section))
	}
	return append(row, facts.Email)
}
