package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/intel-crawler/internal/model"
)

// ReadCompanies loads the batch input from an XLSX or CSV file. The
// header row must contain company_name and website columns; matching is
// case-insensitive and ignores surrounding whitespace. Rows with an
// empty company name are skipped.
func ReadCompanies(path string) ([]model.Company, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSXRows(path)
	case ".csv":
		rows, err = readCSVRows(path)
	default:
		return nil, eris.Errorf("report: unsupported input format %q (want .xlsx or .csv)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.New("report: input file is empty")
	}

	nameIdx, siteIdx := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "company_name":
			nameIdx = i
		case "website":
			siteIdx = i
		}
	}
	if nameIdx < 0 || siteIdx < 0 {
		return nil, eris.New("report: input must have company_name and website columns")
	}

	var companies []model.Company
	for _, row := range rows[1:] {
		c := model.Company{
			Name:    cellAt(row, nameIdx),
			Website: cellAt(row, siteIdx),
		}
		if c.Name == "" {
			continue
		}
		companies = append(companies, c)
	}
	if len(companies) == 0 {
		return nil, eris.New("report: input has no company rows")
	}
	return companies, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "report: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("report: xlsx has no sheets")
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "report: open csv")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "report: read csv")
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
