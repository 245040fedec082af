package report

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// Sink appends finished rows to the output. Each append is durable
// before the next company starts.
type Sink interface {
	Append(row []string) error
	Path() string
}

// XLSXSink writes the output workbook, saving after every row so a
// partial batch still leaves a readable file on disk.
type XLSXSink struct {
	path  string
	file  *xlsx.File
	sheet *xlsx.Sheet
}

// NewXLSXSink opens or creates the output workbook. An existing file is
// appended to; a fresh one gets the header row first.
func NewXLSXSink(path, sheetName string) (*XLSXSink, error) {
	if sheetName == "" {
		sheetName = "Results"
	}

	if _, err := os.Stat(path); err == nil {
		f, err := xlsx.OpenFile(path)
		if err != nil {
			return nil, eris.Wrap(err, "report: open existing output")
		}
		sheet, ok := f.Sheet[sheetName]
		if !ok {
			if len(f.Sheets) == 0 {
				return nil, eris.New("report: existing output has no sheets")
			}
			sheet = f.Sheets[0]
		}
		zap.L().Info("report: appending to existing output",
			zap.String("path", path),
			zap.Int("rows", len(sheet.Rows)),
		)
		return &XLSXSink{path: path, file: f, sheet: sheet}, nil
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return nil, eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().Value = col
	}
	if err := f.Save(path); err != nil {
		return nil, eris.Wrap(err, "report: save new output")
	}
	return &XLSXSink{path: path, file: f, sheet: sheet}, nil
}

// Append adds one row and saves the workbook immediately.
func (s *XLSXSink) Append(row []string) error {
	r := s.sheet.AddRow()
	for _, v := range row {
		r.AddCell().Value = v
	}
	if err := s.file.Save(s.path); err != nil {
		return eris.Wrap(err, "report: save output")
	}
	return nil
}

// Path returns the workbook location for the download endpoint.
func (s *XLSXSink) Path() string {
	return s.path
}
