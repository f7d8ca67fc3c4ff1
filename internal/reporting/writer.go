package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// Output file names written by WriteFiles.
const (
	MarkdownFile = "DEALS_REPORT.md"
	TopCSVFile   = "TOP_DEALS.csv"
	WorkbookFile = "DEALS.xlsx"
)

// WriteFiles renders the report into dir and returns the written paths.
func WriteFiles(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	topCSV, err := RenderCSV(r.Top)
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	workbook, err := RenderXLSX(r)
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}

	files := []struct {
		name    string
		content []byte
	}{
		{MarkdownFile, []byte(RenderMarkdown(r))},
		{TopCSVFile, []byte(topCSV)},
		{WorkbookFile, workbook},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.content, 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
