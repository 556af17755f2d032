package ioformats

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"hiringscan-engine/internal/diff"
	"hiringscan-engine/internal/domain"
)

// Output file names inside the --out directory.
const (
	JobsJSONL   = "jobs.jsonl"
	JobsXLSX    = "jobs.xlsx"
	StatsXLSX   = "crawl_stats.xlsx"
	DiffXLSX    = "diff.xlsx"
	ErrorsJSONL = "errors.jsonl"
)

// WriteJSONL writes one JSON object per line. The file is replaced
// atomically.
func WriteJSONL[T any](path string, items []T) error {
	return writeAtomic(path, func(tmp string) error {
		f, err := os.Create(tmp)
		if err != nil {
			return err
		}
		w := bufio.NewWriter(f)
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, it := range items {
			if err := enc.Encode(it); err != nil {
				f.Close()
				return err
			}
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}

// WriteTable writes header and rows to a single-sheet workbook.
func WriteTable(path, sheet string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		if err := setRow(f, sheet, i+2, r); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return err
		}
	}

	return writeAtomic(path, func(tmp string) error {
		return f.SaveAs(tmp)
	})
}

func WriteJobsXLSX(path string, jobs []domain.JobPosting) error {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, j.Row())
	}
	return WriteTable(path, "jobs", domain.PostingColumns, rows)
}

func WriteStatsXLSX(path string, stats []domain.CrawlStats) error {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, s.Row())
	}
	return WriteTable(path, "crawl_stats", domain.StatsColumns, rows)
}

// WriteDiffXLSX writes only the postings classified as new.
func WriteDiffXLSX(path string, annotated []diff.Annotated) error {
	rows := [][]string{}
	for _, a := range annotated {
		if a.IsNew {
			rows = append(rows, a.Row())
		}
	}
	return WriteTable(path, "new_jobs", diff.AnnotatedColumns, rows)
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheet, cell, &row)
}

// writeAtomic lets write fill a temp file next to path, then renames it.
func writeAtomic(path string, write func(tmp string) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if filepath.Ext(path) == ".xlsx" {
		// excelize picks the format from the extension
		tmp = path[:len(path)-len(".xlsx")] + ".tmp.xlsx"
	}
	if err := write(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}
