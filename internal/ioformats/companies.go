// Package ioformats reads company lists and writes the run's output tables.
package ioformats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"hiringscan-engine/internal/domain"
)

// Header aliases, matched case-insensitively after trimming.
var (
	businessIDHeaders = []string{"business_id", "y_tunnus", "y-tunnus", "businessid"}
	nameHeaders       = []string{"name", "company", "company_name", "nimi"}
	domainHeaders     = []string{"domain", "website", "url", "www"}
)

// ReadCompanies loads a company list from .csv or .xlsx (first sheet). The
// first row is the header; a business id or name column is required, the
// domain column is optional.
func ReadCompanies(path string) ([]domain.Company, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	header := rows[0]
	idCol := findColumn(header, businessIDHeaders)
	nameCol := findColumn(header, nameHeaders)
	domainCol := findColumn(header, domainHeaders)
	if idCol < 0 && nameCol < 0 {
		return nil, fmt.Errorf("%s: header needs a business_id or name column", path)
	}

	out := make([]domain.Company, 0, len(rows)-1)
	for _, row := range rows[1:] {
		c := domain.Company{
			BusinessID: cell(row, idCol),
			Name:       cell(row, nameCol),
			Domain:     cell(row, domainCol),
		}
		if c.BusinessID == "" && c.Name == "" && c.Domain == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// ReadDomainMap loads business_id -> domain overrides from a two-column
// .csv or .xlsx file. Rows with a blank id or domain are ignored.
func ReadDomainMap(path string) (map[string]string, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	if len(rows) == 0 {
		return out, nil
	}

	idCol := findColumn(rows[0], businessIDHeaders)
	domainCol := findColumn(rows[0], domainHeaders)
	if idCol < 0 || domainCol < 0 {
		return nil, fmt.Errorf("%s: header needs business_id and domain columns", path)
	}
	for _, row := range rows[1:] {
		id, d := cell(row, idCol), cell(row, domainCol)
		if id == "" || d == "" {
			continue
		}
		out[id] = d
	}
	return out, nil
}

func readRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	case ".csv", ".txt":
		return readCSV(path)
	default:
		return nil, fmt.Errorf("%s: unsupported input format", path)
	}
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, a := range aliases {
			if h == a {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
