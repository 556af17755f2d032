package ioformats

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"hiringscan-engine/internal/domain"
)

// ReadJobsJSONL loads postings written by WriteJSONL. Blank lines are
// skipped; a malformed line fails the read with its line number.
func ReadJobsJSONL(path string) ([]domain.JobPosting, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []domain.JobPosting
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var j domain.JobPosting
		if err := json.Unmarshal([]byte(line), &j); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, n, err)
		}
		out = append(out, j)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
