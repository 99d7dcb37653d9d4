package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/gearbox/internal/sim"
)

// ReadTrace parses a two-column CSV of time and measured frequency. A
// leading header row is skipped when its first field is not a number, and
// lines starting with # are comments.
func ReadTrace(r io.Reader) ([]sim.Measurement, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	trace := make([]sim.Measurement, 0, len(records))
	for i, record := range records {
		if len(record) < 2 {
			return nil, fmt.Errorf("trace line %d: expected time,value", i+1)
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("trace line %d: %w", i+1, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: %w", i+1, err)
		}
		trace = append(trace, sim.Measurement{Time: t, Value: v})
	}

	return trace, nil
}

func LoadTrace(path string) ([]sim.Measurement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadTrace(f)
}
