package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/utkarshchauhan26/CivicConnect/core"
)

// Column names required in the dataset header.
const (
	ColumnAge             = "age"
	ColumnAnnualIncome    = "annual_income"
	ColumnCategory        = "category"
	ColumnState           = "state"
	ColumnIsBPL           = "is_bpl"
	ColumnEligibleSchemes = "eligible_schemes"
)

var requiredColumns = []string{
	ColumnAge,
	ColumnAnnualIncome,
	ColumnCategory,
	ColumnState,
	ColumnIsBPL,
	ColumnEligibleSchemes,
}

// Dataset is a parsed source file.
type Dataset struct {
	Path    string
	Digest  string // BLAKE2b-256 of the raw file bytes
	Records []core.SchemeRecord
}

// Load reads and parses the dataset at path.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", core.ErrData, filepath.Base(path), err)
	}

	records, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return &Dataset{
		Path:    path,
		Digest:  core.ContentDigest(data),
		Records: records,
	}, nil
}

// Read parses dataset rows from r.
func Read(r io.Reader) ([]core.SchemeRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", core.ErrData)
		}
		return nil, fmt.Errorf("%w: read header: %w", core.ErrData, err)
	}

	columns, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var records []core.SchemeRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read row %d: %w", core.ErrData, len(records)+2, err)
		}
		if isBlankRow(row) {
			continue
		}
		records = append(records, parseRow(row, columns))
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no data rows", core.ErrData)
	}
	return records, nil
}

// SchemeNames returns the canonical scheme list: every distinct scheme
// name found in records, sorted ascending.
func SchemeNames(records []core.SchemeRecord) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, rec := range records {
		for _, name := range rec.Schemes {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func resolveColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		if _, exists := columns[name]; !exists {
			columns[name] = i
		}
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", core.ErrData, required)
		}
	}
	return columns, nil
}

func parseRow(row []string, columns map[string]int) core.SchemeRecord {
	cell := func(name string) string {
		idx := columns[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := core.SchemeRecord{
		Category: NormalizeName(cell(ColumnCategory)),
		State:    NormalizeName(cell(ColumnState)),
		IsBPL:    parseBool(cell(ColumnIsBPL)),
		Schemes:  SplitSchemes(cell(ColumnEligibleSchemes)),
	}
	if v, ok := parseWhole(cell(ColumnAge)); ok {
		age := int(v)
		rec.Age = &age
	}
	if v, ok := parseWhole(cell(ColumnAnnualIncome)); ok {
		rec.AnnualIncome = &v
	}
	return rec
}

// parseWhole accepts integers and decimals, truncating toward zero.
func parseWhole(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "t", "1", "1.0", "yes", "y":
		return true
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
