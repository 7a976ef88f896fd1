package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/corrkit/corrkit/pkg/config"
)

// defaultColumns fills unset column names with their conventional headers.
// weight_z and weight_noz fall back to the full weight column when the
// catalog does not carry them separately.
func defaultColumns(cols config.ColumnMapConfig) config.ColumnMapConfig {
	if cols.RA == "" {
		cols.RA = "ra"
	}
	if cols.Dec == "" {
		cols.Dec = "dec"
	}
	if cols.Z == "" {
		cols.Z = "z"
	}
	if cols.Weight == "" {
		cols.Weight = "weight"
	}
	if cols.WeightZ == "" {
		cols.WeightZ = cols.Weight
	}
	if cols.WeightNoZ == "" {
		cols.WeightNoZ = cols.Weight
	}
	return cols
}

// LoadCSV reads a catalog from a headered CSV file. Column positions are
// resolved from the header row using the configured (or default) names.
func LoadCSV(path string, cols config.ColumnMapConfig) (*Catalog, error) {
	cols = defaultColumns(cols)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading catalog header %s: %w", path, err)
	}
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}
	colIdx := func(name string) (int, error) {
		i, ok := pos[name]
		if !ok {
			return 0, fmt.Errorf("catalog %s has no column %q (header: %v)", path, name, header)
		}
		return i, nil
	}

	iRA, err := colIdx(cols.RA)
	if err != nil {
		return nil, err
	}
	iDec, err := colIdx(cols.Dec)
	if err != nil {
		return nil, err
	}
	iZ, err := colIdx(cols.Z)
	if err != nil {
		return nil, err
	}
	iW, err := colIdx(cols.Weight)
	if err != nil {
		return nil, err
	}
	iWZ, err := colIdx(cols.WeightZ)
	if err != nil {
		return nil, err
	}
	iWNZ, err := colIdx(cols.WeightNoZ)
	if err != nil {
		return nil, err
	}

	ctlg := &Catalog{Sources: []string{filepath.Base(path)}}
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading catalog %s line %d: %w", path, line+1, err)
		}
		line++
		parse := func(i int) (float64, error) {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				return 0, fmt.Errorf("catalog %s line %d column %d: %w", path, line, i+1, err)
			}
			return v, nil
		}
		ra, err := parse(iRA)
		if err != nil {
			return nil, err
		}
		dec, err := parse(iDec)
		if err != nil {
			return nil, err
		}
		z, err := parse(iZ)
		if err != nil {
			return nil, err
		}
		w, err := parse(iW)
		if err != nil {
			return nil, err
		}
		wz, err := parse(iWZ)
		if err != nil {
			return nil, err
		}
		wnz, err := parse(iWNZ)
		if err != nil {
			return nil, err
		}
		ctlg.RA = append(ctlg.RA, ra)
		ctlg.Dec = append(ctlg.Dec, dec)
		ctlg.Z = append(ctlg.Z, z)
		ctlg.Weight = append(ctlg.Weight, w)
		ctlg.WeightZ = append(ctlg.WeightZ, wz)
		ctlg.WeightNoZ = append(ctlg.WeightNoZ, wnz)
	}
	return ctlg, nil
}
