// Package thermal maps visible-light pixel colours in thermal camera footage
// to calibrated temperatures, and samples those temperatures along
// user-drawn line segments through decoded video frames.
package thermal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// PackRGB packs 8-bit channel values into a single 24-bit map key.
func PackRGB(r, g, b int) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// UnpackRGB splits a packed key back into its channel values.
func UnpackRGB(key uint32) (r, g, b int) {
	return int(key >> 16 & 0xff), int(key >> 8 & 0xff), int(key & 0xff)
}

// CalibrationTable maps packed RGB colours to calibrated temperatures in °C.
// The table is built once by a load and read-only afterwards. Nearest-match
// scans walk entries in insertion order, so when several entries fall inside
// the match threshold the earliest row of the source file wins. That keeps
// approximate lookups reproducible across runs.
type CalibrationTable struct {
	temps map[uint32]float64
	keys  []uint32 // insertion order; duplicates removed on overwrite
}

// NewCalibrationTable returns an empty table. Mostly useful for tests;
// production tables come from LoadCalibrationFile.
func NewCalibrationTable() *CalibrationTable {
	return &CalibrationTable{temps: make(map[uint32]float64)}
}

// Insert adds or overwrites the temperature for a colour. Overwriting keeps
// the colour's original scan position.
func (t *CalibrationTable) Insert(r, g, b int, celsius float64) {
	key := PackRGB(r, g, b)
	if _, ok := t.temps[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.temps[key] = celsius
}

// Len returns the number of distinct colours in the table.
func (t *CalibrationTable) Len() int {
	return len(t.keys)
}

// LoadCalibrationFile reads a calibration CSV from disk. See LoadCalibration
// for the row format.
func LoadCalibrationFile(path string) (*CalibrationTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open calibration file: %w", err)
	}
	defer f.Close()
	table, err := LoadCalibration(f)
	if err != nil {
		return nil, fmt.Errorf("calibration file %q: %w", path, err)
	}
	return table, nil
}

// LoadCalibration builds a table from CSV rows of the form
// X,Y,R,G,B,Temperature_C. The X and Y columns are acquisition metadata and
// ignored. The first row is always treated as a header. Rows with fewer than
// six fields, unparsable numbers, or channel values outside [0,255] are
// skipped rather than fatal; the load only fails when no row at all was
// usable.
func LoadCalibration(r io.Reader) (*CalibrationTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	table := NewCalibrationTable()
	header := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A structurally broken line is treated like any other bad row.
			continue
		}
		if header {
			header = false
			continue
		}
		if len(row) < 6 {
			continue
		}
		red, err := strconv.Atoi(row[2])
		if err != nil {
			continue
		}
		green, err := strconv.Atoi(row[3])
		if err != nil {
			continue
		}
		blue, err := strconv.Atoi(row[4])
		if err != nil {
			continue
		}
		celsius, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			continue
		}
		if red < 0 || red > 255 || green < 0 || green > 255 || blue < 0 || blue > 255 {
			continue
		}
		table.Insert(red, green, blue, celsius)
	}

	if table.Len() == 0 {
		return nil, fmt.Errorf("no usable calibration data")
	}
	return table, nil
}
