package telemetry

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ErrGridCSV is returned for malformed field CSV files.
var ErrGridCSV = errors.New("invalid grid csv")

// Grid is a row-major field dump.
type Grid struct {
	Width, Height int
	Values        []float32
}

// ReadGridCSV parses one grid row per line. Lines starting with '#' and
// blank lines are skipped; every row must have the same number of cells.
func ReadGridCSV(r io.Reader) (Grid, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var g Grid
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Grid{}, fmt.Errorf("%w: %v", ErrGridCSV, err)
		}
		row := make([]float32, 0, len(rec))
		for _, cell := range rec {
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 32)
			if err != nil {
				return Grid{}, fmt.Errorf("%w: row %d: %v", ErrGridCSV, g.Height+1, err)
			}
			row = append(row, float32(v))
		}
		if len(row) == 0 {
			continue
		}
		if g.Height == 0 {
			g.Width = len(row)
		} else if len(row) != g.Width {
			return Grid{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrGridCSV, g.Height+1, len(row), g.Width)
		}
		g.Values = append(g.Values, row...)
		g.Height++
	}
	if g.Height == 0 {
		return Grid{}, fmt.Errorf("%w: empty", ErrGridCSV)
	}
	return g, nil
}

// WriteGridCSV writes a grid with a leading comment line and three decimals per cell.
func WriteGridCSV(w io.Writer, width, height int, values []float32) error {
	if width <= 0 || height <= 0 || len(values) != width*height {
		return fmt.Errorf("%w: %dx%d grid with %d values", ErrGridCSV, width, height, len(values))
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("# dump\n"); err != nil {
		return err
	}
	cw := csv.NewWriter(bw)
	row := make([]string, width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			row[x] = strconv.FormatFloat(float64(values[y*width+x]), 'f', 3, 32)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// LoadGridCSV reads a grid from path.
func LoadGridCSV(path string) (Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return Grid{}, fmt.Errorf("open grid: %w", err)
	}
	defer f.Close()
	return ReadGridCSV(f)
}

// SaveGridCSV writes a grid to path.
func SaveGridCSV(path string, width, height int, values []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create grid: %w", err)
	}
	if err := WriteGridCSV(f, width, height, values); err != nil {
		f.Close()
		return fmt.Errorf("write grid: %w", err)
	}
	return f.Close()
}
