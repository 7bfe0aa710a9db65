package sim

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/microswarm/systems"
	"github.com/pthm-cable/microswarm/telemetry"
)

func (s *Simulation) field(kind systems.Kind) (*systems.Field, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownField, kind)
	}
	return s.fields.Field(kind), nil
}

// FieldInfo returns the dimensions of a field.
func (s *Simulation) FieldInfo(kind systems.Kind) (w, h int, err error) {
	f, err := s.field(kind)
	if err != nil {
		return 0, 0, err
	}
	return f.W, f.H, nil
}

// CopyFieldOut writes the field, row-major, into dst and returns the number
// of values written. dst must hold at least width*height values.
func (s *Simulation) CopyFieldOut(kind systems.Kind, dst []float32) (int, error) {
	f, err := s.field(kind)
	if err != nil {
		return 0, err
	}
	if len(dst) < len(f.Data) {
		return 0, fmt.Errorf("%w: %s needs %d values, buffer holds %d", ErrBufferSize, kind, len(f.Data), len(dst))
	}
	return copy(dst, f.Data), nil
}

// CopyFieldIn replaces the field with src, which must hold exactly
// width*height values inside the field's range. The field is untouched on error.
func (s *Simulation) CopyFieldIn(kind systems.Kind, src []float32) (int, error) {
	f, err := s.field(kind)
	if err != nil {
		return 0, err
	}
	if len(src) != len(f.Data) {
		return 0, fmt.Errorf("%w: %s needs %d values, got %d", ErrBufferSize, kind, len(f.Data), len(src))
	}
	if err := s.fields.Load(kind, src); err != nil {
		if errors.Is(err, systems.ErrFieldValue) {
			return 0, fmt.Errorf("%w: %v", ErrOutOfRange, err)
		}
		return 0, err
	}
	return len(src), nil
}

// ClearField sets every cell of the field to v, clamped to its range.
func (s *Simulation) ClearField(kind systems.Kind, v float32) error {
	if _, err := s.field(kind); err != nil {
		return err
	}
	s.fields.Fill(kind, v)
	return nil
}

// PaintDisc sets every cell within radius of (cx, cy) to value, clipped to
// the grid, through a copy-out, paint, copy-in round trip. Returns the number
// of cells painted.
func (s *Simulation) PaintDisc(kind systems.Kind, cx, cy, radius int, value float32) (int, error) {
	f, err := s.field(kind)
	if err != nil {
		return 0, err
	}
	if radius < 0 {
		return 0, fmt.Errorf("%w: radius %d", ErrOutOfRange, radius)
	}
	buf := make([]float32, len(f.Data))
	if _, err := s.CopyFieldOut(kind, buf); err != nil {
		return 0, err
	}
	n := systems.PaintDisc(buf, f.W, f.H, cx, cy, radius, value)
	if n == 0 {
		return 0, nil
	}
	if _, err := s.CopyFieldIn(kind, buf); err != nil {
		return 0, err
	}
	return n, nil
}

// LoadFieldCSV replaces a field with a grid read from a CSV file.
func (s *Simulation) LoadFieldCSV(kind systems.Kind, path string) error {
	f, err := s.field(kind)
	if err != nil {
		return err
	}
	grid, err := telemetry.LoadGridCSV(path)
	if err != nil {
		return err
	}
	if grid.Width != f.W || grid.Height != f.H {
		return fmt.Errorf("%w: %s is %dx%d, file is %dx%d", ErrBufferSize, kind, f.W, f.H, grid.Width, grid.Height)
	}
	_, err = s.CopyFieldIn(kind, grid.Values)
	return err
}

// SaveFieldCSV writes a field to a CSV file, one grid row per line.
func (s *Simulation) SaveFieldCSV(kind systems.Kind, path string) error {
	f, err := s.field(kind)
	if err != nil {
		return err
	}
	return telemetry.SaveGridCSV(path, f.W, f.H, f.Data)
}

// BlockedCells returns the row-major indices of frozen resource cells.
func (s *Simulation) BlockedCells() []int {
	if s.closed {
		return nil
	}
	return s.fields.BlockedCells()
}
