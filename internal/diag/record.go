// Package diag streams the controller's diagnostic records and renders its
// status for humans.
//
// The record format is one CSV line per sample, "temp,power,target", suitable
// for serial plotters and most CSV tooling.
package diag

import (
	"fmt"
	"io"
	"strconv"

	"boilerctl/internal/control"
)

// Header names the CSV columns.
const Header = "temp,power,target\n"

// AppendRecord appends r as a CSV line with two decimals per field.
func AppendRecord(dst []byte, r control.Record) []byte {
	dst = strconv.AppendFloat(dst, r.Temperature, 'f', 2, 64)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, r.Power, 'f', 2, 64)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, r.Setpoint, 'f', 2, 64)
	return append(dst, '\n')
}

// FormatRecord returns r as a CSV line.
func FormatRecord(r control.Record) string {
	return string(AppendRecord(nil, r))
}

// Stream writes records to w, printing the header before the first one.
// Every > 1 keeps only every Nth record.
type Stream struct {
	w      io.Writer
	every  int
	n      int
	header bool
	buf    []byte
}

func NewStream(w io.Writer, every int) *Stream {
	if every < 1 {
		every = 1
	}
	return &Stream{w: w, every: every}
}

func (s *Stream) Record(r control.Record) error {
	s.n++
	if (s.n-1)%s.every != 0 {
		return nil
	}
	s.buf = s.buf[:0]
	if !s.header {
		s.buf = append(s.buf, Header...)
	}
	s.buf = AppendRecord(s.buf, r)
	if _, err := s.w.Write(s.buf); err != nil {
		return fmt.Errorf("diag: write: %w", err)
	}
	s.header = true
	return nil
}

// Multi fans a record out to several recorders. Every recorder sees every
// record; the first error is returned.
type Multi []control.Recorder

func (m Multi) Record(r control.Record) error {
	var first error
	for _, rec := range m {
		if err := rec.Record(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}
