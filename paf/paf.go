// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package paf implements PAF pairwise-alignment format reading and
// writing. The PAF format is described at
// https://github.com/lh3/miniasm/blob/master/PAF.md.
package paf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/wga/align"
	"github.com/biogo/wga/cigar"
)

var (
	// ErrMissingField is returned when a row has fewer than the twelve
	// mandatory columns.
	ErrMissingField = errors.New("paf: missing field")

	// ErrInvalidNumber is returned when a numeric column cannot be
	// parsed.
	ErrInvalidNumber = errors.New("paf: invalid number")

	// ErrNoCigarTag is returned when a record that must provide CIGAR
	// operations carries no cg:Z: tag.
	ErrNoCigarTag = errors.New("paf: no cg:Z: tag")
)

// A ParseError is an error encountered while parsing a specific input
// line. The reader remains usable after returning one; subsequent
// calls continue with the next row.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("paf: line %d: %v", e.Line, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// Tag prefixes for the auxiliary fields consulted by this package.
const (
	TagCigar        = "cg:Z:"
	TagEditDistance = "NM:i:"
)

// A Record is one PAF row. QStart and QEnd are forward-strand
// half-open coordinates; Strand records the query orientation relative
// to the target. Tags holds the trailing TAG:TYPE:VALUE strings
// verbatim.
type Record struct {
	QName    string
	QLen     int
	QStart   int
	QEnd     int
	Strand   align.Strand
	TName    string
	TLen     int
	TStart   int
	TEnd     int
	Matches  int
	BlockLen int
	MapQ     int
	Tags     []string
}

// Tag returns the value of the first tag with the given prefix, which
// must include the type byte and both colons (for example "cg:Z:").
func (r *Record) Tag(prefix string) (string, bool) {
	for _, t := range r.Tags {
		if strings.HasPrefix(t, prefix) {
			return t[len(prefix):], true
		}
	}
	return "", false
}

// CigarString returns the record's CIGAR string from its cg:Z: tag.
func (r *Record) CigarString() (string, error) {
	s, ok := r.Tag(TagCigar)
	if !ok {
		return "", ErrNoCigarTag
	}
	return s, nil
}

// EditDistance returns the record's NM:i: tag value and whether a
// well-formed tag was present.
func (r *Record) EditDistance() (int, bool) {
	s, ok := r.Tag(TagEditDistance)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// QueryName implements the align.Record interface.
func (r *Record) QueryName() string { return r.QName }

// QueryLength implements the align.Record interface.
func (r *Record) QueryLength() int { return r.QLen }

// QueryStart implements the align.Record interface.
func (r *Record) QueryStart() int { return r.QStart }

// QueryEnd implements the align.Record interface.
func (r *Record) QueryEnd() int { return r.QEnd }

// QueryStrand implements the align.Record interface.
func (r *Record) QueryStrand() align.Strand { return r.Strand }

// TargetName implements the align.Record interface.
func (r *Record) TargetName() string { return r.TName }

// TargetLength implements the align.Record interface.
func (r *Record) TargetLength() int { return r.TLen }

// TargetStart implements the align.Record interface.
func (r *Record) TargetStart() int { return r.TStart }

// TargetEnd implements the align.Record interface.
func (r *Record) TargetEnd() int { return r.TEnd }

// TargetStrand implements the align.Record interface. The target
// strand of a PAF record is always Forward.
func (r *Record) TargetStrand() align.Strand { return align.Forward }

// Cigar implements the align.Record interface, decoding the record's
// cg:Z: tag.
func (r *Record) Cigar() (cigar.Cigar, error) {
	s, err := r.CigarString()
	if err != nil {
		return nil, err
	}
	return cigar.ParseString(s)
}

// Stat implements the align.Record interface. Mismatches cannot be
// told apart from matches in a bare 'M' operation, so the mismatch
// count is inferred from the NM:i: tag when one is present and is zero
// otherwise.
func (r *Record) Stat() (cigar.Stat, error) {
	c, err := r.Cigar()
	if err != nil {
		return cigar.Stat{}, err
	}
	if nm, ok := r.EditDistance(); ok {
		return cigar.StatWithEditDistance(c, nm)
	}
	return c.Stat(), nil
}

// Reader implements PAF format reading. Rows are returned in input
// order; '#' comment lines and blank lines are skipped, and a
// malformed row yields an error without preventing subsequent rows
// from being read.
type Reader struct {
	r       *bufio.Reader
	lineNum int
}

// NewReader returns a new Reader, reading from the given io.Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Read returns the next Record in the PAF stream. It returns io.EOF at
// the end of input and a *ParseError for a malformed row.
func (r *Reader) Read() (*Record, error) {
	for {
		b, err := r.r.ReadBytes('\n')
		if len(b) == 0 {
			if err == nil || err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
		r.lineNum++
		line := strings.TrimRight(string(b), "\r\n")
		if line == "" || line[0] == '#' {
			continue
		}
		rec, perr := parseRecord(line)
		if perr != nil {
			return nil, &ParseError{Line: r.lineNum, Err: perr}
		}
		return rec, nil
	}
}

func parseRecord(line string) (*Record, error) {
	const mandatory = 12
	fields := strings.Split(line, "\t")
	if len(fields) < mandatory {
		return nil, fmt.Errorf("%w: row has %d of %d columns", ErrMissingField, len(fields), mandatory)
	}
	var (
		rec Record
		err error
	)
	rec.QName = fields[0]
	if rec.QLen, err = parseCoord(fields[1]); err != nil {
		return nil, err
	}
	if rec.QStart, err = parseCoord(fields[2]); err != nil {
		return nil, err
	}
	if rec.QEnd, err = parseCoord(fields[3]); err != nil {
		return nil, err
	}
	if len(fields[4]) != 1 {
		return nil, fmt.Errorf("%w: %q", align.ErrUnknownStrand, fields[4])
	}
	if rec.Strand, err = align.ParseStrand(fields[4][0]); err != nil {
		return nil, err
	}
	rec.TName = fields[5]
	if rec.TLen, err = parseCoord(fields[6]); err != nil {
		return nil, err
	}
	if rec.TStart, err = parseCoord(fields[7]); err != nil {
		return nil, err
	}
	if rec.TEnd, err = parseCoord(fields[8]); err != nil {
		return nil, err
	}
	if rec.Matches, err = parseCoord(fields[9]); err != nil {
		return nil, err
	}
	if rec.BlockLen, err = parseCoord(fields[10]); err != nil {
		return nil, err
	}
	if rec.MapQ, err = parseCoord(fields[11]); err != nil {
		return nil, err
	}
	if len(fields) > mandatory {
		rec.Tags = append(rec.Tags, fields[mandatory:]...)
	}
	return &rec, nil
}

func parseCoord(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return n, nil
}

// Writer implements PAF format writing.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer to the given io.Writer.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Write writes r as one tab-separated PAF row.
func (w *Writer) Write(r *Record) error {
	fields := make([]string, 0, 12+len(r.Tags))
	fields = append(fields,
		r.QName,
		strconv.Itoa(r.QLen),
		strconv.Itoa(r.QStart),
		strconv.Itoa(r.QEnd),
		r.Strand.String(),
		r.TName,
		strconv.Itoa(r.TLen),
		strconv.Itoa(r.TStart),
		strconv.Itoa(r.TEnd),
		strconv.Itoa(r.Matches),
		strconv.Itoa(r.BlockLen),
		strconv.Itoa(r.MapQ),
	)
	fields = append(fields, r.Tags...)
	_, err := fmt.Fprintln(w.w, strings.Join(fields, "\t"))
	return err
}
