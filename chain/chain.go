// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chain implements UCSC chain pairwise-alignment format
// reading and writing. The chain format is described at
// https://genome.ucsc.edu/goldenPath/help/chain.html.
package chain

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
	// ErrNoHeader is returned when a record does not begin with a
	// "chain" header line.
	ErrNoHeader = errors.New("chain: expected chain header line")

	// ErrFieldCount is returned for a header or data line with an
	// unexpected number of fields.
	ErrFieldCount = errors.New("chain: unexpected field count")

	// ErrInvalidNumber is returned when a numeric field cannot be
	// parsed.
	ErrInvalidNumber = errors.New("chain: invalid number")
)

// A ParseError is an error encountered while parsing a specific input
// line. The reader remains usable after returning one; subsequent
// calls continue with the next record.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("chain: line %d: %v", e.Line, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// A Span is one gapless aligned stretch and the gaps separating it
// from the next stretch: DT bases present only in the target and DQ
// bases present only in the query. The final Span of a record has
// DT == DQ == 0.
type Span struct {
	Size int
	DT   int
	DQ   int
}

// A Record is one chain alignment. Query coordinates follow the chain
// convention: when QStrand is Reverse they are expressed relative to
// the reverse complement of the query sequence.
type Record struct {
	Score   int64
	TName   string
	TSize   int
	TStrand align.Strand
	TStart  int
	TEnd    int
	QName   string
	QSize   int
	QStrand align.Strand
	QStart  int
	QEnd    int
	ID      int
	Spans   []Span
}

// QueryName implements the align.Record interface.
func (r *Record) QueryName() string { return r.QName }

// QueryLength implements the align.Record interface.
func (r *Record) QueryLength() int { return r.QSize }

// QueryStart implements the align.Record interface, converting the
// chain convention to forward-strand coordinates.
func (r *Record) QueryStart() int {
	start, _ := align.ForwardRange(r.QStart, r.QEnd-r.QStart, r.QSize, r.QStrand)
	return start
}

// QueryEnd implements the align.Record interface, converting the
// chain convention to forward-strand coordinates.
func (r *Record) QueryEnd() int {
	_, end := align.ForwardRange(r.QStart, r.QEnd-r.QStart, r.QSize, r.QStrand)
	return end
}

// QueryStrand implements the align.Record interface.
func (r *Record) QueryStrand() align.Strand { return r.QStrand }

// TargetName implements the align.Record interface.
func (r *Record) TargetName() string { return r.TName }

// TargetLength implements the align.Record interface.
func (r *Record) TargetLength() int { return r.TSize }

// TargetStart implements the align.Record interface.
func (r *Record) TargetStart() int { return r.TStart }

// TargetEnd implements the align.Record interface.
func (r *Record) TargetEnd() int { return r.TEnd }

// TargetStrand implements the align.Record interface. The target
// strand of a chain record is always Forward.
func (r *Record) TargetStrand() align.Strand { return align.Forward }

// Cigar implements the align.Record interface, expanding the record's
// spans into operation runs: each gapless stretch is a match run, DT
// gaps are deletions and DQ gaps insertions.
func (r *Record) Cigar() (cigar.Cigar, error) {
	var c cigar.Cigar
	for _, s := range r.Spans {
		if s.Size > 0 {
			c = append(c, cigar.NewOp(cigar.Match, s.Size))
		}
		if s.DT > 0 {
			c = append(c, cigar.NewOp(cigar.Deletion, s.DT))
		}
		if s.DQ > 0 {
			c = append(c, cigar.NewOp(cigar.Insertion, s.DQ))
		}
	}
	return c, nil
}

// Stat implements the align.Record interface. Chain data does not
// distinguish mismatches from matches, so the mismatch count is zero.
func (r *Record) Stat() (cigar.Stat, error) {
	var s cigar.Stat
	for _, sp := range r.Spans {
		s.Matches += sp.Size
		s.Deletions += sp.DT
		s.Insertions += sp.DQ
	}
	return s, nil
}

// Reader implements chain format reading. Records are returned in
// input order; '#' comment lines and blank lines between records are
// skipped, and a malformed record yields an error without preventing
// subsequent records from being read.
type Reader struct {
	r       *bufio.Reader
	lineNum int
}

// NewReader returns a new Reader, reading from the given io.Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

func (r *Reader) readLine() (string, error) {
	b, err := r.r.ReadBytes('\n')
	if len(b) == 0 {
		if err == nil || err == io.EOF {
			return "", io.EOF
		}
		return "", err
	}
	r.lineNum++
	return strings.TrimRight(string(b), "\r\n"), nil
}

// Read returns the next Record in the chain stream. It returns io.EOF
// at the end of input and a *ParseError for a malformed record.
func (r *Reader) Read() (*Record, error) {
	var line string
	var err error
	for {
		line, err = r.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" || line[0] == '#' {
			continue
		}
		break
	}
	rec, perr := parseHeader(line)
	if perr != nil {
		r.skipRecord()
		return nil, &ParseError{Line: r.lineNum, Err: perr}
	}
	for {
		line, err = r.readLine()
		if err == io.EOF {
			if len(rec.Spans) == 0 {
				return nil, &ParseError{Line: r.lineNum, Err: io.ErrUnexpectedEOF}
			}
			return rec, nil
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			if len(rec.Spans) == 0 {
				return nil, &ParseError{Line: r.lineNum, Err: io.ErrUnexpectedEOF}
			}
			return rec, nil
		}
		span, last, perr := parseSpan(line)
		if perr != nil {
			r.skipRecord()
			return nil, &ParseError{Line: r.lineNum, Err: perr}
		}
		rec.Spans = append(rec.Spans, span)
		if last {
			return rec, nil
		}
	}
}

// skipRecord consumes lines up to and including the next blank line so
// that a parse error does not corrupt the records that follow.
func (r *Reader) skipRecord() {
	for {
		line, err := r.readLine()
		if err != nil || line == "" {
			return
		}
	}
}

func parseHeader(line string) (*Record, error) {
	const headerFields = 13
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "chain" {
		return nil, fmt.Errorf("%w: %q", ErrNoHeader, line)
	}
	if len(fields) != headerFields {
		return nil, fmt.Errorf("%w: header has %d of %d fields", ErrFieldCount, len(fields), headerFields)
	}
	score, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, fields[1])
	}
	rec := &Record{Score: score, TName: fields[2], QName: fields[7]}
	if rec.TSize, err = parseCoord(fields[3]); err != nil {
		return nil, err
	}
	if rec.TStrand, err = parseStrand(fields[4]); err != nil {
		return nil, err
	}
	if rec.TStart, err = parseCoord(fields[5]); err != nil {
		return nil, err
	}
	if rec.TEnd, err = parseCoord(fields[6]); err != nil {
		return nil, err
	}
	if rec.QSize, err = parseCoord(fields[8]); err != nil {
		return nil, err
	}
	if rec.QStrand, err = parseStrand(fields[9]); err != nil {
		return nil, err
	}
	if rec.QStart, err = parseCoord(fields[10]); err != nil {
		return nil, err
	}
	if rec.QEnd, err = parseCoord(fields[11]); err != nil {
		return nil, err
	}
	if rec.ID, err = parseCoord(fields[12]); err != nil {
		return nil, err
	}
	return rec, nil
}

func parseSpan(line string) (span Span, last bool, err error) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 1:
		last = true
	case 3:
	default:
		return Span{}, false, fmt.Errorf("%w: data line has %d fields", ErrFieldCount, len(fields))
	}
	if span.Size, err = parseCoord(fields[0]); err != nil {
		return Span{}, false, err
	}
	if last {
		return span, true, nil
	}
	if span.DT, err = parseCoord(fields[1]); err != nil {
		return Span{}, false, err
	}
	if span.DQ, err = parseCoord(fields[2]); err != nil {
		return Span{}, false, err
	}
	return span, false, nil
}

func parseCoord(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return n, nil
}

func parseStrand(s string) (align.Strand, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("%w: %q", align.ErrUnknownStrand, s)
	}
	return align.ParseStrand(s[0])
}

// Writer implements chain format writing.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer to the given io.Writer.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Write writes r as one chain record followed by the blank separator
// line.
func (w *Writer) Write(r *Record) error {
	_, err := fmt.Fprintf(w.w, "chain %d %s %d %s %d %d %s %d %s %d %d %d\n",
		r.Score,
		r.TName, r.TSize, r.TStrand, r.TStart, r.TEnd,
		r.QName, r.QSize, r.QStrand, r.QStart, r.QEnd,
		r.ID)
	if err != nil {
		return err
	}
	for i, s := range r.Spans {
		if i == len(r.Spans)-1 {
			_, err = fmt.Fprintf(w.w, "%d\n", s.Size)
		} else {
			_, err = fmt.Fprintf(w.w, "%d\t%d\t%d\n", s.Size, s.DT, s.DQ)
		}
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w.w)
	return err
}
