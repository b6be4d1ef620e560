// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package maf implements MAF multiple-alignment format reading and
// writing, block slicing and block indexing. The MAF format is
// described at https://genome.ucsc.edu/FAQ/FAQformat.html#format5.
//
// Only 's' rows participate in blocks; any other non-blank line
// terminates the block being read. By convention row 0 of a block is
// the target sequence and row 1 the query.
package maf

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
	// ErrMissingField is returned when an 's' row has too few fields.
	ErrMissingField = errors.New("maf: missing field")

	// ErrFieldCount is returned when an 's' row has too many fields.
	ErrFieldCount = errors.New("maf: unexpected field count")

	// ErrInvalidNumber is returned when a coordinate field is not a
	// valid non-negative integer.
	ErrInvalidNumber = errors.New("maf: invalid number")

	// ErrRowCount is returned when a block holds fewer than the two
	// rows needed to view it as a pairwise alignment record.
	ErrRowCount = errors.New("maf: block needs two rows")
)

// A ParseError is an error encountered while parsing a specific input
// line. The reader remains usable after returning one; subsequent
// calls continue with the next block.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("maf: line %d: %v", e.Line, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// A Line is one sequence's participation in an alignment block.
type Line struct {
	Name   string
	Start  int // MAF convention: counted on Strand.
	Span   int // Number of aligned, non-gap bases.
	Strand align.Strand
	Size   int // Full length of the source sequence.
	Seq    string
}

// A Block is an ordered set of aligned rows sharing a column count.
// Row 0 is the target and row 1 the query for conversion purposes;
// additional rows are carried but not consulted by converters.
type Block struct {
	Score float64
	Rows  []Line

	offset int64
}

// Offset returns the byte offset of the block's first 's' row in the
// stream it was read from.
func (b *Block) Offset() int64 { return b.offset }

// Columns returns the column count of the block, or zero for an empty
// block.
func (b *Block) Columns() int {
	if len(b.Rows) == 0 {
		return 0
	}
	return len(b.Rows[0].Seq)
}

// Pair returns an error unless b has the two rows required of a
// pairwise record.
func (b *Block) Pair() error {
	if len(b.Rows) < 2 {
		return ErrRowCount
	}
	return nil
}

// QueryName implements the align.Record interface.
func (b *Block) QueryName() string { return b.Rows[1].Name }

// QueryLength implements the align.Record interface.
func (b *Block) QueryLength() int { return b.Rows[1].Size }

// QueryStart implements the align.Record interface.
func (b *Block) QueryStart() int {
	q := b.Rows[1]
	start, _ := align.ForwardRange(q.Start, q.Span, q.Size, q.Strand)
	return start
}

// QueryEnd implements the align.Record interface.
func (b *Block) QueryEnd() int {
	q := b.Rows[1]
	_, end := align.ForwardRange(q.Start, q.Span, q.Size, q.Strand)
	return end
}

// QueryStrand implements the align.Record interface.
func (b *Block) QueryStrand() align.Strand { return b.Rows[1].Strand }

// TargetName implements the align.Record interface.
func (b *Block) TargetName() string { return b.Rows[0].Name }

// TargetLength implements the align.Record interface.
func (b *Block) TargetLength() int { return b.Rows[0].Size }

// TargetStart implements the align.Record interface.
func (b *Block) TargetStart() int { return b.Rows[0].Start }

// TargetEnd implements the align.Record interface.
func (b *Block) TargetEnd() int { return b.Rows[0].Start + b.Rows[0].Span }

// TargetStrand implements the align.Record interface. The target
// strand of a pairwise record is always Forward.
func (b *Block) TargetStrand() align.Strand { return align.Forward }

// Cigar implements the align.Record interface, deriving the operation
// runs from the block's first two rows.
func (b *Block) Cigar() (cigar.Cigar, error) {
	if err := b.Pair(); err != nil {
		return nil, err
	}
	c, _, err := cigar.Derive(b.Rows[0].Seq, b.Rows[1].Seq)
	return c, err
}

// Stat implements the align.Record interface, deriving the aggregate
// counts from the block's first two rows.
func (b *Block) Stat() (cigar.Stat, error) {
	if err := b.Pair(); err != nil {
		return cigar.Stat{}, err
	}
	_, s, err := cigar.Derive(b.Rows[0].Seq, b.Rows[1].Seq)
	return s, err
}

// Reader implements MAF format reading. Blocks are returned in input
// order; a malformed row yields an error for that block without
// preventing subsequent blocks from being read.
type Reader struct {
	r *bufio.Reader

	header  string
	offset  int64
	lineNum int

	score    float64
	hasScore bool
}

// NewReader returns a new Reader, reading from the given io.Reader.
// Leading '#' lines are collected as the stream header.
func NewReader(r io.Reader) (*Reader, error) {
	mr := &Reader{r: bufio.NewReader(r)}
	for {
		p, err := mr.r.Peek(1)
		if err == io.EOF {
			return mr, nil
		}
		if err != nil {
			return nil, err
		}
		if p[0] != '#' {
			return mr, nil
		}
		line, err := mr.readLine()
		if err != nil {
			return nil, err
		}
		mr.header += string(line) + "\n"
	}
}

// Header returns the '#' header lines held by the Reader, including
// their trailing newlines.
func (r *Reader) Header() string { return r.header }

// readLine returns the next line with the line terminator removed,
// advancing the reader's byte offset and line count.
func (r *Reader) readLine() ([]byte, error) {
	b, err := r.r.ReadBytes('\n')
	r.offset += int64(len(b))
	if len(b) == 0 {
		return nil, err
	}
	r.lineNum++
	if b[len(b)-1] == '\n' {
		b = b[:len(b)-1]
	}
	if len(b) > 0 && b[len(b)-1] == '\r' {
		b = b[:len(b)-1]
	}
	if err == io.EOF {
		err = nil
	}
	return b, err
}

// Read returns the next Block in the MAF stream. It returns io.EOF at
// the end of input. A *ParseError return reports a malformed block;
// the reader skips to the next blank line so the following Read
// continues with the next block.
func (r *Reader) Read() (*Block, error) {
	var b *Block
	for {
		lineOffset := r.offset
		line, err := r.readLine()
		if err != nil && err != io.EOF {
			return nil, err
		}
		if line == nil {
			if b != nil {
				return b, nil
			}
			return nil, io.EOF
		}
		fields := strings.Fields(string(line))
		switch {
		case len(fields) == 0, fields[0] != "s":
			if b != nil {
				// The block is terminated; note a directly
				// following 'a' line for the next block.
				r.noteScore(fields)
				return b, nil
			}
			r.noteScore(fields)
		default:
			row, err := parseRow(fields)
			if err != nil {
				perr := &ParseError{Line: r.lineNum, Err: err}
				r.skipBlock()
				return nil, perr
			}
			if b == nil {
				b = &Block{offset: lineOffset}
				if r.hasScore {
					b.Score = r.score
					r.score, r.hasScore = 0, false
				}
			}
			b.Rows = append(b.Rows, row)
		}
	}
}

// noteScore records the score of an 'a' line for the block that
// follows it.
func (r *Reader) noteScore(fields []string) {
	if len(fields) == 0 || fields[0] != "a" {
		return
	}
	r.score, r.hasScore = 0, true
	for _, f := range fields[1:] {
		if strings.HasPrefix(f, "score=") {
			v, err := strconv.ParseFloat(f[len("score="):], 64)
			if err == nil {
				r.score = v
			}
			return
		}
	}
}

// skipBlock consumes lines up to and including the next blank line so
// that a parse error does not corrupt the blocks that follow.
func (r *Reader) skipBlock() {
	for {
		line, err := r.readLine()
		if line == nil || len(strings.TrimSpace(string(line))) == 0 {
			return
		}
		if err != nil {
			return
		}
	}
}

func parseRow(fields []string) (Line, error) {
	const rowFields = 7 // s name start span strand size seq
	if len(fields) < rowFields {
		return Line{}, fmt.Errorf("%w: 's' row has %d fields", ErrMissingField, len(fields))
	}
	if len(fields) > rowFields {
		return Line{}, fmt.Errorf("%w: 's' row has %d fields", ErrFieldCount, len(fields))
	}
	start, err := parseCoord(fields[2])
	if err != nil {
		return Line{}, err
	}
	span, err := parseCoord(fields[3])
	if err != nil {
		return Line{}, err
	}
	if len(fields[4]) != 1 {
		return Line{}, fmt.Errorf("%w: %q", align.ErrUnknownStrand, fields[4])
	}
	strand, err := align.ParseStrand(fields[4][0])
	if err != nil {
		return Line{}, err
	}
	size, err := parseCoord(fields[5])
	if err != nil {
		return Line{}, err
	}
	return Line{
		Name:   fields[1],
		Start:  start,
		Span:   span,
		Strand: strand,
		Size:   size,
		Seq:    fields[6],
	}, nil
}

func parseCoord(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return n, nil
}

// DefaultHeader is written by a Writer when no header is supplied.
const DefaultHeader = "##maf version=1\n"

// Writer implements MAF format writing.
type Writer struct {
	w           io.Writer
	wroteHeader bool
}

// NewWriter returns a Writer to the given io.Writer.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// WriteHeader writes the given header lines. If h is empty,
// DefaultHeader is written. WriteHeader must be called before the
// first Write if a specific header is wanted.
func (w *Writer) WriteHeader(h string) error {
	if h == "" {
		h = DefaultHeader
	}
	if !strings.HasSuffix(h, "\n") {
		h += "\n"
	}
	w.wroteHeader = true
	_, err := io.WriteString(w.w, h)
	return err
}

// Write writes b to the MAF stream, emitting DefaultHeader first if no
// header has been written.
func (w *Writer) Write(b *Block) error {
	if !w.wroteHeader {
		if err := w.WriteHeader(""); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w.w, "a score=%s\n", strconv.FormatFloat(b.Score, 'g', -1, 64)); err != nil {
		return err
	}
	for _, row := range b.Rows {
		_, err := fmt.Fprintf(w.w, "s\t%s\t%d\t%d\t%s\t%d\t%s\n",
			row.Name, row.Start, row.Span, row.Strand, row.Size, row.Seq)
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w.w)
	return err
}
