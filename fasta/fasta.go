// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fasta provides indexed random access to FASTA sequence
// files. Converters that emit formats carrying bases use it to
// reconstruct sequence for formats that store only coordinates.
package fasta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrNonUnique is returned when an index holds a sequence name
	// more than once.
	ErrNonUnique = errors.New("fasta: non-unique sequence name")

	// ErrNoSequence is returned when a requested name is not present.
	ErrNoSequence = errors.New("fasta: no such sequence")

	// ErrOutOfRange is returned for a request outside a sequence's
	// extent.
	ErrOutOfRange = errors.New("fasta: index out of range")
)

// Record is a single index record, matching the samtools .fai layout.
type Record struct {
	// Name is the name of the sequence.
	Name string
	// Length is the length of the sequence in bases.
	Length int
	// Start is the seek offset of the sequence's first base.
	Start int64
	// BasesPerLine is the number of bases on each full line.
	BasesPerLine int
	// BytesPerLine is the number of bytes representing each full
	// line, including the line terminator.
	BytesPerLine int
}

// position returns the seek offset of base p of the record.
func (r Record) position(p int) int64 {
	return r.Start + int64(p/r.BasesPerLine*r.BytesPerLine+p%r.BasesPerLine)
}

// lineRemainder returns the number of bases from p to the end of the
// line holding it.
func (r Record) lineRemainder(p int) int {
	if p/r.BasesPerLine == r.Length/r.BasesPerLine {
		return r.Length - p
	}
	return r.BasesPerLine - p%r.BasesPerLine
}

// Index is a FASTA sequence index.
type Index map[string]Record

// ScanIndex returns an Index constructed from the FASTA stream in r.
// Sequence lines of a record must share their length except for the
// last one.
func ScanIndex(r io.Reader) (Index, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, 1<<20)
	sc.Split(keepTerminatorLines)

	idx := make(Index)
	var (
		rec          Record
		offset       int64
		wantDescLine bool
	)
	for sc.Scan() {
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			offset += int64(len(sc.Bytes()))
			continue
		}
		if b[0] == '>' {
			if rec.Name != "" {
				idx[rec.Name] = rec
				rec = Record{}
			}
			rec.Name = string(bytes.SplitN(b[1:], []byte{' '}, 2)[0])
			if _, exists := idx[rec.Name]; exists {
				return nil, fmt.Errorf("%w: %q at offset %d", ErrNonUnique, rec.Name, offset)
			}
			rec.Start = offset + int64(len(sc.Bytes()))
			wantDescLine = false
		} else {
			if wantDescLine {
				return nil, fmt.Errorf("fasta: unexpected short line before offset %d", offset)
			}
			switch {
			case rec.BytesPerLine == 0:
				rec.BytesPerLine = len(sc.Bytes())
			case len(sc.Bytes()) > rec.BytesPerLine:
				return nil, fmt.Errorf("fasta: unexpected long line at offset %d", offset)
			case len(sc.Bytes()) < rec.BytesPerLine:
				wantDescLine = true
			}
			switch {
			case rec.BasesPerLine == 0:
				rec.BasesPerLine = len(b)
			case len(b) > rec.BasesPerLine:
				return nil, fmt.Errorf("fasta: unexpected long line at offset %d", offset)
			case len(b) < rec.BasesPerLine:
				wantDescLine = true
			}
			rec.Length += len(b)
		}
		offset += int64(len(sc.Bytes()))
	}
	if rec.Name != "" {
		idx[rec.Name] = rec
	}
	return idx, sc.Err()
}

// keepTerminatorLines is a bufio.SplitFunc returning lines with their
// line terminator retained so byte offsets stay exact.
func keepTerminatorLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i+1], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// ReadIndex returns an Index parsed from a .fai sidecar stream.
func ReadIndex(r io.Reader) (Index, error) {
	const faiFields = 5
	idx := make(Index)
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != faiFields {
			return nil, fmt.Errorf("fasta: line %d: %d of %d index fields", line, len(fields), faiFields)
		}
		if _, exists := idx[fields[0]]; exists {
			return nil, fmt.Errorf("%w: %q at line %d", ErrNonUnique, fields[0], line)
		}
		rec := Record{Name: fields[0]}
		var err error
		if rec.Length, err = atoi(fields[1]); err != nil {
			return nil, fmt.Errorf("fasta: line %d: %v", line, err)
		}
		start, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("fasta: line %d: %v", line, err)
		}
		rec.Start = start
		if rec.BasesPerLine, err = atoi(fields[3]); err != nil {
			return nil, fmt.Errorf("fasta: line %d: %v", line, err)
		}
		if rec.BytesPerLine, err = atoi(fields[4]); err != nil {
			return nil, fmt.Errorf("fasta: line %d: %v", line, err)
		}
		idx[rec.Name] = rec
	}
	return idx, sc.Err()
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid index number %q", s)
	}
	return n, nil
}

// WriteTo writes the index to w in order of ascending start position.
func (idx Index) WriteTo(w io.Writer) error {
	recs := make([]Record, 0, len(idx))
	for _, r := range idx {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Start < recs[j].Start })
	for _, r := range recs {
		_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", r.Name, r.Length, r.Start, r.BasesPerLine, r.BytesPerLine)
		if err != nil {
			return err
		}
	}
	return nil
}

var complement = [256]byte{
	'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'U': 'A', 'N': 'N',
	'a': 't', 'c': 'g', 'g': 'c', 't': 'a', 'u': 'a', 'n': 'n',
}

// ReverseComplement reverses and complements seq in place and returns
// it. Bases without a defined complement are preserved.
func ReverseComplement(seq []byte) []byte {
	for i, j := 0, len(seq)-1; i <= j; i, j = i+1, j-1 {
		bi, bj := seq[i], seq[j]
		if c := complement[bj]; c != 0 {
			bj = c
		}
		if c := complement[bi]; c != 0 {
			bi = c
		}
		seq[i], seq[j] = bj, bi
	}
	return seq
}
