// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package align provides the shared abstraction over pairwise
// whole-genome alignment records. The MAF, PAF and chain formats all
// describe a local alignment between a target and a query sequence;
// the Record interface exposes that alignment uniformly so that format
// converters can be written once per output format.
package align

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fvbommel/sortorder"

	"github.com/biogo/wga/cigar"
)

// ErrUnknownStrand is returned when a strand field holds a symbol
// other than '+' or '-'.
var ErrUnknownStrand = errors.New("align: unknown strand symbol")

// Strand is the orientation of a sequence within an alignment.
type Strand byte

const (
	Forward Strand = '+'
	Reverse Strand = '-'
)

// ParseStrand returns the Strand represented by the given byte.
func ParseStrand(b byte) (Strand, error) {
	switch s := Strand(b); s {
	case Forward, Reverse:
		return s, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrand, string(b))
}

// String returns the text representation of the Strand.
func (s Strand) String() string { return string(s) }

// MarshalText implements the encoding.TextMarshaler interface.
func (s Strand) MarshalText() ([]byte, error) {
	switch s {
	case Forward, Reverse:
		return []byte{byte(s)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrand, string(s))
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (s *Strand) UnmarshalText(text []byte) error {
	if len(text) != 1 {
		return fmt.Errorf("%w: %q", ErrUnknownStrand, text)
	}
	v, err := ParseStrand(text[0])
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ForwardRange converts a MAF-convention interval to forward-strand
// coordinates. In the MAF convention a reverse-strand interval is
// expressed relative to the reverse complement of the sequence, so the
// forward position of its first base is counted from the far end.
// ForwardRange returns the half-open interval [start, end) on the
// forward strand.
func ForwardRange(start, alignLen, size int, strand Strand) (int, int) {
	if strand == Reverse {
		return size - start - alignLen, size - start
	}
	return start, start + alignLen
}

// A Record is one pairwise alignment between a target and a query
// sequence. Query coordinates are forward-strand half-open intervals
// regardless of the query's orientation; the target strand is always
// Forward since the source formats encode orientation only on the
// query side.
//
// Cigar and Stat may require work proportional to the alignment
// length; implementations derive them from aligned rows or decode them
// from stored tags.
type Record interface {
	QueryName() string
	QueryLength() int
	QueryStart() int
	QueryEnd() int
	QueryStrand() Strand

	TargetName() string
	TargetLength() int
	TargetStart() int
	TargetEnd() int
	TargetStrand() Strand

	Cigar() (cigar.Cigar, error)
	Stat() (cigar.Stat, error)
}

// Less returns whether a sorts before b, grouping records by target
// name in natural (numeric-aware) order and ordering equal names by
// ascending target start.
func Less(a, b Record) bool {
	an, bn := a.TargetName(), b.TargetName()
	if an == bn {
		return a.TargetStart() < b.TargetStart()
	}
	return sortorder.NaturalLess(an, bn)
}

// Sort sorts records according to Less. The sort is stable so records
// tied on both keys keep their input order.
func Sort(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool { return Less(recs[i], recs[j]) })
}
