// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cigar implements CIGAR operation handling for pairwise
// whole-genome alignments: deriving operation runs from a pair of
// gapped row sequences, and decoding CIGAR strings stored by formats
// that do not carry bases.
package cigar

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned when a CIGAR string cannot be decoded.
	ErrMalformed = errors.New("cigar: malformed cigar string")

	// ErrRowLength is returned by Derive when the two rows do not
	// share a column count.
	ErrRowLength = errors.New("cigar: row length mismatch")

	// ErrStatRange is returned when an edit distance is too small to
	// account for the indels already present in the operations.
	ErrStatRange = errors.New("cigar: edit distance less than indel length")
)

// Cigar is a set of CIGAR operations.
type Cigar []Op

// String returns the CIGAR string for c.
func (c Cigar) String() string {
	if len(c) == 0 {
		return "*"
	}
	var b bytes.Buffer
	for _, op := range c {
		fmt.Fprint(&b, op)
	}
	return b.String()
}

// Lengths returns the number of target and query bases described by
// the Cigar.
func (c Cigar) Lengths() (target, query int) {
	var con Consume
	for _, op := range c {
		con = op.Type().Consumes()
		target += op.Len() * con.Target
		query += op.Len() * con.Query
	}
	return target, query
}

// Stat returns the aggregate operation counts for c. A bare 'M' does
// not distinguish sequence match from mismatch, so Mismatches is zero
// unless the Cigar carries explicit '=' and 'X' operations; use
// StatWithEditDistance when an NM-style tag is available.
func (c Cigar) Stat() Stat {
	var s Stat
	for _, op := range c {
		n := op.Len()
		switch op.Type() {
		case Match, Equal:
			s.Matches += n
		case Mismatch:
			s.Mismatches += n
		case Insertion:
			s.Insertions += n
		case Deletion:
			s.Deletions += n
		}
	}
	return s
}

// StatWithEditDistance returns the aggregate counts for c, inferring
// the mismatch count from the given edit distance as nm-ins-del and
// reducing the match count accordingly.
func StatWithEditDistance(c Cigar, nm int) (Stat, error) {
	s := c.Stat()
	mismatches := nm - s.Insertions - s.Deletions
	if mismatches < 0 {
		return Stat{}, fmt.Errorf("%w: NM=%d I=%d D=%d", ErrStatRange, nm, s.Insertions, s.Deletions)
	}
	if mismatches > s.Matches+s.Mismatches {
		return Stat{}, fmt.Errorf("%w: NM=%d exceeds aligned length", ErrStatRange, nm)
	}
	s.Matches = s.Matches + s.Mismatches - mismatches
	s.Mismatches = mismatches
	return s, nil
}

// Stat holds aggregate base counts for an alignment record.
type Stat struct {
	Matches    int
	Mismatches int
	Insertions int
	Deletions  int
}

// BlockLength returns the total number of alignment columns described
// by the counts.
func (s Stat) BlockLength() int {
	return s.Matches + s.Mismatches + s.Insertions + s.Deletions
}

// EditDistance returns the NM-style edit distance for the counts.
func (s Stat) EditDistance() int {
	return s.Mismatches + s.Insertions + s.Deletions
}

// Op is a single CIGAR operation including the operation type and the
// length of the operation.
type Op uint32

// NewOp returns a CIGAR operation of the specified type with length n.
func NewOp(t OpType, n int) Op {
	return Op(t) | (Op(n) << 4)
}

// Type returns the type of the CIGAR operation for the Op.
func (o Op) Type() OpType { return OpType(o & 0xf) }

// Len returns the number of positions affected by the Op.
func (o Op) Len() int { return int(o >> 4) }

// String returns the string representation of the Op.
func (o Op) String() string { return fmt.Sprintf("%d%s", o.Len(), o.Type().String()) }

// An OpType represents the type of operation described by an Op.
type OpType byte

const (
	Match     OpType = iota // Alignment match (sequence match or mismatch).
	Insertion               // Insertion to the target.
	Deletion                // Deletion from the target.
	Equal                   // Sequence match.
	Mismatch                // Sequence mismatch.
	lastOp
)

var opLetters = []string{"M", "I", "D", "=", "X", "?"}

// String returns the string representation of an OpType.
func (t OpType) String() string {
	if t > lastOp {
		t = lastOp
	}
	return opLetters[t]
}

// Consumes returns the alignment consumption characteristics for the
// OpType.
//
// The Consume values for each of the OpTypes is as follows:
//
//	           Query  Target
//	Match        1      1
//	Insertion    1      0
//	Deletion     0      1
//	Equal        1      1
//	Mismatch     1      1
func (t OpType) Consumes() Consume { return consume[t] }

// Consume describes how CIGAR operations consume alignment bases.
type Consume struct {
	Query, Target int
}

var consume = []Consume{
	Match:     {Query: 1, Target: 1},
	Insertion: {Query: 1, Target: 0},
	Deletion:  {Query: 0, Target: 1},
	Equal:     {Query: 1, Target: 1},
	Mismatch:  {Query: 1, Target: 1},
	lastOp:    {},
}

var opTypeLookup [256]OpType

func init() {
	for i := range opTypeLookup {
		opTypeLookup[i] = lastOp
	}
	for op, c := range []byte{'M', 'I', 'D', '=', 'X'} {
		opTypeLookup[c] = OpType(op)
	}
}

var powers = []int{1e0, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8}

// atoi returns the integer interpretation of b which must be an ASCII
// decimal number representation.
func atoi(b []byte, i int) (int, error) {
	if len(b) == 0 || len(b) > len(powers) {
		return 0, fmt.Errorf("%w: invalid operation count %q at %d", ErrMalformed, b, i)
	}
	n := 0
	k := len(b) - 1
	for i, v := range b {
		if v < '0' || '9' < v {
			return 0, fmt.Errorf("%w: invalid operation count %q at %d", ErrMalformed, b, i)
		}
		n += int(v-'0') * powers[k-i]
	}
	return n, nil
}

// Parse returns a Cigar parsed from the provided byte slice. A single
// '*' yields a nil Cigar.
func Parse(b []byte) (Cigar, error) {
	if len(b) == 1 && b[0] == '*' {
		return nil, nil
	}
	var (
		c   Cigar
		op  OpType
		n   int
		err error
	)
	for i := 0; i < len(b); i++ {
		op = lastOp
		for j := i; j < len(b); j++ {
			if b[j] < '0' || '9' < b[j] {
				n, err = atoi(b[i:j], i)
				if err != nil {
					return nil, err
				}
				op = opTypeLookup[b[j]]
				i = j
				break
			}
		}
		if op == lastOp {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, b)
		}
		c = append(c, NewOp(op, n))
	}
	return c, nil
}

// ParseString returns a Cigar parsed from the provided string.
func ParseString(s string) (Cigar, error) { return Parse([]byte(s)) }

// Derive scans a target and a query gapped row sequence in lock-step
// and classifies each column, merging adjacent columns of the same
// class into run-length operations. Base comparison ignores letter
// case; mismatch columns are collapsed into 'M' runs in the returned
// Cigar but counted separately in the returned Stat. A column holding
// a gap in both rows describes neither sequence and is skipped; blocks
// projected from more than two rows produce such columns routinely.
func Derive(target, query string) (Cigar, Stat, error) {
	if len(target) != len(query) {
		return nil, Stat{}, fmt.Errorf("%w: %d != %d", ErrRowLength, len(target), len(query))
	}
	var (
		c     Cigar
		s     Stat
		cur   OpType = lastOp
		curN  int
		flush = func() {
			if curN != 0 {
				c = append(c, NewOp(cur, curN))
			}
		}
	)
	for i := 0; i < len(target); i++ {
		t, q := target[i], query[i]
		var op OpType
		switch {
		case t == '-' && q == '-':
			continue
		case t == '-':
			op = Insertion
			s.Insertions++
		case q == '-':
			op = Deletion
			s.Deletions++
		default:
			op = Match
			if toUpper(t) == toUpper(q) {
				s.Matches++
			} else {
				s.Mismatches++
			}
		}
		if op != cur {
			flush()
			cur, curN = op, 0
		}
		curN++
	}
	flush()
	return c, s, nil
}

func toUpper(b byte) byte {
	if 'a' <= b && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
