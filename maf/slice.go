// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package maf

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOutOfRange is returned by Slice for a cut range that is not
	// covered by the block's target row.
	ErrOutOfRange = errors.New("maf: slice range outside block")

	// ErrSpanMismatch is returned when a row's stated span disagrees
	// with the non-gap content of its sequence.
	ErrSpanMismatch = errors.New("maf: row span disagrees with sequence")
)

// Slice returns a new block covering exactly the target-row ungapped
// range [start, end). The range is expressed in the target row's own
// coordinates, so slicing to [Rows[0].Start, Rows[0].Start+Rows[0].Span)
// reproduces the block unchanged, gap columns at the extremes
// included. Every row's sequence is cut at the same column range and
// its start and span recomputed from the bases the cut consumes.
func (b *Block) Slice(start, end int) (*Block, error) {
	if len(b.Rows) == 0 {
		return nil, ErrRowCount
	}
	t := b.Rows[0]
	if start >= end || start < t.Start || end > t.Start+t.Span {
		return nil, fmt.Errorf("%w: [%d,%d) of [%d,%d)", ErrOutOfRange, start, end, t.Start, t.Start+t.Span)
	}
	relStart, relEnd := start-t.Start, end-t.Start

	startCol := 0
	if relStart > 0 {
		startCol = columnOf(t.Seq, relStart)
	}
	endCol := len(t.Seq)
	if relEnd < t.Span {
		endCol = columnOf(t.Seq, relEnd)
	}
	if startCol < 0 || endCol < 0 {
		return nil, fmt.Errorf("%w: %q has fewer than %d bases", ErrSpanMismatch, t.Name, t.Span)
	}

	s := &Block{Score: b.Score, Rows: make([]Line, len(b.Rows)), offset: b.offset}
	for i, row := range b.Rows {
		if len(row.Seq) < endCol {
			return nil, fmt.Errorf("%w: %q is shorter than the block", ErrSpanMismatch, row.Name)
		}
		sub := row.Seq[startCol:endCol]
		span := len(sub) - strings.Count(sub, "-")
		cut := row
		cut.Seq = sub
		if i == 0 {
			if span != end-start {
				return nil, fmt.Errorf("%w: %q cut spans %d bases, want %d", ErrSpanMismatch, row.Name, span, end-start)
			}
			cut.Start = start
			cut.Span = end - start
		} else {
			consumed := len(row.Seq[:startCol]) - strings.Count(row.Seq[:startCol], "-")
			cut.Start = row.Start + consumed
			cut.Span = span
		}
		s.Rows[i] = cut
	}
	return s, nil
}

// columnOf returns the column index of the n-th (0-based) non-gap
// character of seq, or -1 when seq holds fewer bases.
func columnOf(seq string, n int) int {
	seen := 0
	for i := 0; i < len(seq); i++ {
		if seq[i] == '-' {
			continue
		}
		if seen == n {
			return i
		}
		seen++
	}
	return -1
}
