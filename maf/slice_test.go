// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package maf

import (
	"errors"

	"gopkg.in/check.v1"

	"github.com/biogo/wga/align"
)

func block() *Block {
	return &Block{
		Score: 42,
		Rows: []Line{
			{Name: "ref", Start: 100, Span: 11, Strand: align.Forward, Size: 100000, Seq: "AGC--CATCATT-A"},
			{Name: "contig", Start: 5, Span: 13, Strand: align.Forward, Size: 50, Seq: "AGCTTC-TCATTGA"},
		},
	}
}

func (s *S) TestSliceIdentity(c *check.C) {
	b := block()
	got, err := b.Slice(100, 111)
	c.Assert(err, check.Equals, nil)
	c.Check(got, check.DeepEquals, b)
}

func (s *S) TestSlice(c *check.C) {
	b := block()
	// Cut the target range [103,107): target bases C-A-T-C keep the
	// columns holding them.
	got, err := b.Slice(103, 107)
	c.Assert(err, check.Equals, nil)

	c.Check(got.Rows[0], check.Equals, Line{
		Name: "ref", Start: 103, Span: 4, Strand: align.Forward, Size: 100000, Seq: "CATC",
	})
	// The query consumed 5 bases before the cut begins and one of the
	// cut columns is a query gap.
	c.Check(got.Rows[1], check.Equals, Line{
		Name: "contig", Start: 10, Span: 3, Strand: align.Forward, Size: 50, Seq: "C-TC",
	})
	c.Check(got.Score, check.Equals, b.Score)
	c.Check(got.Offset(), check.Equals, b.Offset())
}

func (s *S) TestSliceLeadingGapColumns(c *check.C) {
	b := &Block{Rows: []Line{
		{Name: "ref", Start: 100, Span: 10, Strand: align.Forward, Size: 100000, Seq: "---AGCCATCATT"},
		{Name: "contig", Start: 0, Span: 13, Strand: align.Forward, Size: 13, Seq: "TTTAGCCATCATT"},
	}}
	// A full-range cut keeps the leading insertion columns.
	got, err := b.Slice(100, 110)
	c.Assert(err, check.Equals, nil)
	c.Check(got, check.DeepEquals, b)

	// An interior cut drops them.
	got, err = b.Slice(101, 110)
	c.Assert(err, check.Equals, nil)
	c.Check(got.Rows[0].Seq, check.Equals, "GCCATCATT")
	c.Check(got.Rows[1].Seq, check.Equals, "GCCATCATT")
	c.Check(got.Rows[1].Start, check.Equals, 4)
	c.Check(got.Rows[1].Span, check.Equals, 9)
}

func (s *S) TestSliceErrors(c *check.C) {
	b := block()
	for _, test := range []struct {
		start, end int
	}{
		{start: 99, end: 105},
		{start: 100, end: 112},
		{start: 105, end: 105},
		{start: 107, end: 103},
	} {
		_, err := b.Slice(test.start, test.end)
		c.Check(errors.Is(err, ErrOutOfRange), check.Equals, true,
			check.Commentf("[%d,%d): got %v", test.start, test.end, err))
	}

	short := &Block{Rows: []Line{
		// Span claims more bases than the sequence holds.
		{Name: "ref", Start: 0, Span: 10, Strand: align.Forward, Size: 100, Seq: "ACG-T"},
		{Name: "contig", Start: 0, Span: 5, Strand: align.Forward, Size: 100, Seq: "ACGTT"},
	}}
	_, err := short.Slice(2, 8)
	c.Check(errors.Is(err, ErrSpanMismatch), check.Equals, true)

	empty := &Block{}
	_, err = empty.Slice(0, 1)
	c.Check(err, check.Equals, ErrRowCount)
}
