// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package maf

import (
	"bytes"
	"errors"
	"strings"

	"github.com/kortschak/utter"
	"gopkg.in/check.v1"

	"github.com/biogo/wga/align"
)

func (s *S) TestBuildIndex(c *check.C) {
	r, err := NewReader(strings.NewReader(twoBlocks))
	c.Assert(err, check.Equals, nil)
	idx, err := BuildIndex(r)
	c.Assert(err, check.Equals, nil)
	c.Assert(idx, check.HasLen, 2)

	want := Index{
		"ref": &IndexEntry{
			Size: 100000, Ord: 0,
			Ivls: []Interval{
				{Start: 100, End: 110, Strand: align.Forward, Offset: int64(strings.Index(twoBlocks, "s ref    100"))},
				{Start: 200, End: 212, Strand: align.Forward, Offset: int64(strings.Index(twoBlocks, "s ref    200"))},
			},
		},
		"contig": &IndexEntry{
			Size: 10, Ord: 1,
			Ivls: []Interval{
				{Start: 0, End: 10, Strand: align.Forward, Offset: int64(strings.Index(twoBlocks, "s ref    100"))},
				{Start: 20, End: 32, Strand: align.Reverse, Offset: int64(strings.Index(twoBlocks, "s ref    200"))},
			},
		},
	}
	c.Check(idx, check.DeepEquals, want,
		check.Commentf("got:\n%swant:\n%s", utter.Sdump(idx), utter.Sdump(want)))
}

func (s *S) TestBuildIndexDuplicateName(c *check.C) {
	const in = `a
s ref    0 4 + 100 ACGT
s ref    4 4 + 100 ACGT

`
	r, err := NewReader(strings.NewReader(in))
	c.Assert(err, check.Equals, nil)
	_, err = BuildIndex(r)
	c.Check(errors.Is(err, ErrDuplicateName), check.Equals, true)
}

func (s *S) TestBuildIndexRowOrder(c *check.C) {
	const in = `a
s ref    0 4 + 100 ACGT
s contig 0 4 +  10 ACGT

a
s contig 4 4 +  10 ACGT
s ref    4 4 + 100 ACGT

`
	r, err := NewReader(strings.NewReader(in))
	c.Assert(err, check.Equals, nil)
	_, err = BuildIndex(r)
	c.Check(errors.Is(err, ErrRowOrder), check.Equals, true)
}

func (s *S) TestBuildIndexEmpty(c *check.C) {
	r, err := NewReader(strings.NewReader("##maf version=1\n"))
	c.Assert(err, check.Equals, nil)
	_, err = BuildIndex(r)
	c.Check(err, check.Equals, ErrEmptyInput)
}

func (s *S) TestBuildIndexBadBlock(c *check.C) {
	const in = `a
s ref 0 four + 100 ACGT
s contig 0 4 + 10 ACGT

`
	r, err := NewReader(strings.NewReader(in))
	c.Assert(err, check.Equals, nil)
	_, err = BuildIndex(r)
	c.Check(errors.Is(err, ErrInvalidNumber), check.Equals, true)
}

func (s *S) TestIndexRoundTrip(c *check.C) {
	r, err := NewReader(strings.NewReader(twoBlocks))
	c.Assert(err, check.Equals, nil)
	idx, err := BuildIndex(r)
	c.Assert(err, check.Equals, nil)

	var buf bytes.Buffer
	err = idx.WriteTo(&buf)
	c.Assert(err, check.Equals, nil)
	// Strands marshal as their sign characters.
	c.Check(strings.Contains(buf.String(), `"strand":"-"`), check.Equals, true)

	got, err := ReadIndex(&buf)
	c.Assert(err, check.Equals, nil)
	c.Check(got, check.DeepEquals, idx)
}
