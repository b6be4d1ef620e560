// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convert

import (
	"bytes"
	"errors"
	"strings"

	"gopkg.in/check.v1"

	"github.com/biogo/wga/maf"
)

func (s *S) TestMafToSam(c *check.C) {
	r, err := maf.NewReader(strings.NewReader(testMaf))
	c.Assert(err, check.Equals, nil)
	var buf bytes.Buffer
	err = MafToSam(r, &buf)
	c.Assert(err, check.Equals, nil)
	c.Check(buf.String(), check.Equals,
		"@HD\tVN:1.6\tSO:unsorted\n"+
			"@SQ\tSN:ref\tLN:40\n"+
			"contig\t0\tref\t1\t255\t4M\t*\t0\t0\tACGT\t*\tNM:i:0\n"+
			"contig\t16\tref\t11\t255\t5M1I1M1D1M\t*\t0\t0\tAGGTAACT\t*\tNM:i:3\n")
}

func (s *S) TestMafToSamSingleRow(c *check.C) {
	const in = `a score=0
s	ref	0	4	+	40	ACGT

`
	r, err := maf.NewReader(strings.NewReader(in))
	c.Assert(err, check.Equals, nil)
	err = MafToSam(r, &bytes.Buffer{})
	c.Check(errors.Is(err, maf.ErrRowCount), check.Equals, true)
}
