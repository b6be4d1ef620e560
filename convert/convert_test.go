// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convert

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"gopkg.in/check.v1"

	"github.com/biogo/wga/align"
	"github.com/biogo/wga/chain"
	"github.com/biogo/wga/maf"
	"github.com/biogo/wga/paf"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

// One forward and one reverse-strand alignment. The second block pairs
// AGCTA-CGT with AGGTAAC-T: five matches, a mismatch in column two, an
// insertion, and a deletion.
const testMaf = `##maf version=1
a score=100
s	ref	0	4	+	40	ACGT
s	contig	0	4	+	30	ACGT

a score=90
s	ref	10	8	+	40	AGCTA-CGT
s	contig	10	8	-	30	AGGTAAC-T

`

func readBlocks(c *check.C, in string) []*maf.Block {
	r, err := maf.NewReader(strings.NewReader(in))
	c.Assert(err, check.Equals, nil)
	var blocks []*maf.Block
	for {
		b, err := r.Read()
		if err != nil {
			return blocks
		}
		blocks = append(blocks, b)
	}
}

func (s *S) TestPafRecord(c *check.C) {
	blocks := readBlocks(c, testMaf)
	c.Assert(blocks, check.HasLen, 2)

	rec, err := PafRecord(blocks[1])
	c.Assert(err, check.Equals, nil)
	c.Check(rec, check.DeepEquals, &paf.Record{
		QName: "contig", QLen: 30, QStart: 12, QEnd: 20, Strand: align.Reverse,
		TName: "ref", TLen: 40, TStart: 10, TEnd: 18,
		Matches: 6, BlockLen: 9, MapQ: 255,
		Tags: []string{"NM:i:3", "cg:Z:5M1I1M1D1M"},
	})
}

func (s *S) TestChainRecord(c *check.C) {
	blocks := readBlocks(c, testMaf)
	c.Assert(blocks, check.HasLen, 2)

	rec, err := ChainRecord(blocks[1], 7)
	c.Assert(err, check.Equals, nil)
	c.Check(rec, check.DeepEquals, &chain.Record{
		Score: 6,
		TName: "ref", TSize: 40, TStrand: align.Forward, TStart: 10, TEnd: 18,
		QName: "contig", QSize: 30, QStrand: align.Reverse, QStart: 10, QEnd: 18,
		ID:    7,
		Spans: []chain.Span{{Size: 5, DQ: 1}, {Size: 1, DT: 1}, {Size: 1}},
	})
}

func (s *S) TestChainRecordTrailingGap(c *check.C) {
	rec := &paf.Record{
		QName: "contig", QLen: 10, QStart: 0, QEnd: 4, Strand: align.Forward,
		TName: "ref", TLen: 10, TStart: 0, TEnd: 6,
		Tags: []string{"cg:Z:4M2D"},
	}
	out, err := ChainRecord(rec, 1)
	c.Assert(err, check.Equals, nil)
	// A trailing gap still needs the bare terminal size line.
	c.Check(out.Spans, check.DeepEquals, []chain.Span{{Size: 4, DT: 2}, {}})
}

// mapSource serves bases from in-memory sequences.
type mapSource map[string]string

func (m mapSource) Sequence(name string, start, end int) (string, error) {
	seq, ok := m[name]
	if !ok {
		return "", fmt.Errorf("mapSource: no sequence %q", name)
	}
	if start < 0 || end < start || len(seq) < end {
		return "", fmt.Errorf("mapSource: %s:[%d,%d) out of range", name, start, end)
	}
	return seq[start:end], nil
}

func testSources() (target, query mapSource) {
	target = mapSource{"ref": strings.Repeat("N", 10) + "AGCTACGT" + strings.Repeat("N", 22)}
	query = mapSource{"contig": strings.Repeat("N", 12) + "AGTTACCT" + strings.Repeat("N", 10)}
	return target, query
}

func (s *S) TestMafBlock(c *check.C) {
	rec := &paf.Record{
		QName: "contig", QLen: 30, QStart: 12, QEnd: 20, Strand: align.Reverse,
		TName: "ref", TLen: 40, TStart: 10, TEnd: 18,
		Matches: 6, BlockLen: 9, MapQ: 255,
		Tags: []string{"NM:i:3", "cg:Z:5M1I1M1D1M"},
	}
	target, query := testSources()

	b, err := MafBlock(rec, target, query)
	c.Assert(err, check.Equals, nil)
	c.Check(b.Rows, check.DeepEquals, []maf.Line{
		{Name: "ref", Start: 10, Span: 8, Strand: align.Forward, Size: 40, Seq: "AGCTA-CGT"},
		{Name: "contig", Start: 10, Span: 8, Strand: align.Reverse, Size: 30, Seq: "AGGTAAC-T"},
	})
}

func (s *S) TestMafBlockErrors(c *check.C) {
	rec := &paf.Record{
		QName: "contig", QLen: 30, QStart: 12, QEnd: 20, Strand: align.Reverse,
		TName: "ref", TLen: 40, TStart: 10, TEnd: 18,
		Tags: []string{"cg:Z:4M"},
	}
	target, query := testSources()

	_, err := MafBlock(rec, nil, nil)
	c.Check(err, check.Equals, ErrNoSequenceSource)

	// The operations cover four columns but the coordinates fetch
	// eight bases.
	_, err = MafBlock(rec, target, query)
	c.Check(err, check.ErrorMatches, "convert: sequence length disagrees with alignment.*")

	rec.Tags = nil
	_, err = MafBlock(rec, target, query)
	c.Check(err, check.Equals, paf.ErrNoCigarTag)
}

func (s *S) TestMafToPaf(c *check.C) {
	r, err := maf.NewReader(strings.NewReader(testMaf))
	c.Assert(err, check.Equals, nil)
	var buf bytes.Buffer
	err = MafToPaf(r, paf.NewWriter(&buf))
	c.Assert(err, check.Equals, nil)
	c.Check(buf.String(), check.Equals,
		"contig\t30\t0\t4\t+\tref\t40\t0\t4\t4\t4\t255\tNM:i:0\tcg:Z:4M\n"+
			"contig\t30\t12\t20\t-\tref\t40\t10\t18\t6\t9\t255\tNM:i:3\tcg:Z:5M1I1M1D1M\n")
}

func (s *S) TestMafToChain(c *check.C) {
	r, err := maf.NewReader(strings.NewReader(testMaf))
	c.Assert(err, check.Equals, nil)
	var buf bytes.Buffer
	err = MafToChain(r, chain.NewWriter(&buf))
	c.Assert(err, check.Equals, nil)
	c.Check(buf.String(), check.Equals,
		"chain 4 ref 40 + 0 4 contig 30 + 0 4 1\n4\n\n"+
			"chain 6 ref 40 + 10 18 contig 30 - 10 18 2\n5\t0\t1\n1\t1\t0\n1\n\n")
}

func (s *S) TestPafToChainRoundTrip(c *check.C) {
	r, err := maf.NewReader(strings.NewReader(testMaf))
	c.Assert(err, check.Equals, nil)
	var pafBuf bytes.Buffer
	c.Assert(MafToPaf(r, paf.NewWriter(&pafBuf)), check.Equals, nil)

	var chainBuf bytes.Buffer
	err = PafToChain(paf.NewReader(&pafBuf), chain.NewWriter(&chainBuf))
	c.Assert(err, check.Equals, nil)

	var pafBuf2 bytes.Buffer
	err = ChainToPaf(chain.NewReader(&chainBuf), paf.NewWriter(&pafBuf2))
	c.Assert(err, check.Equals, nil)

	// Chain data cannot carry the mismatch distinction, so the match
	// count absorbs the mismatch and the NM tag degrades to the gap
	// count; coordinates and operations survive.
	c.Check(pafBuf2.String(), check.Equals,
		"contig\t30\t0\t4\t+\tref\t40\t0\t4\t4\t4\t255\tNM:i:0\tcg:Z:4M\n"+
			"contig\t30\t12\t20\t-\tref\t40\t10\t18\t7\t9\t255\tNM:i:2\tcg:Z:5M1I1M1D1M\n")
}

func (s *S) TestPafToMafRoundTrip(c *check.C) {
	r, err := maf.NewReader(strings.NewReader(testMaf))
	c.Assert(err, check.Equals, nil)
	var pafBuf bytes.Buffer
	c.Assert(MafToPaf(r, paf.NewWriter(&pafBuf)), check.Equals, nil)

	target := mapSource{"ref": "ACGT" + strings.Repeat("N", 6) + "AGCTACGT" + strings.Repeat("N", 22)}
	query := mapSource{"contig": "ACGT" + strings.Repeat("N", 8) + "AGTTACCT" + strings.Repeat("N", 10)}

	var mafBuf bytes.Buffer
	err = PafToMaf(paf.NewReader(&pafBuf), maf.NewWriter(&mafBuf), target, query)
	c.Assert(err, check.Equals, nil)

	// Scores are not carried through PAF; rows and coordinates are.
	want := strings.ReplaceAll(testMaf, "a score=100", "a score=255")
	want = strings.ReplaceAll(want, "a score=90", "a score=255")
	c.Check(mafBuf.String(), check.Equals, want)

	err = PafToMaf(paf.NewReader(&pafBuf), maf.NewWriter(&mafBuf), nil, query)
	c.Check(err, check.Equals, ErrNoSequenceSource)
}

func (s *S) TestChainToMafRequiresSources(c *check.C) {
	err := ChainToMaf(chain.NewReader(strings.NewReader("")), maf.NewWriter(&bytes.Buffer{}), nil, nil)
	c.Check(err, check.Equals, ErrNoSequenceSource)
}

func (s *S) TestSortPaf(c *check.C) {
	recs := []*paf.Record{
		{TName: "chr10", TStart: 1},
		{TName: "chr2", TStart: 50},
		{TName: "chr2", TStart: 10},
	}
	SortPaf(recs)
	c.Check(recs[0].TName, check.Equals, "chr2")
	c.Check(recs[0].TStart, check.Equals, 10)
	c.Check(recs[1].TStart, check.Equals, 50)
	c.Check(recs[2].TName, check.Equals, "chr10")
}

func (s *S) TestMafToPafParallel(c *check.C) {
	var blocks strings.Builder
	blocks.WriteString("##maf version=1\n")
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&blocks, "a score=%d\ns ref\t%d\t4\t+\t1000\tACGT\ns contig\t%d\t4\t+\t1000\tACGT\n\n", i, i*4, i*4)
	}

	serial, err := maf.NewReader(strings.NewReader(blocks.String()))
	c.Assert(err, check.Equals, nil)
	var want bytes.Buffer
	c.Assert(MafToPaf(serial, paf.NewWriter(&want)), check.Equals, nil)

	parallel, err := maf.NewReader(strings.NewReader(blocks.String()))
	c.Assert(err, check.Equals, nil)
	var got bytes.Buffer
	c.Assert(MafToPafParallel(parallel, &got), check.Equals, nil)

	c.Check(got.String(), check.Equals, want.String())
}
