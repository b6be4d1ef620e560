// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package convert builds alignment records in one format from records
// in another. All conversions go through the align.Record capability,
// so each direction is written once per output format: any source
// format that exposes the capability can feed any builder here.
//
// Directions that emit bases (MAF output) cannot proceed from formats
// that store only coordinates unless SequenceSource lookups for the
// target and query genomes are supplied; they fail rather than emit
// placeholder sequence.
package convert

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/wga/align"
	"github.com/biogo/wga/chain"
	"github.com/biogo/wga/cigar"
	"github.com/biogo/wga/fasta"
	"github.com/biogo/wga/maf"
	"github.com/biogo/wga/paf"
)

var (
	// ErrNoSequenceSource is returned by conversions that must
	// reconstruct bases when no sequence lookup is available.
	ErrNoSequenceSource = errors.New("convert: sequence source required but not available")

	// ErrLengthMismatch is returned when looked-up sequence does not
	// cover the extent the record's operations describe.
	ErrLengthMismatch = errors.New("convert: sequence length disagrees with alignment")
)

// A SequenceSource provides random access to the forward-strand bases
// of named sequences over half-open intervals.
type SequenceSource interface {
	Sequence(name string, start, end int) (string, error)
}

// The mapping quality emitted for converted records. Whole-genome
// alignments carry no mapping quality of their own.
const unknownMapQ = 255

// PafRecord builds a PAF record from rec, deriving the match counts
// and attaching NM:i: and cg:Z: tags.
func PafRecord(rec align.Record) (*paf.Record, error) {
	c, err := rec.Cigar()
	if err != nil {
		return nil, err
	}
	stat, err := rec.Stat()
	if err != nil {
		return nil, err
	}
	return &paf.Record{
		QName:    rec.QueryName(),
		QLen:     rec.QueryLength(),
		QStart:   rec.QueryStart(),
		QEnd:     rec.QueryEnd(),
		Strand:   rec.QueryStrand(),
		TName:    rec.TargetName(),
		TLen:     rec.TargetLength(),
		TStart:   rec.TargetStart(),
		TEnd:     rec.TargetEnd(),
		Matches:  stat.Matches,
		BlockLen: stat.BlockLength(),
		MapQ:     unknownMapQ,
		Tags: []string{
			paf.TagEditDistance + strconv.Itoa(stat.EditDistance()),
			paf.TagCigar + c.String(),
		},
	}, nil
}

// ChainRecord builds a chain record from rec, folding the operation
// runs into gapless spans. The record's score is the aligned match
// count; id becomes the trailing chain id field.
func ChainRecord(rec align.Record, id int) (*chain.Record, error) {
	c, err := rec.Cigar()
	if err != nil {
		return nil, err
	}
	stat, err := rec.Stat()
	if err != nil {
		return nil, err
	}
	qStart, qEnd := rec.QueryStart(), rec.QueryEnd()
	if rec.QueryStrand() == align.Reverse {
		// Chain query coordinates follow the MAF convention for
		// reverse-strand intervals.
		qStart, qEnd = rec.QueryLength()-qEnd, rec.QueryLength()-qStart
	}
	return &chain.Record{
		Score:   int64(stat.Matches),
		TName:   rec.TargetName(),
		TSize:   rec.TargetLength(),
		TStrand: align.Forward,
		TStart:  rec.TargetStart(),
		TEnd:    rec.TargetEnd(),
		QName:   rec.QueryName(),
		QSize:   rec.QueryLength(),
		QStrand: rec.QueryStrand(),
		QStart:  qStart,
		QEnd:    qEnd,
		ID:      id,
		Spans:   spansOf(c),
	}, nil
}

// spansOf folds operation runs into chain spans, merging adjacent
// gaps into the span they follow.
func spansOf(c cigar.Cigar) []chain.Span {
	var (
		spans []chain.Span
		cur   chain.Span
	)
	for _, op := range c {
		n := op.Len()
		switch op.Type() {
		case cigar.Match, cigar.Equal, cigar.Mismatch:
			if cur.DT != 0 || cur.DQ != 0 {
				spans = append(spans, cur)
				cur = chain.Span{}
			}
			cur.Size += n
		case cigar.Deletion:
			cur.DT += n
		case cigar.Insertion:
			cur.DQ += n
		}
	}
	spans = append(spans, cur)
	if last := &spans[len(spans)-1]; last.DT != 0 || last.DQ != 0 {
		// A trailing gap still needs the bare terminal size line.
		spans = append(spans, chain.Span{})
	}
	return spans
}

// MafBlock builds a MAF block from rec, reconstructing the gapped row
// sequences from the target and query sequence sources.
func MafBlock(rec align.Record, target, query SequenceSource) (*maf.Block, error) {
	if target == nil || query == nil {
		return nil, ErrNoSequenceSource
	}
	c, err := rec.Cigar()
	if err != nil {
		return nil, err
	}
	tSeq, err := target.Sequence(rec.TargetName(), rec.TargetStart(), rec.TargetEnd())
	if err != nil {
		return nil, err
	}
	qSeq, err := query.Sequence(rec.QueryName(), rec.QueryStart(), rec.QueryEnd())
	if err != nil {
		return nil, err
	}
	if rec.QueryStrand() == align.Reverse {
		qSeq = string(fasta.ReverseComplement([]byte(qSeq)))
	}
	tLen, qLen := c.Lengths()
	if tLen != len(tSeq) || qLen != len(qSeq) {
		return nil, fmt.Errorf("%w: ops cover %dx%d, sequence %dx%d",
			ErrLengthMismatch, tLen, qLen, len(tSeq), len(qSeq))
	}

	var tRow, qRow strings.Builder
	tRow.Grow(len(tSeq))
	qRow.Grow(len(qSeq))
	var ti, qi int
	for _, op := range c {
		n := op.Len()
		switch op.Type() {
		case cigar.Match, cigar.Equal, cigar.Mismatch:
			tRow.WriteString(tSeq[ti : ti+n])
			qRow.WriteString(qSeq[qi : qi+n])
			ti += n
			qi += n
		case cigar.Deletion:
			tRow.WriteString(tSeq[ti : ti+n])
			qRow.WriteString(strings.Repeat("-", n))
			ti += n
		case cigar.Insertion:
			tRow.WriteString(strings.Repeat("-", n))
			qRow.WriteString(qSeq[qi : qi+n])
			qi += n
		}
	}

	qStart := rec.QueryStart()
	if rec.QueryStrand() == align.Reverse {
		qStart = rec.QueryLength() - rec.QueryEnd()
	}
	return &maf.Block{
		Score: defaultScore,
		Rows: []maf.Line{
			{
				Name:   rec.TargetName(),
				Start:  rec.TargetStart(),
				Span:   rec.TargetEnd() - rec.TargetStart(),
				Strand: align.Forward,
				Size:   rec.TargetLength(),
				Seq:    tRow.String(),
			},
			{
				Name:   rec.QueryName(),
				Start:  qStart,
				Span:   rec.QueryEnd() - rec.QueryStart(),
				Strand: rec.QueryStrand(),
				Size:   rec.QueryLength(),
				Seq:    qRow.String(),
			},
		},
	}, nil
}

// defaultScore is recorded on reconstructed MAF blocks, which have no
// score of their own.
const defaultScore = 255

// SortPaf sorts PAF records by target name in natural order and then
// by ascending target start, keeping input order for ties.
func SortPaf(recs []*paf.Record) {
	sort.SliceStable(recs, func(i, j int) bool { return align.Less(recs[i], recs[j]) })
}
