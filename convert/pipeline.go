// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convert

import (
	"bytes"
	"context"
	"io"

	"github.com/exascience/pargo/pipeline"

	"github.com/biogo/wga/maf"
	"github.com/biogo/wga/paf"
)

const (
	minBatchSize = 16
	maxBatchSize = 512
)

// blockSource adapts a maf.Reader to the pargo pipeline.Source
// interface, fetching batches of blocks.
type blockSource struct {
	r     *maf.Reader
	batch []*maf.Block
	err   error
}

// Err implements the method of the pipeline.Source interface.
func (s *blockSource) Err() error { return s.err }

// Prepare implements the method of the pipeline.Source interface.
func (s *blockSource) Prepare(_ context.Context) int { return -1 }

// Fetch implements the method of the pipeline.Source interface.
func (s *blockSource) Fetch(size int) int {
	// Batches are handed downstream, so each fetch needs fresh backing.
	s.batch = make([]*maf.Block, 0, size)
	for len(s.batch) < size {
		b, err := s.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.err = err
			break
		}
		s.batch = append(s.batch, b)
	}
	return len(s.batch)
}

// Data implements the method of the pipeline.Source interface.
func (s *blockSource) Data() interface{} { return s.batch }

// MafToPafParallel behaves as MafToPaf but derives the per-block
// operations on up to runtime.GOMAXPROCS worker goroutines, writing
// the rows to w in input order.
func MafToPafParallel(r *maf.Reader, w io.Writer) error {
	src := &blockSource{r: r}
	var p pipeline.Pipeline
	p.Source(src)
	p.SetVariableBatchSize(minBatchSize, maxBatchSize)
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			blocks := data.([]*maf.Block)
			var buf bytes.Buffer
			pw := paf.NewWriter(&buf)
			for _, b := range blocks {
				if err := b.Pair(); err != nil {
					p.SetErr(err)
					break
				}
				rec, err := PafRecord(b)
				if err != nil {
					p.SetErr(err)
					break
				}
				if err := pw.Write(rec); err != nil {
					p.SetErr(err)
					break
				}
			}
			return buf.Bytes()
		})),
		pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
			if _, err := w.Write(data.([]byte)); err != nil {
				p.SetErr(err)
			}
			return data
		})),
	)
	p.Run()
	return p.Err()
}
