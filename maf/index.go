// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package maf

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/biogo/wga/align"
)

var (
	// ErrDuplicateName is returned by BuildIndex when a sequence name
	// appears in more than one row of a single block.
	ErrDuplicateName = errors.New("maf: duplicate sequence name in block")

	// ErrRowOrder is returned by BuildIndex when a sequence name
	// appears at different row ordinals in different blocks.
	ErrRowOrder = errors.New("maf: inconsistent row order between blocks")

	// ErrEmptyInput is returned by BuildIndex for a source holding no
	// blocks.
	ErrEmptyInput = errors.New("maf: empty input")
)

// Index maps sequence names to the blocks they participate in.
type Index map[string]*IndexEntry

// An IndexEntry records every block interval a sequence appears in,
// along with the sequence's full length and its row ordinal. A name
// must occupy the same ordinal in every block it appears in.
type IndexEntry struct {
	Ivls []Interval `json:"ivls"`
	Size int        `json:"size"`
	Ord  int        `json:"ord"`
}

// An Interval is one block's coverage of a sequence, with the byte
// offset of the block's first row in the MAF source for later seeking.
type Interval struct {
	Start  int          `json:"start"`
	End    int          `json:"end"`
	Strand align.Strand `json:"strand"`
	Offset int64        `json:"offset"`
}

// BuildIndex consumes r in a single forward pass and returns the
// per-sequence interval index. Structural violations abort the build:
// a duplicate name within one block, a name whose row ordinal changes
// between blocks, any unreadable block, or an entirely empty source.
func BuildIndex(r *Reader) (Index, error) {
	idx := make(Index)
	for {
		b, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(b.Rows))
		for ord, row := range b.Rows {
			if seen[row.Name] {
				return nil, fmt.Errorf("%w: %q at offset %d", ErrDuplicateName, row.Name, b.Offset())
			}
			seen[row.Name] = true
			e, ok := idx[row.Name]
			if !ok {
				e = &IndexEntry{Size: row.Size, Ord: ord}
				idx[row.Name] = e
			} else if e.Ord != ord {
				return nil, fmt.Errorf("%w: %q row %d, previously %d", ErrRowOrder, row.Name, ord, e.Ord)
			}
			e.Ivls = append(e.Ivls, Interval{
				Start:  row.Start,
				End:    row.Start + row.Span,
				Strand: row.Strand,
				Offset: b.Offset(),
			})
		}
	}
	if len(idx) == 0 {
		return nil, ErrEmptyInput
	}
	return idx, nil
}

// WriteTo serializes the index as JSON to w.
func (idx Index) WriteTo(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(idx)
}

// ReadIndex returns an Index decoded from the JSON stream in r.
func ReadIndex(r io.Reader) (Index, error) {
	var idx Index
	if err := json.NewDecoder(r).Decode(&idx); err != nil {
		return nil, err
	}
	return idx, nil
}
