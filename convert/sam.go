// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convert

import (
	"fmt"
	"io"
	"strings"

	"github.com/biogo/wga/align"
	"github.com/biogo/wga/maf"
)

// MafToSam converts every block of r to a SAM alignment line on w.
// The SAM header needs the set of target sequences up front, so the
// blocks are held in memory until the input is exhausted.
func MafToSam(r *maf.Reader, w io.Writer) error {
	var (
		blocks []*maf.Block
		refs   []string
		sizes  = make(map[string]int)
	)
	for {
		b, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := b.Pair(); err != nil {
			return err
		}
		if _, ok := sizes[b.TargetName()]; !ok {
			refs = append(refs, b.TargetName())
			sizes[b.TargetName()] = b.TargetLength()
		}
		blocks = append(blocks, b)
	}

	if _, err := fmt.Fprintf(w, "@HD\tVN:1.6\tSO:unsorted\n"); err != nil {
		return err
	}
	for _, name := range refs {
		if _, err := fmt.Fprintf(w, "@SQ\tSN:%s\tLN:%d\n", name, sizes[name]); err != nil {
			return err
		}
	}
	for _, b := range blocks {
		if err := writeSamLine(w, b); err != nil {
			return err
		}
	}
	return nil
}

func writeSamLine(w io.Writer, b *maf.Block) error {
	c, err := b.Cigar()
	if err != nil {
		return err
	}
	stat, err := b.Stat()
	if err != nil {
		return err
	}
	var flag int
	if b.QueryStrand() == align.Reverse {
		flag = 16
	}
	// The MAF query row is already oriented along the target, which is
	// the orientation SAM stores with the reverse flag set.
	seq := strings.ToUpper(strings.ReplaceAll(b.Rows[1].Seq, "-", ""))
	_, err = fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%s\t*\t0\t0\t%s\t*\tNM:i:%d\n",
		b.QueryName(), flag, b.TargetName(), b.TargetStart()+1, unknownMapQ,
		c.String(), seq, stat.EditDistance())
	return err
}
