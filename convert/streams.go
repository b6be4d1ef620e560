// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convert

import (
	"io"

	"github.com/biogo/wga/chain"
	"github.com/biogo/wga/maf"
	"github.com/biogo/wga/paf"
)

// MafToPaf converts every block of r to a PAF row on w, preserving
// input order. The first malformed block or failed derivation aborts
// the conversion.
func MafToPaf(r *maf.Reader, w *paf.Writer) error {
	for {
		b, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := b.Pair(); err != nil {
			return err
		}
		rec, err := PafRecord(b)
		if err != nil {
			return err
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
}

// MafToChain converts every block of r to a chain record on w,
// assigning sequential chain ids starting at 1.
func MafToChain(r *maf.Reader, w *chain.Writer) error {
	id := 0
	for {
		b, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := b.Pair(); err != nil {
			return err
		}
		id++
		rec, err := ChainRecord(b, id)
		if err != nil {
			return err
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
}

// PafToChain converts every row of r to a chain record on w, assigning
// sequential chain ids starting at 1. Rows without a cg:Z: tag abort
// the conversion.
func PafToChain(r *paf.Reader, w *chain.Writer) error {
	id := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		id++
		out, err := ChainRecord(rec, id)
		if err != nil {
			return err
		}
		if err := w.Write(out); err != nil {
			return err
		}
	}
}

// ChainToPaf converts every record of r to a PAF row on w.
func ChainToPaf(r *chain.Reader, w *paf.Writer) error {
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		out, err := PafRecord(rec)
		if err != nil {
			return err
		}
		if err := w.Write(out); err != nil {
			return err
		}
	}
}

// PafToMaf converts every row of r to a MAF block on w, reconstructing
// bases from the target and query sequence sources.
func PafToMaf(r *paf.Reader, w *maf.Writer, target, query SequenceSource) error {
	if target == nil || query == nil {
		return ErrNoSequenceSource
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		b, err := MafBlock(rec, target, query)
		if err != nil {
			return err
		}
		if err := w.Write(b); err != nil {
			return err
		}
	}
}

// ChainToMaf converts every record of r to a MAF block on w,
// reconstructing bases from the target and query sequence sources.
func ChainToMaf(r *chain.Reader, w *maf.Writer, target, query SequenceSource) error {
	if target == nil || query == nil {
		return ErrNoSequenceSource
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		b, err := MafBlock(rec, target, query)
		if err != nil {
			return err
		}
		if err := w.Write(b); err != nil {
			return err
		}
	}
}
