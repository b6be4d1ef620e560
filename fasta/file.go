// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fasta

import (
	"fmt"
	"os"

	"golang.org/x/exp/mmap"
)

// File is a FASTA sequence file with an index, accessed through
// mmapped file memory.
type File struct {
	f   *mmap.ReaderAt
	idx Index
}

// Open opens the FASTA file at the given path. A sidecar index at
// path+".fai" is used when present; otherwise the sequence file is
// scanned to build the index in memory.
func Open(path string) (*File, error) {
	var (
		idx Index
		err error
	)
	fai, err := os.Open(path + ".fai")
	switch {
	case err == nil:
		idx, err = ReadIndex(fai)
		fai.Close()
		if err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		idx, err = ScanIndex(f)
		f.Close()
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return OpenFile(path, idx)
}

// OpenFile opens the sequence file at the given path and associates it
// with the specified index.
func OpenFile(path string, idx Index) (*File, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{f: f, idx: idx}, nil
}

// Close closes the sequence file and releases the index.
func (f *File) Close() error {
	err := f.f.Close()
	*f = File{}
	return err
}

// Length returns the length of the named sequence.
func (f *File) Length(name string) (int, error) {
	rec, ok := f.idx[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNoSequence, name)
	}
	return rec.Length, nil
}

// Sequence returns the forward-strand bases of the named sequence over
// the half-open interval [start, end).
func (f *File) Sequence(name string, start, end int) (string, error) {
	rec, ok := f.idx[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoSequence, name)
	}
	if start < 0 || end < start || rec.Length < end {
		return "", fmt.Errorf("%w: %s:[%d,%d) of %d", ErrOutOfRange, name, start, end, rec.Length)
	}
	seq := make([]byte, 0, end-start)
	buf := make([]byte, rec.BasesPerLine)
	for cur := start; cur < end; {
		n := rec.lineRemainder(cur)
		if left := end - cur; n > left {
			n = left
		}
		_, err := f.f.ReadAt(buf[:n], rec.position(cur))
		if err != nil {
			return "", err
		}
		seq = append(seq, buf[:n]...)
		cur += n
	}
	return string(seq), nil
}
