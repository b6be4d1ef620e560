// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stream provides input and output plumbing for the wga
// command: transparent decompression of gzip and xz compressed input,
// and output creation guarded against accidental overwrites.
package stream

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

type reader struct {
	io.Reader
	close func() error
}

func (r *reader) Close() error { return r.close() }

// NewReader wraps r, decompressing its content when it carries a gzip
// or xz signature.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	sig, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}
	closeSrc := func() error {
		if c, ok := r.(io.Closer); ok {
			return c.Close()
		}
		return nil
	}
	switch {
	case bytes.HasPrefix(sig, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &reader{Reader: zr, close: func() error {
			err := zr.Close()
			if cerr := closeSrc(); err == nil {
				err = cerr
			}
			return err
		}}, nil
	case bytes.HasPrefix(sig, xzMagic):
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &reader{Reader: xr, close: closeSrc}, nil
	}
	return &reader{Reader: br, close: closeSrc}, nil
}

// Open returns a decompressing reader over the named file, or over
// standard input when path is "-".
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return NewReader(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// Create returns a writer to the named file, or to standard output
// when path is "-". Unless overwrite is set, an existing file is
// refused rather than truncated.
func Create(path string, overwrite bool) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0666)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("stream: %q exists (use the rewrite option to replace it)", path)
		}
		return nil, err
	}
	return f, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
