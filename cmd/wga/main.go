// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// wga converts whole-genome pairwise-alignment files between the MAF,
// PAF and chain formats, and builds MAF block indexes.
//
// Each subcommand reads one optional input path ("-" or absent for
// standard input; gzip and xz compressed input is handled
// transparently) and writes to the path given with -o ("-" for
// standard output). Directions that must reconstruct bases take FASTA
// paths for the target and query genomes.
//
//	wga maf2paf [-o out] [-w] [-t n] [in.maf]
//	wga maf2chain [-o out] [-w] [in.maf]
//	wga maf2sam [-o out] [-w] [in.maf]
//	wga paf2chain [-o out] [-w] [in.paf]
//	wga paf2maf -target t.fa -query q.fa [-o out] [-w] [in.paf]
//	wga chain2paf [-o out] [-w] [in.chain]
//	wga chain2maf -target t.fa -query q.fa [-o out] [-w] [in.chain]
//	wga maf-index [-o out] [-w] [in.maf]
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/biogo/wga/chain"
	"github.com/biogo/wga/convert"
	"github.com/biogo/wga/fasta"
	"github.com/biogo/wga/internal/stream"
	"github.com/biogo/wga/maf"
	"github.com/biogo/wga/paf"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: wga <command> [options] [input]

Commands:
  maf2paf    convert MAF to PAF
  maf2chain  convert MAF to chain
  maf2sam    convert MAF to SAM text
  paf2maf    convert PAF to MAF (needs -target and -query FASTA)
  paf2chain  convert PAF to chain
  chain2maf  convert chain to MAF (needs -target and -query FASTA)
  chain2paf  convert chain to PAF
  maf-index  build a MAF block index (writes <input>.index unless -o is given)

Common options:
  -o path    output path ("-" for stdout, the default)
  -w         overwrite the output path if it exists
  -t n       worker threads (maf2paf only)`)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("wga: ")
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "maf2paf", "m2p":
		err = maf2paf(args)
	case "maf2chain", "m2c":
		err = maf2chain(args)
	case "maf2sam", "m2s":
		err = maf2sam(args)
	case "paf2maf", "p2m":
		err = paf2maf(args)
	case "paf2chain", "p2c":
		err = paf2chain(args)
	case "chain2maf", "c2m":
		err = chain2maf(args)
	case "chain2paf", "c2p":
		err = chain2paf(args)
	case "maf-index", "mi":
		err = mafIndex(args)
	case "help", "-help", "--help", "-h":
		usage()
	default:
		log.Printf("unknown command %q", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// common holds the options shared by every subcommand.
type common struct {
	out     string
	rewrite bool
}

func commonFlags(flags *flag.FlagSet) *common {
	var c common
	flags.StringVar(&c.out, "o", "-", "output path (\"-\" for stdout)")
	flags.BoolVar(&c.rewrite, "w", false, "overwrite the output path if it exists")
	return &c
}

// open returns the conversion input and output streams. args may hold
// one positional input path; absent or "-" means standard input.
func open(flags *flag.FlagSet, c *common) (io.ReadCloser, io.WriteCloser, error) {
	in := "-"
	switch flags.NArg() {
	case 0:
	case 1:
		in = flags.Arg(0)
	default:
		return nil, nil, fmt.Errorf("at most one input path expected, got %d", flags.NArg())
	}
	r, err := stream.Open(in)
	if err != nil {
		return nil, nil, err
	}
	w, err := stream.Create(c.out, c.rewrite)
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	return r, w, nil
}

func closeAll(r io.Closer, w io.Closer, err error) error {
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}

func maf2paf(args []string) error {
	flags := flag.NewFlagSet("maf2paf", flag.ExitOnError)
	c := commonFlags(flags)
	threads := flags.Int("t", 1, "worker threads")
	flags.Parse(args)
	r, w, err := open(flags, c)
	if err != nil {
		return err
	}
	mr, err := maf.NewReader(r)
	if err != nil {
		return closeAll(r, w, err)
	}
	if *threads > 1 {
		runtime.GOMAXPROCS(*threads)
		err = convert.MafToPafParallel(mr, w)
	} else {
		err = convert.MafToPaf(mr, paf.NewWriter(w))
	}
	return closeAll(r, w, err)
}

func maf2chain(args []string) error {
	flags := flag.NewFlagSet("maf2chain", flag.ExitOnError)
	c := commonFlags(flags)
	flags.Parse(args)
	r, w, err := open(flags, c)
	if err != nil {
		return err
	}
	mr, err := maf.NewReader(r)
	if err != nil {
		return closeAll(r, w, err)
	}
	err = convert.MafToChain(mr, chain.NewWriter(w))
	return closeAll(r, w, err)
}

func maf2sam(args []string) error {
	flags := flag.NewFlagSet("maf2sam", flag.ExitOnError)
	c := commonFlags(flags)
	flags.Parse(args)
	r, w, err := open(flags, c)
	if err != nil {
		return err
	}
	mr, err := maf.NewReader(r)
	if err != nil {
		return closeAll(r, w, err)
	}
	err = convert.MafToSam(mr, w)
	return closeAll(r, w, err)
}

func paf2chain(args []string) error {
	flags := flag.NewFlagSet("paf2chain", flag.ExitOnError)
	c := commonFlags(flags)
	flags.Parse(args)
	r, w, err := open(flags, c)
	if err != nil {
		return err
	}
	err = convert.PafToChain(paf.NewReader(r), chain.NewWriter(w))
	return closeAll(r, w, err)
}

func chain2paf(args []string) error {
	flags := flag.NewFlagSet("chain2paf", flag.ExitOnError)
	c := commonFlags(flags)
	flags.Parse(args)
	r, w, err := open(flags, c)
	if err != nil {
		return err
	}
	err = convert.ChainToPaf(chain.NewReader(r), paf.NewWriter(w))
	return closeAll(r, w, err)
}

// sources opens the target and query FASTA files for directions that
// reconstruct bases.
func sources(targetPath, queryPath string) (target, query *fasta.File, err error) {
	if targetPath == "" || queryPath == "" {
		return nil, nil, convert.ErrNoSequenceSource
	}
	target, err = fasta.Open(targetPath)
	if err != nil {
		return nil, nil, err
	}
	query, err = fasta.Open(queryPath)
	if err != nil {
		target.Close()
		return nil, nil, err
	}
	return target, query, nil
}

func paf2maf(args []string) error {
	flags := flag.NewFlagSet("paf2maf", flag.ExitOnError)
	c := commonFlags(flags)
	targetPath := flags.String("target", "", "target genome FASTA (required)")
	queryPath := flags.String("query", "", "query genome FASTA (required)")
	flags.Parse(args)
	target, query, err := sources(*targetPath, *queryPath)
	if err != nil {
		return err
	}
	defer target.Close()
	defer query.Close()
	r, w, err := open(flags, c)
	if err != nil {
		return err
	}
	err = convert.PafToMaf(paf.NewReader(r), maf.NewWriter(w), target, query)
	return closeAll(r, w, err)
}

func chain2maf(args []string) error {
	flags := flag.NewFlagSet("chain2maf", flag.ExitOnError)
	c := commonFlags(flags)
	targetPath := flags.String("target", "", "target genome FASTA (required)")
	queryPath := flags.String("query", "", "query genome FASTA (required)")
	flags.Parse(args)
	target, query, err := sources(*targetPath, *queryPath)
	if err != nil {
		return err
	}
	defer target.Close()
	defer query.Close()
	r, w, err := open(flags, c)
	if err != nil {
		return err
	}
	err = convert.ChainToMaf(chain.NewReader(r), maf.NewWriter(w), target, query)
	return closeAll(r, w, err)
}

func mafIndex(args []string) error {
	flags := flag.NewFlagSet("maf-index", flag.ExitOnError)
	c := commonFlags(flags)
	flags.Parse(args)
	in := "-"
	if flags.NArg() == 1 {
		in = flags.Arg(0)
	} else if flags.NArg() > 1 {
		return fmt.Errorf("at most one input path expected, got %d", flags.NArg())
	}
	r, err := stream.Open(in)
	if err != nil {
		return err
	}
	defer r.Close()
	mr, err := maf.NewReader(r)
	if err != nil {
		return err
	}
	// The index is held complete before the output is created so that
	// a failed build can never leave a partial artifact behind.
	idx, err := maf.BuildIndex(mr)
	if err != nil {
		return err
	}
	out := c.out
	if out == "-" && in != "-" {
		out = in + ".index"
	}
	w, err := stream.Create(out, c.rewrite)
	if err != nil {
		return err
	}
	err = idx.WriteTo(w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}
