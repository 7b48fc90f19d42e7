// prefixdict - build and inspect prefix-compressed word lists
//
// Usage:
//
//	prefixdict build [flags] -o out.pxd words.txt   Encode a sorted word list
//	prefixdict dump [-raw -bits n] file            Print header records and buckets
//	prefixdict lookup [-raw -bits n] file word...  Look words up
//	prefixdict words [-raw -bits n] file           Print every word
//	prefixdict suffixes file                       Decode a bare suffix stream
//
// If no input file is given to build, it reads from stdin.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"
	"github.com/milden6/prefixdict"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "build":
		err = runBuild(args)
	case "dump":
		err = runOpen("dump", args, func(d *prefixdict.Dict, _ []string) error {
			return d.Dump(os.Stdout)
		})
	case "lookup":
		err = runOpen("lookup", args, lookup)
	case "words":
		err = runOpen("words", args, func(d *prefixdict.Dict, _ []string) error {
			return d.Enumerate(func(index int, word string) prefixdict.EnumerationResult {
				fmt.Println(word)
				return prefixdict.Continue
			})
		})
	case "suffixes":
		err = runSuffixes(args)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "prefixdict: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "prefixdict: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: prefixdict <command> [flags] [args]

commands:
  build     encode a sorted word list
  dump      print header records and buckets of an artifact
  lookup    look words up in an artifact
  words     print every word of an artifact
  suffixes  decode a bare suffix stream`)
}

func setupLogging(verbosity string) error {
	lvl, err := log.LvlFromString(verbosity)
	if err != nil {
		return err
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.LogfmtFormat())))
	return nil
}

func runBuild(args []string) error {
	cfg := prefixdict.DefaultConfig()

	fs := flag.NewFlagSet("build", flag.ExitOnError)
	out := fs.String("o", "words.pxd", "output file")
	bits := fs.Uint("bits", prefixdict.DefaultHashSizeBits, "leaf count bits; buckets hold up to 2^bits words")
	prefixLen := fs.Int("prefix", prefixdict.DefaultMaxPrefixLen, "longest prefix of any node")
	raw := fs.Bool("raw", false, "write header and suffix streams only, without a preamble")
	strict := fs.Bool("strict", false, "fail on words with characters outside a-z instead of skipping them")
	fold := fs.Bool("fold", false, "fold accents and case before validation")
	verbosity := fs.String("v", "info", "log level: crit, error, warn, info, debug, trace")
	fs.TextVar(&cfg.MaxHeaderSize, "max-header", datasize.ByteSize(0), "header size limit, e.g. 64KB (0 for none)")
	fs.TextVar(&cfg.MaxSuffixSize, "max-suffix", datasize.ByteSize(0), "suffix stream size limit, e.g. 4MB (0 for none)")
	fs.Parse(args)

	if err := setupLogging(*verbosity); err != nil {
		return err
	}

	cfg.HashSizeBits = *bits
	cfg.MaxPrefixLen = *prefixLen
	cfg.FoldAccents = *fold
	cfg.Logger = log.New("cmd", "build")
	if *raw {
		cfg.Format = prefixdict.FormatRaw
	}
	if *strict {
		cfg.Malformed = prefixdict.RejectMalformed
	}

	b, err := prefixdict.New(cfg)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	if err := b.AddFrom(in); err != nil {
		return err
	}

	n, err := b.Save(*out)
	if err != nil {
		return err
	}

	r := b.Report()
	a, err := b.Finish()
	if err != nil {
		return err
	}
	cfg.Logger.Info("wrote dictionary",
		"file", *out,
		"size", datasize.ByteSize(n).HumanReadable(),
		"words", r.Added,
		"malformed", r.Malformed,
		"duplicates", r.Duplicates,
		"leaves", a.Stats.Leaves,
		"internal", a.Stats.Internal)
	return nil
}

func runOpen(name string, args []string, fn func(d *prefixdict.Dict, args []string) error) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	raw := fs.Bool("raw", false, "the artifact has no preamble")
	bits := fs.Uint("bits", prefixdict.DefaultHashSizeBits, "leaf count bits the raw artifact was built with")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("%s: missing artifact file", name)
	}

	var d *prefixdict.Dict
	var err error
	if *raw {
		d, err = prefixdict.LoadRaw(fs.Arg(0), *bits)
	} else {
		d, err = prefixdict.Load(fs.Arg(0))
	}
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d, fs.Args()[1:])
}

func lookup(d *prefixdict.Dict, words []string) error {
	for _, w := range words {
		if i := d.IndexOf(w); i >= 0 {
			fmt.Printf("%s\t%d\n", w, i)
		} else {
			fmt.Printf("%s\tnot found\n", w)
		}
	}
	return nil
}

func runSuffixes(args []string) error {
	fs := flag.NewFlagSet("suffixes", flag.ExitOnError)
	n := fs.Int("n", 0, "decode this many words instead of printing slots")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("suffixes: missing stream file")
	}

	slots, err := prefixdict.ReadSuffixFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if *n == 0 {
		return prefixdict.DumpSuffixes(os.Stdout, slots)
	}
	words, err := prefixdict.DecodeSuffixes(slots, *n)
	for _, w := range words {
		fmt.Println(w)
	}
	return err
}
