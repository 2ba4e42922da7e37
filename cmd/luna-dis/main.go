// luna-dis prints disassembly listings of compiled luna chunks.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/luna/manifest"
	"github.com/chazu/luna/store"
	"github.com/chazu/luna/vm"
	"github.com/chazu/luna/vm/dist"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("luna-dis", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Int("v", -1, "Log verbosity (overrides [log] verbosity)")
	file := fs.String("file", "", "Disassemble a CBOR chunk file")
	dbPath := fs.String("db", "", "Chunk database (default: [store] path of the nearest luna.toml)")
	list := fs.Bool("list", false, "List chunks in the database")
	put := fs.Bool("put", false, "Cache the -file chunk in the database")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: luna-dis [options] [hash...]\n\n")
		fmt.Fprintf(stderr, "Prints the bytecode of compiled chunks.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  luna-dis -file main.chunk     # Disassemble a chunk file\n")
		fmt.Fprintf(stderr, "  luna-dis -file a.chunk -put   # Disassemble and cache a chunk file\n")
		fmt.Fprintf(stderr, "  luna-dis -list                # List cached chunks\n")
		fmt.Fprintf(stderr, "  luna-dis 3fa9...              # Disassemble a cached chunk by hash\n")
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if m == nil {
		wd, _ := os.Getwd()
		m = manifest.Default(wd)
	}

	verbosity := m.Log.Verbosity
	if *verbose >= 0 {
		verbosity = *verbose
	}
	commonlog.Configure(verbosity, nil)

	path := *dbPath
	if path == "" {
		path = m.StorePath()
	}

	if *file != "" {
		fn, err := disassembleFile(*file, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if *put {
			if err := putFunction(path, fn); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return 1
			}
		}
		return 0
	}

	if !*list && fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	s, err := store.Open(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer s.Close()

	if *list {
		entries, err := s.List()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		for _, e := range entries {
			fmt.Fprintf(stdout, "%s  %s  %s\n", e.Hash, e.Module, e.UnitID)
		}
	}

	for _, arg := range fs.Args() {
		hash, err := store.ParseHash(arg)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fn, err := s.GetFunction(hash)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s: %v\n", arg, err)
			return 1
		}
		fmt.Fprint(stdout, vm.Disassemble(fn))
	}
	return 0
}

// disassembleFile prints the listing of a chunk file, led by the content
// hash of the decoded tree, and returns the decoded main function.
func disassembleFile(path string, w io.Writer) (*vm.Function, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	c, err := dist.UnmarshalChunk(data)
	if err != nil {
		return nil, err
	}
	fn, err := c.Function()
	if err != nil {
		return nil, err
	}
	hash, err := dist.HashFunction(fn)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(w, "; hash %s\n", store.HashString(hash)); err != nil {
		return nil, err
	}
	if _, err := fmt.Fprint(w, vm.Disassemble(fn)); err != nil {
		return nil, err
	}
	return fn, nil
}

func putFunction(path string, fn *vm.Function) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	_, err = s.PutFunction(fn)
	return err
}
