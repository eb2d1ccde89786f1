package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/stqc/readindex"
	"v.io/x/lib/cmdline"
)

type indexFlags struct {
	opts      readindex.Opts
	lowMemory bool
	db        string
	lookup    string
}

func newCmdIndex() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "index",
		Short: "Index demultiplexed reads by name",
		Long: `Index maps the first token of each read name to the coordinate tags at the end
of the name, and optionally to the UMI in the read sequence. With -low-memory
the index is stored in a database file instead of memory.`,
		ArgsName: "path",
	}
	flags := indexFlags{}
	cmd.Flags.BoolVar(&flags.opts.HasUMI, "umi", false, "Reads carry a UMI at [-umi-start, -umi-end)")
	cmd.Flags.IntVar(&flags.opts.UMIStart, "umi-start", 18, "Start of the UMI in the read")
	cmd.Flags.IntVar(&flags.opts.UMIEnd, "umi-end", 27, "End (exclusive) of the UMI in the read")
	cmd.Flags.BoolVar(&flags.lowMemory, "low-memory", false, "Store the index in a database file")
	cmd.Flags.StringVar(&flags.db, "db", "", "Database file for -low-memory. Defaults to path + \".index.db\"")
	cmd.Flags.StringVar(&flags.lookup, "lookup", "", "Comma-separated read names to print the tags of after indexing")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("index takes one pathname argument, but got %v", argv)
		}
		return index(vcontext.Background(), env.Stdout, argv[0], flags)
	})
	return cmd
}

func index(ctx context.Context, out io.Writer, path string, flags indexFlags) (err error) {
	var store readindex.Store = readindex.NewMemStore()
	if flags.lowMemory {
		db := flags.db
		if db == "" {
			db = path + ".index.db"
		}
		if store, err = readindex.OpenBoltStore(db); err != nil {
			return err
		}
	}
	defer func() {
		if e := store.Close(); e != nil && err == nil {
			err = e
		}
	}()
	if _, err = readindex.Build(ctx, path, flags.opts, store); err != nil {
		return err
	}
	n, err := store.Len()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d entries\n", n)
	if flags.lookup == "" {
		return nil
	}
	for _, name := range strings.Split(flags.lookup, ",") {
		tags, ok, err := store.Get(readindex.Key(name))
		if err != nil {
			return errors.E(err, "lookup", name)
		}
		if !ok {
			fmt.Fprintf(out, "%s\tnot found\n", name)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", name, strings.Join(tags.Fields(), "\t"))
	}
	return nil
}
