package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/robert-malhotra/cosmohdf5/convert"
	"github.com/robert-malhotra/cosmohdf5/hdf5"
	"github.com/robert-malhotra/cosmohdf5/striped"
)

func runInfo(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	var c common
	c.register(fs)
	columns := fs.String("columns", "", "comma separated columns to check (default: every column of the first shard).")
	tree := fs.Bool("tree", false, "list every group and dataset of the first shard.")
	attrs := fs.String("attr", "", "comma separated attributes of the first shard to print, as /object@name.")
	fs.Parse(args)

	s, err := c.start()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); err == nil {
			err = cerr
		}
	}()

	set, err := s.openShards(fs.Args(), c.root)
	if err != nil {
		return err
	}

	names := splitList(*columns)
	if len(names) == 0 {
		if names, err = firstShardColumns(set); err != nil {
			return err
		}
	}
	view, err := striped.NewView(set, names, s.viewOptions()...)
	if err != nil {
		return err
	}

	header, err := striped.Open(set.Paths(), c.header)
	if err != nil {
		s.logger.Sugar().Debugf("no header at %s: %v", c.header, err)
	}

	printInfo(os.Stdout, set, view, header)

	if *tree {
		if err := printTree(os.Stdout, set.Paths()[0]); err != nil {
			return err
		}
	}
	return printAttrs(os.Stdout, set.Paths()[0], splitList(*attrs))
}

func firstShardColumns(set *striped.ShardSet) ([]string, error) {
	shard, err := set.Shard(0)
	if err != nil {
		return nil, err
	}
	defer shard.Close()
	return shard.Columns()
}

func printInfo(w io.Writer, set *striped.ShardSet, view *striped.View, header *striped.ShardSet) {
	size := view.Size()
	record := view.Schema().RecordSize()

	fmt.Fprintf(w, "root:    %s\n", set.Root())
	fmt.Fprintf(w, "shards:  %d\n", set.NumShards())
	fmt.Fprintf(w, "rows:    %s\n", humanize.Comma(size))
	fmt.Fprintf(w, "records: %s per row, %s in total\n",
		humanize.IBytes(uint64(record)), humanize.IBytes(uint64(size)*uint64(record)))

	fmt.Fprintln(w, "\ncolumns:")
	for _, col := range view.Schema() {
		fmt.Fprintf(w, "  %-16s %s %v\n", col.Name, col.Dtype, col.Shape)
	}

	fmt.Fprintln(w, "\nshards:")
	offsets := view.Offsets()
	for i, p := range set.Paths() {
		fmt.Fprintf(w, "  %4d  %14s rows from %-14s %s\n", i,
			humanize.Comma(offsets[i+1]-offsets[i]), humanize.Comma(offsets[i]), p)
	}

	if header == nil {
		return
	}
	attrs := header.Attrs()
	fmt.Fprintf(w, "\nheader %s:\n", header.Root())
	for _, k := range attrs.Keys() {
		fmt.Fprintf(w, "  %-24s %v\n", k, attrs[k])
	}
}

// printTree lists the groups, datasets and attributes of one file.
func printTree(w io.Writer, path string) error {
	f, err := hdf5.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(w, "\n%s (superblock v%d):\n", path, f.Version())
	err = hdf5.Walk(f.Root(), func(p string, obj interface{}, err error) error {
		if err != nil {
			fmt.Fprintf(w, "  %s: %v\n", p, err)
			return nil
		}
		switch o := obj.(type) {
		case *hdf5.Group:
			fmt.Fprintf(w, "  %s/\n", strings.TrimSuffix(p, "/"))
		case *hdf5.Dataset:
			fmt.Fprintf(w, "  %s %v %s/row\n", p, o.Shape(), humanize.IBytes(o.RowBytes()))
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "\nattributes:")
	return f.WalkAttrs(func(info hdf5.AttrInfo) error {
		if info.Err != nil {
			fmt.Fprintf(w, "  %s: %v\n", info.Path, info.Err)
			return nil
		}
		fmt.Fprintf(w, "  %s = %v\n", info.Path, info.Value)
		return nil
	})
}

// printAttrs prints the attributes named by specs, each given as
// /object@name, from one file.
func printAttrs(w io.Writer, path string, specs []string) error {
	if len(specs) == 0 {
		return nil
	}
	f, err := hdf5.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, spec := range specs {
		attr, err := f.GetAttr(spec)
		if err != nil {
			return err
		}
		v, err := attr.Value()
		if err != nil {
			return fmt.Errorf("reading %s: %w", spec, err)
		}
		fmt.Fprintf(w, "%s = %v\n", spec, v)
	}
	return nil
}

// convertFlags are the flags shared by gadget and export.
type convertFlags struct {
	common
	dest     string
	nPerFile int64
	workers  int
	ids      string
}

func (c *convertFlags) register(fs *flag.FlagSet) {
	c.common.register(fs)
	defaults := convert.DefaultOptions()
	fs.StringVar(&c.dest, "o", "", "output file base; files are named <base>.<i>. Directories are created as needed.")
	fs.Int64Var(&c.nPerFile, "nperfile", defaults.NPerFile, "number of particles per output file.")
	fs.IntVar(&c.workers, "j", defaults.Workers, "output files written concurrently.")
	fs.StringVar(&c.ids, "ids", defaults.IDColumn, "name of the particle id column.")
}

func (c *convertFlags) options(s *session) convert.Options {
	opts := convert.DefaultOptions()
	opts.NPerFile = c.nPerFile
	opts.Workers = c.workers
	opts.IDColumn = c.ids
	opts.Logger = s.logger
	return opts
}

// prepare opens the particle view and the header attributes for a
// conversion.
func (c *convertFlags) prepare(s *session, args []string) (*striped.View, striped.Attributes, error) {
	if c.dest == "" {
		return nil, nil, fmt.Errorf("missing required parameter '-o'")
	}
	set, err := s.openShards(args, c.root)
	if err != nil {
		return nil, nil, err
	}
	header, err := striped.Open(set.Paths(), c.header)
	if err != nil {
		return nil, nil, err
	}
	view, err := striped.NewView(set, []string{"Position", "Velocity", c.ids}, s.viewOptions()...)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Sugar().Infof("converting %s particles from %d shards", humanize.Comma(view.Size()), set.NumShards())
	return view, header.Attrs(), nil
}

func runGadget(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("gadget", flag.ExitOnError)
	var c convertFlags
	c.register(fs)
	precision := fs.String("precision", "f4", "floating point precision of the output, f4 or f8.")
	fs.Parse(args)

	s, err := c.start()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); err == nil {
			err = cerr
		}
	}()

	view, attrs, err := c.prepare(s, fs.Args())
	if err != nil {
		return err
	}
	opts := c.options(s)
	opts.Precision = *precision

	files, err := convert.ToGadget(ctx, view, attrs, c.dest, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d gadget files to %s.*\n", len(files), c.dest)
	return nil
}

func runExport(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var c convertFlags
	c.register(fs)
	fastpm := fs.Bool("fastpm", false, "the header carries FastPM attribute names; translate them.")
	chunk := fs.Int64("chunk", 0, "store datasets in chunks of this many rows (0: contiguous).")
	fs.Parse(args)

	s, err := c.start()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); err == nil {
			err = cerr
		}
	}()

	view, attrs, err := c.prepare(s, fs.Args())
	if err != nil {
		return err
	}
	if *fastpm {
		if attrs, err = convert.FastPMHeader(attrs); err != nil {
			return fmt.Errorf("translating FastPM header: %w", err)
		}
	}

	opts := c.options(s)
	opts.ChunkRows = *chunk

	files, err := convert.ToHDF5(ctx, view, attrs, c.dest, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d files to %s.*.hdf5\n", len(files), c.dest)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
