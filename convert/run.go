package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/cosmohdf5/striped"
)

// chunkFunc writes one output file from the records of chunk c.
type chunkFunc func(c Chunk, recs *striped.Records) (string, error)

// run reads every chunk of view and hands it to write, at most
// opts.Workers chunks at a time. It returns the written paths in chunk
// order. Cancellation is observed before each chunk is read.
func run(ctx context.Context, view *striped.View, chunks []Chunk, opts Options, write chunkFunc) ([]string, error) {
	paths := make([]string, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, c := range chunks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recs, err := view.ReadContext(ctx, c.Start, c.End)
			if err != nil {
				return fmt.Errorf("reading %v: %w", c, err)
			}
			path, err := write(c, recs)
			if err != nil {
				return err
			}
			paths[c.Index] = path
			opts.Logger.Info("wrote file",
				zap.String("path", path),
				zap.Int("file", c.Index),
				zap.Int("files", len(chunks)),
				zap.Int64("particles", c.Len()),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// requireColumns checks that view carries every named column.
func requireColumns(view *striped.View, names ...string) error {
	schema := view.Schema()
	for _, name := range names {
		if _, ok := schema.Lookup(name); !ok {
			return &striped.SchemaError{Shard: -1, Column: name, Reason: "column is not part of the view"}
		}
	}
	return nil
}

// makeParent creates the directory that will hold files named dest.*.
func makeParent(dest string) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return nil
}
