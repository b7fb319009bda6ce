// Package convert rewrites a striped snapshot as a new set of files, one
// per chunk of consecutive particles.
//
// Every conversion reads its chunks through striped.View, so the output
// file count is independent of the input shard count. ToGadget writes
// Gadget-1 binary files; ToHDF5 writes HDF5 files with a Header dataset and
// a Matter group.
//
//	matter, _ := striped.Open(paths, "/Matter")
//	header, _ := striped.Open(paths, "/Header")
//	view, _ := striped.NewView(matter, convert.Columns)
//	files, err := convert.ToGadget(ctx, view, header.Attrs(), "out/snap", convert.DefaultOptions())
package convert
