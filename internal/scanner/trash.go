package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// reportTrash measures the trash folder. It produces a summary only; trash
// contents are never offered as items.
func (r *run) reportTrash() {
	root := r.locations.Trash
	if root == "" || r.stopped() {
		return
	}
	summary, errs := MeasureTrash(r.ctx, root)
	r.res.Trash = summary
	r.res.Errors = append(r.res.Errors, errs...)
}

// MeasureTrash counts the top-level entries of a trash folder and sums
// their sizes. A missing folder is an empty trash.
func MeasureTrash(ctx context.Context, root string) (*TrashSummary, []PathError) {
	summary := &TrashSummary{Path: root}

	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return summary, nil
		}
		return summary, []PathError{{Path: root, Kind: ErrorAccess, Err: err}}
	}
	summary.Entries = len(entries)

	size, _, errs := dirSize(ctx, root)
	summary.Size = size
	return summary, errs
}
