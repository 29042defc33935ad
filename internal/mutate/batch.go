package mutate

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/store"
)

// BatchOp names an operation that can run over several skills.
type BatchOp string

const (
	BatchDelete  BatchOp = "delete"
	BatchArchive BatchOp = "archive"
	BatchRestore BatchOp = "restore"
	BatchPromote BatchOp = "promote"
)

// ItemResult is the outcome for one skill in a batch.
type ItemResult struct {
	ID     string  `json:"id"`
	Key    string  `json:"skill_key"`
	OK     bool    `json:"ok"`
	Error  string  `json:"error,omitempty"`
	Result *Result `json:"result,omitempty"`
}

// BatchResult collects per-item outcomes and the state after the final resync.
type BatchResult struct {
	Items     []ItemResult    `json:"items"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Document  *store.Document `json:"-"`
	SyncError string          `json:"sync_error,omitempty"`
}

// Batch applies op to every record in order. A failing item does not stop the
// batch. The returned error combines every item failure; the result is always
// populated. One resync runs at the end when anything changed.
func (o *Operator) Batch(ctx context.Context, op BatchOp, recs []*skills.Record, confirm bool) (*BatchResult, error) {
	out := &BatchResult{Items: make([]ItemResult, 0, len(recs))}
	var errs *multierror.Error

	for _, rec := range recs {
		res, err := o.apply(ctx, op, rec, confirm)
		item := ItemResult{ID: rec.ID, Key: rec.SkillKey, Result: res}
		if err != nil {
			item.Error = err.Error()
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", rec.SkillKey, err))
			out.Failed++
		} else {
			item.OK = true
			out.Succeeded++
		}
		out.Items = append(out.Items, item)
	}

	if out.Succeeded > 0 {
		tmp := &Result{}
		o.resync(ctx, tmp)
		out.Document = tmp.Document
		out.SyncError = tmp.SyncError
	}
	return out, errs.ErrorOrNil()
}

func (o *Operator) apply(ctx context.Context, op BatchOp, rec *skills.Record, confirm bool) (*Result, error) {
	switch op {
	case BatchDelete:
		return o.delete(ctx, rec, confirm)
	case BatchArchive:
		return o.archiveOne(ctx, rec, confirm)
	case BatchRestore:
		return o.restore(ctx, rec)
	case BatchPromote:
		return o.promote(ctx, rec, confirm)
	default:
		return nil, fmt.Errorf("unsupported batch operation %q", op)
	}
}
