// Package syncer runs the synchronization pipeline: discover, resolve,
// migrate, reconcile and persist.
package syncer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aidanlsb/skillsync/internal/archive"
	"github.com/aidanlsb/skillsync/internal/discovery"
	"github.com/aidanlsb/skillsync/internal/logger"
	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/store"
)

// TopSkillsLimit caps the summary list.
const TopSkillsLimit = 6

// Recorder receives every finished run.
type Recorder interface {
	RecordRun(ctx context.Context, doc *store.Document) error
}

// Options is the explicit configuration of one run.
type Options struct {
	Layout         skills.Layout
	StatePath      string
	ArchiveDir     string
	DevRoot        string
	DiscoveryRoots []string
	Workspaces     []string
	AutoMigrate    bool
	PinnedSkills   []string
	Recorder       Recorder
	Now            func() time.Time
}

// Engine runs sync passes for a fixed set of options.
type Engine struct {
	opts Options
}

// New creates an engine.
func New(opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{opts: opts}
}

// Options returns the engine's options.
func (e *Engine) Options() Options {
	return e.opts
}

// Discoverer returns the discoverer used for each run.
func (e *Engine) Discoverer() *discovery.Discoverer {
	return discovery.New(e.opts.Layout,
		discovery.WithDevRoot(e.opts.DevRoot),
		discovery.WithDiscoveryRoots(e.opts.DiscoveryRoots...),
		discovery.WithWorkspaces(e.opts.Workspaces...),
	)
}

// Run performs one full sync and persists the result. On a conflict or
// migration failure the persisted document keeps the previous skills, is
// marked failed, and the error is returned alongside it.
func (e *Engine) Run(ctx context.Context) (*store.Document, error) {
	started := e.opts.Now()
	log := logger.G(ctx)

	prev, err := store.MarkSyncing(e.opts.StatePath, started)
	if err != nil {
		log.WithError(err).Warn("could not mark state as syncing; starting from an empty document")
		prev = store.Empty()
	}

	found := e.Discoverer().Discover(ctx)
	plan := Resolve(ctx, e.opts.Layout, found.Occurrences, e.opts.AutoMigrate)
	archived := archive.New(e.opts.ArchiveDir).Records(ctx)
	summary := summarize(plan, archived)

	if len(plan.Conflicts) > 0 {
		return e.fail(ctx, prev, started, summary, &ConflictError{Conflicts: plan.Conflicts})
	}
	for _, r := range plan.Repairs {
		if err := ApplyRepair(ctx, r); err != nil {
			return e.fail(ctx, prev, started, summary, err)
		}
	}
	for _, m := range plan.Migrations {
		if err := ApplyMigration(ctx, m); err != nil {
			return e.fail(ctx, prev, started, summary, err)
		}
	}

	var warnings []string
	for i := range plan.Records {
		for _, out := range Reconcile(ctx, &plan.Records[i]) {
			if out.Err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", out.Path, out.Err))
			}
		}
	}

	active := plan.Records
	sortRecords(active)
	finished := e.opts.Now()
	doc := &store.Document{
		Version:     store.Version,
		GeneratedAt: finished,
		Sync: store.SyncInfo{
			Status:        store.StatusOK,
			StartedAt:     &started,
			FinishedAt:    &finished,
			LastSuccessAt: &finished,
			DurationMS:    finished.Sub(started).Milliseconds(),
			Warnings:      warnings,
		},
		Summary:   summary,
		Skills:    append(append([]skills.Record{}, active...), archived...),
		TopSkills: TopSkills(active, e.opts.PinnedSkills),
	}

	if err := store.Save(e.opts.StatePath, doc); err != nil {
		return nil, err
	}
	e.record(ctx, doc)
	log.WithField("global", summary.GlobalCount).WithField("project", summary.ProjectCount).Info("sync complete")
	return doc, nil
}

func (e *Engine) fail(ctx context.Context, prev *store.Document, started time.Time, summary store.Summary, cause error) (*store.Document, error) {
	finished := e.opts.Now()
	msg := cause.Error()

	doc := *prev
	doc.Version = store.Version
	doc.GeneratedAt = finished
	doc.Summary = summary
	doc.Sync = store.SyncInfo{
		Status:        store.StatusFailed,
		StartedAt:     &started,
		FinishedAt:    &finished,
		LastSuccessAt: prev.Sync.LastSuccessAt,
		DurationMS:    finished.Sub(started).Milliseconds(),
		Error:         &msg,
	}

	logger.G(ctx).WithError(cause).Error("sync failed")
	if err := store.Save(e.opts.StatePath, &doc); err != nil {
		return nil, fmt.Errorf("%v (and saving failed state: %w)", cause, err)
	}
	e.record(ctx, &doc)
	return &doc, cause
}

func (e *Engine) record(ctx context.Context, doc *store.Document) {
	if e.opts.Recorder == nil {
		return
	}
	if err := e.opts.Recorder.RecordRun(ctx, doc); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to record sync history")
	}
}

func summarize(plan *Plan, archived []skills.Record) store.Summary {
	s := store.Summary{ConflictCount: len(plan.Conflicts), ArchivedCount: len(archived)}
	for _, rec := range plan.Records {
		if rec.Scope == skills.ScopeGlobal {
			s.GlobalCount++
		} else {
			s.ProjectCount++
		}
	}
	return s
}

// sortRecords orders global records first, then by workspace, name and key.
func sortRecords(recs []skills.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if (a.Scope == skills.ScopeGlobal) != (b.Scope == skills.ScopeGlobal) {
			return a.Scope == skills.ScopeGlobal
		}
		if a.WorkspacePath() != b.WorkspacePath() {
			return a.WorkspacePath() < b.WorkspacePath()
		}
		if an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name); an != bn {
			return an < bn
		}
		return a.SkillKey < b.SkillKey
	})
}

// TopSkills lists pinned records (by id or key) first, then fills with the
// remaining records in order, up to TopSkillsLimit ids. recs must already be
// sorted.
func TopSkills(recs []skills.Record, pinned []string) []string {
	out := make([]string, 0, TopSkillsLimit)
	used := make(map[string]bool)
	add := func(id string) {
		if len(out) < TopSkillsLimit && !used[id] {
			used[id] = true
			out = append(out, id)
		}
	}

	for _, ref := range pinned {
		for _, rec := range recs {
			if !rec.IsArchived() && (rec.ID == ref || rec.SkillKey == ref) {
				add(rec.ID)
				break
			}
		}
	}
	for _, rec := range recs {
		if !rec.IsArchived() {
			add(rec.ID)
		}
	}
	return out
}
