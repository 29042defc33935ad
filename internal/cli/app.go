package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aidanlsb/skillsync/internal/audit"
	"github.com/aidanlsb/skillsync/internal/check"
	"github.com/aidanlsb/skillsync/internal/commands"
	"github.com/aidanlsb/skillsync/internal/config"
	"github.com/aidanlsb/skillsync/internal/history"
	"github.com/aidanlsb/skillsync/internal/lastresults"
	"github.com/aidanlsb/skillsync/internal/logger"
	"github.com/aidanlsb/skillsync/internal/mutate"
	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/store"
	"github.com/aidanlsb/skillsync/internal/syncer"
	"github.com/aidanlsb/skillsync/internal/trash"
	"github.com/aidanlsb/skillsync/internal/ui"
)

// app bundles everything resolved for one invocation.
type app struct {
	cfg    *config.Config
	paths  config.Paths
	prefs  *config.Preferences
	layout skills.Layout

	ledger  *history.Ledger
	warning *Warning // set when the history ledger could not be opened
	journal *audit.Logger
}

func loadApp() (*app, error) {
	cfg, err := config.Load(config.ResolveConfigPath(configPath))
	if err != nil {
		return nil, &cliError{Code: ErrConfigInvalid, Message: err.Error(), Err: err}
	}

	level := cfg.LogLevel
	if strings.TrimSpace(logLevel) != "" {
		level = logLevel
	}
	if level == "" {
		level = "warn"
	}
	if err := logger.Configure(level, cfg.LogFormat); err != nil {
		return nil, &cliError{Code: ErrConfigInvalid, Message: err.Error(), Err: err}
	}
	ui.ConfigureTheme(cfg.UI.Accent)
	ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)

	paths := cfg.Resolve(configPath, statePathFlag, prefsPathFlag)
	prefs, err := config.LoadPreferences(paths.Preferences)
	if err != nil {
		return nil, &cliError{Code: ErrConfigInvalid, Message: err.Error(), Err: err}
	}

	layout, err := skills.DefaultLayout()
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, paths: paths, prefs: prefs, layout: layout, journal: audit.New(paths.Audit)}, nil
}

func (a *app) close() {
	if a.ledger != nil {
		a.ledger.Close()
		a.ledger = nil
	}
}

// history opens the run ledger on first use.
func (a *app) history() (*history.Ledger, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	l, err := history.Open(a.paths.History)
	if err != nil {
		return nil, err
	}
	a.ledger = l
	return l, nil
}

// engine builds a sync engine from the resolved config and preferences.
// A ledger that cannot be opened only costs the run its history entry.
func (a *app) engine(ctx context.Context) *syncer.Engine {
	opts := syncer.Options{
		Layout:         a.layout,
		StatePath:      a.paths.State,
		ArchiveDir:     a.paths.Archive,
		DevRoot:        a.paths.DevRoot,
		DiscoveryRoots: a.prefs.WorkspaceDiscoveryRoots,
		Workspaces:     absPaths(workspaces),
		AutoMigrate:    a.prefs.AutoMigrateToCanonical,
		PinnedSkills:   a.prefs.PinnedSkills,
	}
	if l, err := a.history(); err != nil {
		logger.G(ctx).WithError(err).Warn("sync history unavailable")
		a.warning = &Warning{Code: WarnHistoryFailed, Message: err.Error()}
	} else {
		opts.Recorder = l
	}
	return syncer.New(opts)
}

func (a *app) operator(ctx context.Context) (*mutate.Operator, error) {
	bin, err := trash.Default()
	if err != nil {
		return nil, err
	}
	return mutate.New(a.engine(ctx), bin), nil
}

func (a *app) validator() *check.Validator {
	return check.NewValidator(a.layout)
}

func (a *app) savePreferences() error {
	return config.SavePreferences(a.paths.Preferences, a.prefs)
}

// loadState reads the last persisted sync document.
func (a *app) loadState() (*store.Document, error) {
	doc, err := store.Load(a.paths.State)
	if err != nil {
		return nil, &cliError{
			Code:       ErrStateInvalid,
			Message:    err.Error(),
			Suggestion: "Run 'skillsync sync' to rebuild the state file",
			Err:        err,
		}
	}
	return doc, nil
}

// warnings collects the invocation's non-fatal warnings plus the run's own.
func (a *app) warnings(doc *store.Document) []Warning {
	var out []Warning
	if a.warning != nil {
		out = append(out, *a.warning)
	}
	if doc != nil {
		for _, w := range doc.Sync.Warnings {
			out = append(out, Warning{Code: WarnSyncWarning, Message: w})
		}
	}
	return out
}

// resolveRef finds the record for a user-supplied id, key or path. Active
// records win unless archived is set, in which case archived ones do.
func resolveRef(doc *store.Document, ref string, archived bool) (*skills.Record, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &cliError{Code: ErrMissingArgument, Message: "skill reference is empty"}
	}
	if lastresults.IsRef(ref) {
		ids, err := expandNumbered([]string{ref})
		if err != nil {
			return nil, err
		}
		if len(ids) != 1 {
			return nil, &cliError{Code: ErrInvalidInput, Message: fmt.Sprintf("%s refers to %d skills, expected one", ref, len(ids))}
		}
		ref = ids[0]
	}

	matches := doc.FindAll(ref)
	if len(matches) == 0 && looksLikePath(ref) {
		if abs, err := filepath.Abs(expandTilde(ref)); err == nil {
			matches = doc.FindAll(abs)
		}
	}
	if len(matches) == 0 {
		return nil, &cliError{
			Code:       ErrSkillNotFound,
			Message:    "no skill matches " + ref,
			Suggestion: "Run 'skillsync list' to see known skills",
		}
	}

	var preferred, other []*skills.Record
	for _, rec := range matches {
		if rec.IsArchived() == archived {
			preferred = append(preferred, rec)
		} else {
			other = append(other, rec)
		}
	}
	if len(preferred) == 0 {
		preferred = other
	}
	if len(preferred) > 1 {
		candidates := make([]map[string]string, 0, len(preferred))
		for _, rec := range preferred {
			candidates = append(candidates, map[string]string{
				"id":    rec.ID,
				"scope": string(rec.Scope),
				"path":  rec.CanonicalSourcePath,
			})
		}
		return nil, &cliError{
			Code:       ErrRefAmbiguous,
			Message:    ref + " matches more than one skill",
			Suggestion: "Use the skill id instead",
			Details:    candidates,
		}
	}
	return preferred[0], nil
}

func resolveRefs(doc *store.Document, refs []string, archived bool) ([]*skills.Record, error) {
	refs, err := expandNumbered(refs)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(refs))
	out := make([]*skills.Record, 0, len(refs))
	for _, ref := range refs {
		rec, err := resolveRef(doc, ref, archived)
		if err != nil {
			return nil, err
		}
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		out = append(out, rec)
	}
	return out, nil
}

// expandNumbered replaces @N references with the ids of the matching rows
// from the last list.
func expandNumbered(refs []string) ([]string, error) {
	var last *lastresults.LastResults
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if !lastresults.IsRef(ref) {
			out = append(out, ref)
			continue
		}
		nums, err := lastresults.ParseRef(ref)
		if err != nil {
			return nil, &cliError{Code: ErrInvalidInput, Message: err.Error(), Err: err}
		}
		if last == nil {
			last, err = lastresults.Read(lastresults.Path(current.paths.State))
			if err != nil {
				return nil, &cliError{
					Code:       ErrInvalidInput,
					Message:    err.Error(),
					Suggestion: "Run 'skillsync list' first to number the skills",
					Err:        err,
				}
			}
		}
		entries, err := last.GetByNumbers(nums)
		if err != nil {
			return nil, &cliError{Code: ErrInvalidInput, Message: err.Error(), Err: err}
		}
		for _, e := range entries {
			out = append(out, e.ID)
		}
	}
	return out, nil
}

// rememberResults numbers recs for later @N references.
func rememberResults(ctx context.Context, recs []skills.Record) {
	lr := &lastresults.LastResults{
		Source:    "list",
		Timestamp: time.Now().UTC(),
		Results:   make([]lastresults.Entry, 0, len(recs)),
	}
	for i, rec := range recs {
		lr.Results = append(lr.Results, lastresults.Entry{
			Num:      i + 1,
			ID:       rec.ID,
			SkillKey: rec.SkillKey,
			Path:     rec.CanonicalSourcePath,
		})
	}
	if err := lastresults.Write(lastresults.Path(current.paths.State), lr); err != nil {
		logger.G(ctx).WithError(err).Debug("failed to remember list results")
	}
}

func looksLikePath(ref string) bool {
	return strings.ContainsRune(ref, filepath.Separator) || strings.HasPrefix(ref, "~") || strings.HasPrefix(ref, ".")
}

func expandTilde(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	if home, err := skills.DefaultLayout(); err == nil {
		return filepath.Join(home.Home, strings.TrimPrefix(p, "~"))
	}
	return p
}

func absPaths(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if abs, err := filepath.Abs(expandTilde(p)); err == nil {
			out = append(out, abs)
		}
	}
	return out
}

// completeSkills offers skill keys from the state file.
func completeSkills(prefix string) []string {
	a, err := loadApp()
	if err != nil {
		return nil
	}
	doc, err := a.loadState()
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, rec := range doc.Skills {
		if strings.HasPrefix(rec.SkillKey, prefix) && !seen[rec.SkillKey] {
			seen[rec.SkillKey] = true
			out = append(out, rec.SkillKey)
		}
	}
	sort.Strings(out)
	return out
}

func init() {
	commands.SetSkillCompleter(completeSkills)
}
