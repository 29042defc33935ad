package syncer

import (
	"context"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/aidanlsb/skillsync/internal/discovery"
	"github.com/aidanlsb/skillsync/internal/logger"
	"github.com/aidanlsb/skillsync/internal/skills"
)

// Conflict is a group with more than one healthy real copy.
type Conflict struct {
	Scope     skills.Scope
	Workspace string
	Key       string
	Paths     []string
}

// Migration moves canonical content from a non-preferred root into the
// preferred slot and leaves a symlink behind.
type Migration struct {
	Key  string
	From string
	To   string
}

// Repair replaces a preferred slot whose manifest link is broken with healthy
// content found elsewhere in the group.
type Repair struct {
	Key     string
	Slot    string
	Healthy string
}

// Plan is the resolver's output.
type Plan struct {
	Records    []skills.Record
	Conflicts  []Conflict
	Migrations []Migration
	Repairs    []Repair
}

// Resolve groups occurrences by (scope, workspace, key) and picks one
// canonical source per group.
func Resolve(ctx context.Context, layout skills.Layout, occs []*discovery.Occurrence, autoMigrate bool) *Plan {
	groups := make(map[discovery.GroupKey][]*discovery.Occurrence)
	var order []discovery.GroupKey
	for _, occ := range occs {
		g := occ.Group()
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], occ)
	}

	plan := &Plan{}
	for _, g := range order {
		members := modernOnly(groups[g])
		if len(members) == 0 {
			logger.G(ctx).WithField("key", g.Key).Debug("ignoring legacy-only skill")
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].Rank() != members[j].Rank() {
				return members[i].Rank() < members[j].Rank()
			}
			return members[i].Path < members[j].Path
		})
		resolveGroup(ctx, layout, g, members, autoMigrate, plan)
	}
	return plan
}

func modernOnly(members []*discovery.Occurrence) []*discovery.Occurrence {
	out := make([]*discovery.Occurrence, 0, len(members))
	for _, occ := range members {
		if !occ.Legacy {
			out = append(out, occ)
		}
	}
	return out
}

// resolveGroup expects members sorted by rank.
func resolveGroup(ctx context.Context, layout skills.Layout, g discovery.GroupKey, members []*discovery.Occurrence, autoMigrate bool, plan *Plan) {
	var healthy, broken []*discovery.Occurrence
	for _, occ := range members {
		switch {
		case occ.IsHealthyReal():
			healthy = append(healthy, occ)
		case occ.IsBrokenReal():
			broken = append(broken, occ)
		}
	}
	log := logger.G(ctx).WithField("key", g.Key).WithField("scope", g.Scope)
	healthy = collapseAliases(log, healthy)
	broken = collapseAliases(log, broken)

	switch {
	case len(healthy) >= 2:
		conflict := Conflict{Scope: g.Scope, Workspace: g.Workspace, Key: g.Key}
		for _, occ := range healthy {
			conflict.Paths = append(conflict.Paths, occ.Path)
		}
		plan.Conflicts = append(plan.Conflicts, conflict)

	case len(healthy) == 1:
		canonical := healthy[0]
		path := canonical.Path
		if autoMigrate && len(broken) > 0 && broken[0].Rank() < canonical.Rank() {
			plan.Repairs = append(plan.Repairs, Repair{Key: g.Key, Slot: broken[0].Path, Healthy: canonical.Path})
			path = broken[0].Path
		} else if autoMigrate {
			if slot, ok := preferredSlot(layout, g, canonical); ok {
				plan.Migrations = append(plan.Migrations, Migration{Key: g.Key, From: canonical.Path, To: slot})
				path = slot
			}
		}
		plan.Records = append(plan.Records, newRecord(layout, g, canonical, path, true, nil))

	case len(broken) > 0:
		canonical := broken[0]
		log.WithField("path", canonical.Path).Warn("canonical manifest is a broken symlink and no healthy copy exists; leaving it untouched")
		plan.Records = append(plan.Records, newRecord(layout, g, canonical, canonical.Path, false, &canonical.ManifestLink.Target))

	default:
		canonical := members[0]
		for _, occ := range members {
			if !occ.EntryLink.Broken {
				canonical = occ
				break
			}
		}
		plan.Records = append(plan.Records, newRecord(layout, g, canonical, canonical.Path, !canonical.EntryLink.Broken, &canonical.EntryLink.Target))
	}
}

// collapseAliases keeps one occurrence per on-disk identity, so a package
// seen through a symlinked skills dir is not mistaken for a second copy. The
// occurrence reached without a symlinked dir represents the package; ties keep
// rank order.
func collapseAliases(log *logrus.Entry, occs []*discovery.Occurrence) []*discovery.Occurrence {
	out := make([]*discovery.Occurrence, 0, len(occs))
	index := make(map[string]int, len(occs))
	for _, occ := range occs {
		if occ.Identity == "" {
			out = append(out, occ)
			continue
		}
		i, ok := index[occ.Identity]
		if !ok {
			index[occ.Identity] = len(out)
			out = append(out, occ)
			continue
		}
		alias := occ
		if out[i].ViaLink && !occ.ViaLink {
			alias, out[i] = out[i], occ
		}
		log.WithField("alias", alias.Path).WithField("path", out[i].Path).Debug("same package reached through a symlinked skills dir")
	}
	return out
}

// preferredSlot returns the preferred-root path for a canonical sitting
// elsewhere, when that slot is free (missing or a symlink). Project workspaces
// must already have the preferred skills dir.
func preferredSlot(layout skills.Layout, g discovery.GroupKey, canonical *discovery.Occurrence) (string, bool) {
	if canonical.Ecosystem == skills.PreferredEcosystem {
		return "", false
	}
	dir := layout.Dir(g.Scope, g.Workspace, skills.PreferredEcosystem)
	if g.Scope == skills.ScopeProject {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return "", false
		}
	}
	slot := skills.EntryPath(dir, g.Key, canonical.Kind)
	info, err := os.Lstat(slot)
	if err == nil && info.Mode()&os.ModeSymlink == 0 {
		return "", false
	}
	return slot, true
}

func newRecord(layout skills.Layout, g discovery.GroupKey, occ *discovery.Occurrence, path string, exists bool, symlinkTarget *string) skills.Record {
	rec := skills.Record{
		ID:                  skills.RecordID(g.Scope, g.Workspace, g.Key),
		Name:                occ.Name,
		Scope:               g.Scope,
		Workspace:           skills.StringPtr(g.Workspace),
		CanonicalSourcePath: path,
		TargetPaths:         layout.TargetPaths(g.Scope, g.Workspace, g.Key, occ.Kind, path),
		Exists:              exists,
		IsSymlinkCanonical:  symlinkTarget != nil,
		PackageType:         occ.Kind,
		SkillKey:            g.Key,
		Status:              skills.StatusActive,
	}
	if symlinkTarget != nil {
		target := *symlinkTarget
		rec.SymlinkTarget = &target
	}
	return rec
}
