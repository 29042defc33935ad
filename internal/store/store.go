// Package store persists the sync state document read by the desktop shell.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aidanlsb/skillsync/internal/atomicfile"
	"github.com/aidanlsb/skillsync/internal/skills"
)

// Version is the current state document schema version.
const Version = 1

// Status is the health of the last sync run.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSyncing Status = "syncing"
	StatusUnknown Status = "unknown"
)

// SyncInfo describes the most recent run.
type SyncInfo struct {
	Status        Status     `json:"status"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	DurationMS    int64      `json:"duration_ms"`
	Error         *string    `json:"error"`
	Warnings      []string   `json:"warnings,omitempty"`
}

// Summary holds the counts shown by the UI.
type Summary struct {
	GlobalCount   int `json:"global_count"`
	ProjectCount  int `json:"project_count"`
	ConflictCount int `json:"conflict_count"`
	ArchivedCount int `json:"archived_count"`
}

// Document is the persisted state.
type Document struct {
	Version     int             `json:"version"`
	GeneratedAt time.Time       `json:"generated_at"`
	Sync        SyncInfo        `json:"sync"`
	Summary     Summary         `json:"summary"`
	Skills      []skills.Record `json:"skills"`
	TopSkills   []string        `json:"top_skills"`
}

// Empty returns the document used before the first run.
func Empty() *Document {
	return &Document{
		Version:   Version,
		Sync:      SyncInfo{Status: StatusUnknown},
		Skills:    []skills.Record{},
		TopSkills: []string{},
	}
}

// Load reads the document at path. A missing file yields Empty.
func Load(path string) (*Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("state path is required")
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state %s: %w", path, err)
	}

	doc := Empty()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", path, err)
	}
	if doc.Version == 0 {
		doc.Version = Version
	}
	if doc.Sync.Status == "" {
		doc.Sync.Status = StatusUnknown
	}
	if doc.Skills == nil {
		doc.Skills = []skills.Record{}
	}
	if doc.TopSkills == nil {
		doc.TopSkills = []string{}
	}
	for i := range doc.Skills {
		if doc.Skills[i].TargetPaths == nil {
			doc.Skills[i].TargetPaths = []string{}
		}
	}
	return doc, nil
}

// Save writes the document atomically.
func Save(path string, doc *Document) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("state path is required")
	}
	out := *doc
	out.Version = Version
	if out.Skills == nil {
		out.Skills = []skills.Record{}
	}
	if out.TopSkills == nil {
		out.TopSkills = []string{}
	}
	if err := atomicfile.WriteJSON(path, out); err != nil {
		return fmt.Errorf("failed to write state %s: %w", path, err)
	}
	return nil
}

// MarkSyncing flags the persisted document as mid-run, leaving everything
// else untouched. It returns the loaded document.
func MarkSyncing(path string, now time.Time) (*Document, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	doc.Sync.Status = StatusSyncing
	doc.Sync.StartedAt = &now
	if err := Save(path, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Find returns the record whose id, skill key or canonical path matches ref.
// Active records win over archived ones.
func (d *Document) Find(ref string) (*skills.Record, bool) {
	var fallback *skills.Record
	for i := range d.Skills {
		rec := &d.Skills[i]
		if rec.ID != ref && rec.SkillKey != ref && rec.CanonicalSourcePath != ref {
			continue
		}
		if !rec.IsArchived() {
			return rec, true
		}
		if fallback == nil {
			fallback = rec
		}
	}
	return fallback, fallback != nil
}

// FindAll returns every record matching ref.
func (d *Document) FindAll(ref string) []*skills.Record {
	var out []*skills.Record
	for i := range d.Skills {
		rec := &d.Skills[i]
		if rec.ID == ref || rec.SkillKey == ref || rec.CanonicalSourcePath == ref {
			out = append(out, rec)
		}
	}
	return out
}
