package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/skillsync/internal/dates"
	"github.com/aidanlsb/skillsync/internal/store"
	"github.com/aidanlsb/skillsync/internal/ui"
)

type topSkill struct {
	ID   string `json:"id"`
	Key  string `json:"skill_key"`
	Name string `json:"name"`
}

type statusData struct {
	Sync      store.SyncInfo `json:"sync"`
	Summary   store.Summary  `json:"summary"`
	TopSkills []topSkill     `json:"top_skills"`
	StateFile string         `json:"state_file"`
}

var statusCmd = newCommand("status", func(cmd *cobra.Command, args []string) error {
	doc, err := current.loadState()
	if err != nil {
		return handleError(err)
	}

	data := statusData{
		Sync:      doc.Sync,
		Summary:   doc.Summary,
		TopSkills: resolveTopSkills(doc),
		StateFile: current.paths.State,
	}
	warnings := append(notSyncedWarning(doc), current.warnings(doc)...)

	if isJSONOutput() {
		outputSuccessWithWarnings(data, warnings, nil)
		return nil
	}

	outln(ui.Header("Sync"))
	outf("  status:       %s\n", doc.Sync.Status)
	if doc.Sync.FinishedAt != nil {
		outf("  finished:     %s %s\n", formatTime(*doc.Sync.FinishedAt), ui.Hint(fmt.Sprintf("(%dms)", doc.Sync.DurationMS)))
	}
	if doc.Sync.LastSuccessAt != nil {
		outf("  last success: %s\n", formatTime(*doc.Sync.LastSuccessAt))
	}
	if doc.Sync.Error != nil {
		outf("  error:        %s\n", *doc.Sync.Error)
	}
	outln()
	outln(ui.Header("Skills"))
	outf("  global:    %d\n", doc.Summary.GlobalCount)
	outf("  project:   %d\n", doc.Summary.ProjectCount)
	outf("  archived:  %d\n", doc.Summary.ArchivedCount)
	outf("  conflicts: %d\n", doc.Summary.ConflictCount)

	if len(data.TopSkills) > 0 {
		outln()
		outln(ui.Header("Top skills"))
		for _, s := range data.TopSkills {
			outf("  %s %s\n", ui.Accent.Render(s.Name), ui.Hint(s.Key))
		}
	}
	printWarnings(warnings)
	return nil
})

func resolveTopSkills(doc *store.Document) []topSkill {
	out := make([]topSkill, 0, len(doc.TopSkills))
	for _, id := range doc.TopSkills {
		rec, ok := doc.Find(id)
		if !ok {
			continue
		}
		out = append(out, topSkill{ID: rec.ID, Key: rec.SkillKey, Name: rec.Name})
	}
	return out
}

func formatTime(t time.Time) string {
	return dates.Describe(t, time.Now())
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
