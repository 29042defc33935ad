package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/skillsync/internal/store"
	"github.com/aidanlsb/skillsync/internal/ui"
)

type syncData struct {
	Sync      store.SyncInfo `json:"sync"`
	Summary   store.Summary  `json:"summary"`
	TopSkills []string       `json:"top_skills"`
	Count     int            `json:"count"`
}

var syncCmd = newCommand("sync", func(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine := current.engine(ctx)

	var spinner *ui.Spinner
	if !isJSONOutput() {
		spinner = ui.NewSpinner("Syncing skills")
		spinner.Start()
	}
	doc, err := engine.Run(ctx)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return handleError(err)
	}

	data := syncData{
		Sync:      doc.Sync,
		Summary:   doc.Summary,
		TopSkills: doc.TopSkills,
		Count:     doc.Summary.GlobalCount + doc.Summary.ProjectCount,
	}
	warnings := current.warnings(doc)
	if isJSONOutput() {
		outputSuccessWithWarnings(data, warnings, &Meta{Count: data.Count, DurationMS: doc.Sync.DurationMS})
		return nil
	}

	outln(ui.Check(fmt.Sprintf("Synced %d %s %s",
		data.Count, pluralSkill(data.Count),
		ui.Hint(fmt.Sprintf("(%d global, %d project, %d archived)",
			doc.Summary.GlobalCount, doc.Summary.ProjectCount, doc.Summary.ArchivedCount)))))
	printWarnings(warnings)
	return nil
})

func printWarnings(warnings []Warning) {
	for _, w := range warnings {
		outln(ui.Warning(w.Message))
	}
}

func pluralSkill(n int) string {
	if n == 1 {
		return "skill"
	}
	return "skills"
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
