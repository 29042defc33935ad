package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/store"
	"github.com/aidanlsb/skillsync/internal/ui"
)

type listData struct {
	Skills []skills.Record `json:"skills"`
}

var listCmd = newCommand("list", func(cmd *cobra.Command, args []string) error {
	scope, _ := cmd.Flags().GetString("scope")
	withArchived, _ := cmd.Flags().GetBool("archived")

	switch skills.Scope(scope) {
	case "", skills.ScopeGlobal, skills.ScopeProject:
	default:
		return handleErrorMsg(ErrInvalidInput, fmt.Sprintf("unknown scope %q", scope), "Use --scope global or --scope project")
	}

	doc, err := current.loadState()
	if err != nil {
		return handleError(err)
	}

	recs := filterRecords(doc, skills.Scope(scope), withArchived)
	rememberResults(cmd.Context(), recs)
	warnings := notSyncedWarning(doc)

	if isJSONOutput() {
		outputSuccessWithWarnings(listData{Skills: recs}, warnings, &Meta{Count: len(recs)})
		return nil
	}

	if len(recs) == 0 {
		outln(ui.Hint("No skills found."))
		printWarnings(warnings)
		return nil
	}

	table := ui.NewTable(ui.NewDisplayContext(), ui.SkillsLayout)
	for i, rec := range recs {
		table.AddRow(
			fmt.Sprintf("%d", i+1),
			rec.Name,
			string(rec.Scope),
			ecosystemLabel(current.layout, &rec),
			displayPath(rec.CanonicalSourcePath),
		)
	}
	outln(table.Render())
	outln(ui.Hint(ui.Count(len(recs), "skill")))
	printWarnings(warnings)
	return nil
})

// filterRecords returns the document's records in state order.
func filterRecords(doc *store.Document, scope skills.Scope, withArchived bool) []skills.Record {
	out := make([]skills.Record, 0, len(doc.Skills))
	for _, rec := range doc.Skills {
		if rec.IsArchived() && !withArchived {
			continue
		}
		if scope != "" && rec.Scope != scope {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func notSyncedWarning(doc *store.Document) []Warning {
	if doc.Sync.Status != store.StatusUnknown {
		return nil
	}
	return []Warning{{Code: WarnStateNotSynced, Message: "no sync has run yet; run 'skillsync sync'"}}
}

func ecosystemLabel(layout skills.Layout, rec *skills.Record) string {
	if rec.IsArchived() {
		return string(rec.Status)
	}
	if eco, ok := layout.EcosystemOf(rec.Scope, rec.WorkspacePath(), rec.CanonicalSourcePath); ok {
		return string(eco)
	}
	if layout.IsLegacyPath(rec.CanonicalSourcePath) {
		return "legacy"
	}
	return ""
}

// displayPath abbreviates the home directory to ~.
func displayPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + path[len(home):]
	}
	return path
}

func init() {
	rootCmd.AddCommand(listCmd)
}
