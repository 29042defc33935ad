package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/skillsync/internal/audit"
	"github.com/aidanlsb/skillsync/internal/dates"
	"github.com/aidanlsb/skillsync/internal/ui"
)

type auditData struct {
	Entries []audit.Entry `json:"entries"`
}

var auditCmd = newCommand("audit", func(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	sinceArg, _ := cmd.Flags().GetString("since")

	var since time.Time
	if sinceArg != "" {
		var err error
		if since, err = dates.ParseSince(sinceArg, time.Now()); err != nil {
			return handleErrorMsg(ErrInvalidInput, err.Error(), "")
		}
	}

	entries, err := current.journal.Recent(since, limit)
	if err != nil {
		return handleErrorMsg(ErrHistoryError, err.Error(), "")
	}

	if isJSONOutput() {
		outputSuccess(auditData{Entries: entries}, &Meta{Count: len(entries)})
		return nil
	}
	if len(entries) == 0 {
		outln(ui.Hint("No changes recorded."))
		return nil
	}

	for _, e := range entries {
		mark := ui.SymbolSuccess
		if e.Error != "" {
			mark = ui.SymbolError
		}
		line := fmt.Sprintf("%s %s  %-8s %s", mark, formatTime(e.Timestamp), e.Operation, ui.Accent.Render(e.SkillKey))
		if e.To != "" && e.To != e.From {
			line += " " + ui.Hint("→ "+displayPath(e.To))
		}
		outln(line)
		if e.Error != "" {
			outln("  " + ui.Muted.Render(e.Error))
		}
	}
	return nil
})

func init() {
	rootCmd.AddCommand(auditCmd)
}
