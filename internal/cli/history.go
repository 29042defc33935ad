package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/skillsync/internal/dates"
	"github.com/aidanlsb/skillsync/internal/history"
	"github.com/aidanlsb/skillsync/internal/store"
	"github.com/aidanlsb/skillsync/internal/ui"
)

type historyData struct {
	Runs []history.Run `json:"runs"`
}

var historyCmd = newCommand("history", func(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")
	failedOnly, _ := cmd.Flags().GetBool("failed")
	sinceArg, _ := cmd.Flags().GetString("since")

	q := history.Query{Limit: limit}
	if failedOnly {
		q.Statuses = []store.Status{store.StatusFailed}
	}
	if sinceArg != "" {
		since, err := dates.ParseSince(sinceArg, time.Now())
		if err != nil {
			return handleErrorMsg(ErrInvalidInput, err.Error(), "")
		}
		q.Since = since
	}

	ledger, err := current.history()
	if err != nil {
		return handleErrorMsg(ErrHistoryError, err.Error(), "")
	}

	runs, err := ledger.Find(ctx, q)
	if err != nil {
		return handleErrorMsg(ErrHistoryError, err.Error(), "")
	}

	if isJSONOutput() {
		outputSuccess(historyData{Runs: runs}, &Meta{Count: len(runs)})
		return nil
	}
	if len(runs) == 0 {
		outln(ui.Hint("No sync runs recorded."))
		return nil
	}

	for _, run := range runs {
		mark := ui.SymbolSuccess
		if run.Status != store.StatusOK {
			mark = ui.SymbolError
		}
		line := fmt.Sprintf("%s %s  %d global, %d project %s",
			mark, formatTime(run.FinishedAt), run.GlobalCount, run.ProjectCount,
			ui.Hint(fmt.Sprintf("(%dms)", run.DurationMS)))
		if run.Warnings > 0 {
			line += " " + ui.Hint(ui.Count(run.Warnings, "warning"))
		}
		outln(line)
		if run.Error != "" {
			outln("  " + ui.Muted.Render(run.Error))
		}
	}
	return nil
})

func init() {
	rootCmd.AddCommand(historyCmd)
}
