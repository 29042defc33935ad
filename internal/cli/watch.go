package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/skillsync/internal/store"
	"github.com/aidanlsb/skillsync/internal/ui"
	"github.com/aidanlsb/skillsync/internal/watcher"
)

type watchEvent struct {
	Event   string         `json:"event"`
	At      time.Time      `json:"at"`
	Summary *store.Summary `json:"summary,omitempty"`
	Error   string         `json:"error,omitempty"`
}

var watchCmd = newCommand("watch", func(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	debounce, _ := cmd.Flags().GetDuration("debounce")
	noInitial, _ := cmd.Flags().GetBool("no-initial")
	if debounce <= 0 {
		return handleErrorMsg(ErrInvalidInput, "--debounce must be positive", "")
	}

	engine := current.engine(ctx)
	discoverer := engine.Discoverer()

	// The scheduler runs one sync at a time, so last is only touched by the
	// running sync and its OnSync callback.
	var last *store.Document
	w, err := watcher.New(watcher.Config{
		Dirs: func(ctx context.Context) []string {
			return discoverer.SkillsDirs(discoverer.Workspaces(ctx))
		},
		Sync: func(ctx context.Context) error {
			doc, err := engine.Run(ctx)
			last = doc
			return err
		},
		DebounceDelay: debounce,
		OnSync: func(err error) {
			reportWatchRun(last, err)
		},
	})
	if err != nil {
		return handleErrorMsg(ErrWatchFailed, err.Error(), "")
	}

	if !isJSONOutput() {
		outln(ui.Info(fmt.Sprintf("Watching skills directories %s", ui.Hint("(Ctrl+C to stop)"))))
	}
	err = w.Start(ctx, !noInitial)
	if err != nil && !errors.Is(err, context.Canceled) {
		return handleErrorMsg(ErrWatchFailed, err.Error(), "")
	}
	return nil
})

func reportWatchRun(doc *store.Document, err error) {
	ev := watchEvent{Event: "sync", At: time.Now().UTC()}
	if doc != nil {
		ev.Summary = &doc.Summary
	}
	if err != nil {
		ev.Error = describeError(err).Message
	}

	if isJSONOutput() {
		outputJSON(Response{OK: err == nil, Data: ev})
		return
	}
	stamp := ui.Hint(time.Now().Format("15:04:05"))
	if err != nil {
		outln(stamp, ui.Error(ev.Error))
		return
	}
	count := 0
	if doc != nil {
		count = doc.Summary.GlobalCount + doc.Summary.ProjectCount
	}
	outln(stamp, ui.Check(fmt.Sprintf("Synced %d %s", count, pluralSkill(count))))
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
