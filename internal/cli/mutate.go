package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/skillsync/internal/audit"
	"github.com/aidanlsb/skillsync/internal/logger"
	"github.com/aidanlsb/skillsync/internal/mutate"
	"github.com/aidanlsb/skillsync/internal/shellquote"
	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/ui"
)

type previewItem struct {
	ID    string       `json:"id"`
	Key   string       `json:"skill_key"`
	Name  string       `json:"name"`
	Path  string       `json:"path"`
	Scope skills.Scope `json:"scope"`
}

type mutationSpec struct {
	op       mutate.BatchOp
	verb     string // past tense for messages
	confirm  bool   // requires --confirm
	archived bool   // refs resolve to archived records first
}

var (
	deleteCmd  = newCommand("delete", runMutation(mutationSpec{op: mutate.BatchDelete, verb: "Deleted", confirm: true}))
	archiveCmd = newCommand("archive", runMutation(mutationSpec{op: mutate.BatchArchive, verb: "Archived", confirm: true}))
	restoreCmd = newCommand("restore", runMutation(mutationSpec{op: mutate.BatchRestore, verb: "Restored", archived: true}))
	promoteCmd = newCommand("promote", runMutation(mutationSpec{op: mutate.BatchPromote, verb: "Promoted", confirm: true}))
)

var renameCmd = newCommand("rename", func(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	doc, err := current.loadState()
	if err != nil {
		return handleError(err)
	}
	rec, err := resolveRef(doc, args[0], false)
	if err != nil {
		return handleError(err)
	}
	op, err := current.operator(ctx)
	if err != nil {
		return handleError(err)
	}
	res, err := op.Rename(ctx, rec, args[1])
	journal(ctx, "rename", rec, res, err)
	if err != nil {
		return handleError(err)
	}
	return reportResult(res, "Renamed")
})

func runMutation(spec mutationSpec) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		refs := append([]string(nil), args...)
		if fromStdin, _ := cmd.Flags().GetBool("stdin"); fromStdin {
			refs = append(refs, readRefs()...)
		}
		if len(refs) == 0 {
			return handleErrorMsg(ErrMissingArgument, "no skills given", "Pass skill ids or keys, or use --stdin")
		}

		doc, err := current.loadState()
		if err != nil {
			return handleError(err)
		}
		recs, err := resolveRefs(doc, refs, spec.archived)
		if err != nil {
			return handleError(err)
		}

		confirm := false
		if spec.confirm {
			confirm, _ = cmd.Flags().GetBool("confirm")
			if !confirm {
				printPreview(spec, recs)
				confirm = promptForConfirm(fmt.Sprintf("%s %d %s?", capitalize(string(spec.op)), len(recs), pluralSkill(len(recs))))
			}
			if !confirm {
				rerun := append(append([]string{"skillsync", string(spec.op)}, refs...), "--confirm")
				return handleErrorWithDetails(ErrConfirmationRequired,
					fmt.Sprintf("%s needs confirmation", spec.op),
					"Re-run with --confirm to apply: "+shellquote.Join(rerun...),
					preview(recs))
			}
		}

		op, err := current.operator(ctx)
		if err != nil {
			return handleError(err)
		}

		if len(recs) == 1 {
			res, err := applyOne(ctx, op, spec.op, recs[0], confirm)
			journal(ctx, string(spec.op), recs[0], res, err)
			if err != nil {
				return handleError(err)
			}
			return reportResult(res, spec.verb)
		}

		batch, err := op.Batch(ctx, spec.op, recs, confirm)
		for i, item := range batch.Items {
			var itemErr error
			if !item.OK {
				itemErr = errors.New(item.Error)
			}
			journal(ctx, string(spec.op), recs[i], item.Result, itemErr)
		}
		return reportBatch(batch, err, spec.verb)
	}
}

func applyOne(ctx context.Context, op *mutate.Operator, kind mutate.BatchOp, rec *skills.Record, confirm bool) (*mutate.Result, error) {
	switch kind {
	case mutate.BatchDelete:
		return op.Delete(ctx, rec, confirm)
	case mutate.BatchArchive:
		return op.Archive(ctx, rec, confirm)
	case mutate.BatchRestore:
		return op.Restore(ctx, rec)
	case mutate.BatchPromote:
		return op.Promote(ctx, rec, confirm)
	}
	return nil, fmt.Errorf("unknown operation %q", kind)
}

// journal appends the outcome of one mutation to the audit log. A journal
// that cannot be written only costs a log line.
func journal(ctx context.Context, op string, rec *skills.Record, res *mutate.Result, opErr error) {
	entry := audit.Entry{Operation: op, ID: rec.ID, SkillKey: rec.SkillKey}
	if res != nil {
		entry.SkillKey = res.Key
		entry.From = res.From
		entry.To = res.To
	}
	if opErr != nil {
		entry.Error = opErr.Error()
	}
	if err := current.journal.Log(entry); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to write audit entry")
	}
}

func reportResult(res *mutate.Result, verb string) error {
	var warnings []Warning
	if res.SyncError != "" {
		warnings = append(warnings, Warning{Code: WarnResyncFailed, Message: res.SyncError, Ref: res.ID})
	}
	warnings = append(warnings, current.warnings(nil)...)

	if isJSONOutput() {
		outputSuccessWithWarnings(res, warnings, nil)
		return nil
	}

	msg := fmt.Sprintf("%s %s", verb, ui.Accent.Render(res.Key))
	if res.To != "" {
		msg += " " + ui.Hint("→ "+displayPath(res.To))
	}
	outln(ui.Check(msg))
	printWarnings(warnings)
	return nil
}

func reportBatch(batch *mutate.BatchResult, err error, verb string) error {
	var warnings []Warning
	if batch.SyncError != "" {
		warnings = append(warnings, Warning{Code: WarnResyncFailed, Message: batch.SyncError})
	}
	warnings = append(warnings, current.warnings(nil)...)

	if isJSONOutput() {
		if err != nil {
			info := describeError(err)
			outputError(info.Code, info.Message, batch, "")
			return nil
		}
		outputSuccessWithWarnings(batch, warnings, &Meta{Count: batch.Succeeded})
		return nil
	}

	for _, item := range batch.Items {
		if item.OK {
			outln(ui.Check(fmt.Sprintf("%s %s", verb, ui.Accent.Render(item.Key))))
		} else {
			outln(ui.Error(fmt.Sprintf("%s: %s", item.Key, item.Error)))
		}
	}
	printWarnings(warnings)
	if err != nil {
		return handleError(err)
	}
	return nil
}

func preview(recs []*skills.Record) []previewItem {
	out := make([]previewItem, 0, len(recs))
	for _, rec := range recs {
		path := rec.CanonicalSourcePath
		if rec.IsArchived() && rec.ArchivedBundlePath != "" {
			path = rec.ArchivedBundlePath
		}
		out = append(out, previewItem{ID: rec.ID, Key: rec.SkillKey, Name: rec.Name, Path: path, Scope: rec.Scope})
	}
	return out
}

func printPreview(spec mutationSpec, recs []*skills.Record) {
	if isJSONOutput() {
		return
	}
	outf("Would %s:\n", spec.op)
	for _, item := range preview(recs) {
		outf("  %s %s\n", ui.Accent.Render(item.Key), ui.Hint(displayPath(item.Path)))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// readRefs reads one reference per line, skipping blanks and # comments.
func readRefs() []string {
	var refs []string
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, line)
	}
	return refs
}

func init() {
	rootCmd.AddCommand(deleteCmd, archiveCmd, restoreCmd, promoteCmd, renameCmd)
}
