package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/skillsync/internal/logger"
	"github.com/aidanlsb/skillsync/internal/ui"
)

type rootsData struct {
	Roots []string `json:"roots"`
	// Changed is set by add/remove.
	Changed *bool `json:"changed,omitempty"`
}

type automigrateData struct {
	Enabled bool `json:"enabled"`
}

type pinData struct {
	Pinned  []string `json:"pinned_skills"`
	Changed bool     `json:"changed"`
}

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "Manage workspace discovery roots",
	Long: `Discovery roots are searched (up to three levels deep) for workspaces that
contain a .<ecosystem>/skills directory.`,
}

var rootsListCmd = newCommand("roots_list", func(cmd *cobra.Command, args []string) error {
	roots := current.prefs.WorkspaceDiscoveryRoots
	if isJSONOutput() {
		outputSuccess(rootsData{Roots: roots}, &Meta{Count: len(roots)})
		return nil
	}
	if len(roots) == 0 {
		outln(ui.Hint("No discovery roots configured."))
		return nil
	}
	for _, root := range roots {
		outln(ui.FilePath(displayPath(root)))
	}
	return nil
})

var rootsAddCmd = newCommand("roots_add", func(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(expandTilde(args[0]))
	if err != nil {
		return handleErrorMsg(ErrInvalidInput, err.Error(), "")
	}
	changed, err := current.prefs.AddRoot(root)
	if err != nil {
		return handleErrorMsg(ErrInvalidInput, err.Error(), "")
	}
	return finishRoots(cmd.Context(), changed, fmt.Sprintf("Added %s", displayPath(root)))
})

var rootsRemoveCmd = newCommand("roots_remove", func(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(expandTilde(args[0]))
	if err != nil {
		return handleErrorMsg(ErrInvalidInput, err.Error(), "")
	}
	if !current.prefs.RemoveRoot(root) {
		return handleErrorMsg(ErrInvalidInput,
			fmt.Sprintf("%s is not a discovery root", displayPath(root)),
			"Run 'skillsync roots list' to see configured roots")
	}
	return finishRoots(cmd.Context(), true, fmt.Sprintf("Removed %s", displayPath(root)))
})

func finishRoots(ctx context.Context, changed bool, msg string) error {
	var warnings []Warning
	if changed {
		if err := current.savePreferences(); err != nil {
			return handleErrorMsg(ErrConfigInvalid, err.Error(), "")
		}
		warnings = resyncAfterPreferences(ctx)
	}

	if isJSONOutput() {
		outputSuccessWithWarnings(rootsData{Roots: current.prefs.WorkspaceDiscoveryRoots, Changed: &changed}, warnings, nil)
		return nil
	}
	if changed {
		outln(ui.Check(msg))
	} else {
		outln(ui.Hint("Nothing to change."))
	}
	printWarnings(warnings)
	return nil
}

var automigrateCmd = newCommand("automigrate", func(cmd *cobra.Command, args []string) error {
	prefs := current.prefs
	var warnings []Warning

	if len(args) == 1 {
		var enabled bool
		switch args[0] {
		case "on", "true", "yes":
			enabled = true
		case "off", "false", "no":
			enabled = false
		default:
			return handleErrorMsg(ErrInvalidInput, fmt.Sprintf("unknown mode %q", args[0]), "Use 'on' or 'off'")
		}
		if prefs.AutoMigrateToCanonical != enabled {
			prefs.AutoMigrateToCanonical = enabled
			if err := current.savePreferences(); err != nil {
				return handleErrorMsg(ErrConfigInvalid, err.Error(), "")
			}
			warnings = resyncAfterPreferences(cmd.Context())
		}
	}

	if isJSONOutput() {
		outputSuccessWithWarnings(automigrateData{Enabled: prefs.AutoMigrateToCanonical}, warnings, nil)
		return nil
	}
	state := "off"
	if prefs.AutoMigrateToCanonical {
		state = "on"
	}
	outf("Auto-migration to ~/.agents/skills is %s\n", ui.Bold.Render(state))
	printWarnings(warnings)
	return nil
})

var pinCmd = newCommand("pin", func(cmd *cobra.Command, args []string) error {
	doc, err := current.loadState()
	if err != nil {
		return handleError(err)
	}
	rec, err := resolveRef(doc, args[0], false)
	if err != nil {
		return handleError(err)
	}

	prefs := current.prefs
	changed := !containsString(prefs.PinnedSkills, rec.SkillKey) && !containsString(prefs.PinnedSkills, rec.ID)
	if changed {
		prefs.PinnedSkills = append(prefs.PinnedSkills, rec.SkillKey)
	}
	return finishPins(cmd.Context(), changed, "Pinned "+rec.SkillKey)
})

var unpinCmd = newCommand("unpin", func(cmd *cobra.Command, args []string) error {
	drop := map[string]bool{args[0]: true}
	if doc, err := current.loadState(); err == nil {
		if rec, ok := doc.Find(args[0]); ok {
			drop[rec.ID] = true
			drop[rec.SkillKey] = true
		}
	}

	prefs := current.prefs
	kept := make([]string, 0, len(prefs.PinnedSkills))
	for _, ref := range prefs.PinnedSkills {
		if !drop[ref] {
			kept = append(kept, ref)
		}
	}
	changed := len(kept) != len(prefs.PinnedSkills)
	prefs.PinnedSkills = kept
	return finishPins(cmd.Context(), changed, "Unpinned "+args[0])
})

func finishPins(ctx context.Context, changed bool, msg string) error {
	var warnings []Warning
	if changed {
		if err := current.savePreferences(); err != nil {
			return handleErrorMsg(ErrConfigInvalid, err.Error(), "")
		}
		warnings = resyncAfterPreferences(ctx)
	}

	pinned := current.prefs.PinnedSkills
	if pinned == nil {
		pinned = []string{}
	}
	if isJSONOutput() {
		outputSuccessWithWarnings(pinData{Pinned: pinned, Changed: changed}, warnings, nil)
		return nil
	}
	if changed {
		outln(ui.Check(msg))
	} else {
		outln(ui.Hint("Nothing to change."))
	}
	printWarnings(warnings)
	return nil
}

// resyncAfterPreferences runs sync with the updated preferences. A failed run
// does not undo the preference change; it is reported as a warning.
func resyncAfterPreferences(ctx context.Context) []Warning {
	doc, err := current.engine(ctx).Run(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("resync after preference change failed")
		return append(current.warnings(nil), Warning{Code: WarnResyncFailed, Message: err.Error()})
	}
	return current.warnings(doc)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func init() {
	rootsCmd.AddCommand(rootsListCmd, rootsAddCmd, rootsRemoveCmd)
	rootCmd.AddCommand(rootsCmd, automigrateCmd, pinCmd, unpinCmd)
}
