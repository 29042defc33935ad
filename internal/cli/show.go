package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/ui"
)

type showData struct {
	Record       *skills.Record `json:"skill"`
	ManifestPath string         `json:"manifest_path"`
	Content      string         `json:"content"`
}

var showCmd = newCommand("show", func(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetBool("raw")

	doc, err := current.loadState()
	if err != nil {
		return handleError(err)
	}
	rec, err := resolveRef(doc, args[0], false)
	if err != nil {
		return handleError(err)
	}

	manifest := skills.ManifestPath(rec.CanonicalSourcePath, rec.PackageType)
	content, err := os.ReadFile(manifest)
	if err != nil {
		return handleError(&cliError{
			Code:       ErrSkillNotFound,
			Message:    fmt.Sprintf("cannot read manifest for %s: %v", rec.SkillKey, err),
			Suggestion: fmt.Sprintf("Run 'skillsync validate %s' for details", rec.SkillKey),
			Err:        err,
		})
	}

	if isJSONOutput() {
		outputSuccess(showData{Record: rec, ManifestPath: manifest, Content: string(content)}, nil)
		return nil
	}
	if raw {
		fmt.Fprint(stdout, string(content))
		return nil
	}

	header := fmt.Sprintf("%s %s %s", ui.AccentBold.Render(rec.Name), ui.Scope(string(rec.Scope)), ui.Status(string(rec.Status)))
	outln(header)
	outln(ui.FilePath(displayPath(manifest)))

	display := ui.NewDisplayContext()
	rendered, err := ui.RenderMarkdown(string(content), display.AvailableWidth(ui.MarkdownRenderMargin))
	if err != nil {
		fmt.Fprint(stdout, string(content))
		return nil
	}
	fmt.Fprint(stdout, rendered)
	return nil
})

func init() {
	rootCmd.AddCommand(showCmd)
}
