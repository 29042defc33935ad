package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/skillsync/internal/check"
	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/ui"
)

type validateItem struct {
	ID           string        `json:"id"`
	Key          string        `json:"skill_key"`
	Name         string        `json:"name"`
	Path         string        `json:"canonical_source_path"`
	Issues       []check.Issue `json:"issues"`
	Fixed        []check.Code  `json:"fixed,omitempty"`
	FixError     string        `json:"fix_error,omitempty"`
	RepairPrompt string        `json:"repair_prompt,omitempty"`
}

type validateData struct {
	Skills     []validateItem `json:"skills"`
	IssueCount int            `json:"issue_count"`
}

var validateCmd = newCommand("validate", func(cmd *cobra.Command, args []string) error {
	fix, _ := cmd.Flags().GetBool("fix")
	wantPrompt, _ := cmd.Flags().GetBool("repair-prompt")

	doc, err := current.loadState()
	if err != nil {
		return handleError(err)
	}

	var recs []*skills.Record
	if len(args) == 1 {
		rec, err := resolveRef(doc, args[0], false)
		if err != nil {
			return handleError(err)
		}
		recs = append(recs, rec)
	} else {
		for i := range doc.Skills {
			if !doc.Skills[i].IsArchived() {
				recs = append(recs, &doc.Skills[i])
			}
		}
	}

	v := current.validator()
	data := validateData{Skills: make([]validateItem, 0, len(recs))}
	for _, rec := range recs {
		item := validateItem{ID: rec.ID, Key: rec.SkillKey, Name: rec.Name, Path: rec.CanonicalSourcePath}
		if fix {
			fixed, err := v.Fix(rec)
			item.Fixed = fixed
			if err != nil {
				item.FixError = err.Error()
			}
		}
		item.Issues = v.Validate(rec).Issues
		if wantPrompt {
			item.RepairPrompt = check.RepairPrompt(rec, item.Issues)
		}
		data.IssueCount += len(item.Issues)
		data.Skills = append(data.Skills, item)
	}

	if isJSONOutput() {
		outputSuccessWithWarnings(data, notSyncedWarning(doc), &Meta{Count: len(data.Skills)})
		return nil
	}

	if wantPrompt {
		for _, item := range data.Skills {
			if item.RepairPrompt != "" {
				outln(item.RepairPrompt)
			}
		}
		return nil
	}

	withIssues := 0
	for _, item := range data.Skills {
		if len(item.Fixed) > 0 {
			outln(ui.Check(fmt.Sprintf("%s: fixed %d %s", item.Key, len(item.Fixed), pluralIssue(len(item.Fixed)))))
		}
		if item.FixError != "" {
			outln(ui.Error(fmt.Sprintf("%s: %s", item.Key, item.FixError)))
		}
		if len(item.Issues) == 0 {
			continue
		}
		withIssues++
		outln(ui.Header(item.Name) + " " + ui.Hint(item.Key))
		for _, issue := range item.Issues {
			line := fmt.Sprintf("  %s %s", ui.Hint("["+string(issue.Code)+"]"), issue.Message)
			if issue.SourceFile != "" {
				line += " " + ui.Location(displayPath(issue.SourceFile), issue.Line)
			}
			if issue.AutoFixable {
				line += " " + ui.Hint("(fixable with --fix)")
			}
			outln(line)
		}
	}

	if data.IssueCount == 0 {
		outln(ui.Check(fmt.Sprintf("%d %s checked, no issues", len(data.Skills), pluralSkill(len(data.Skills)))))
		return nil
	}
	outln(ui.Warning(fmt.Sprintf("Found %s", ui.IssueCounts(data.IssueCount, withIssues))))
	return nil
})

func pluralIssue(n int) string {
	if n == 1 {
		return "issue"
	}
	return "issues"
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
