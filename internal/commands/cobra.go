package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// GenerateCobraCommand creates a Cobra command from registry metadata: Use,
// Short, Long, argument validation, flags and static completions. The caller
// attaches RunE. The command name is the last word of the registry name.
func GenerateCobraCommand(id string) *cobra.Command {
	meta, ok := Registry[id]
	if !ok {
		return nil
	}

	words := strings.Fields(meta.Name)
	use := words[len(words)-1]
	for _, arg := range meta.Args {
		switch {
		case arg.Variadic:
			use += fmt.Sprintf(" [%s...]", arg.Name)
		case arg.Required:
			use += fmt.Sprintf(" <%s>", arg.Name)
		default:
			use += fmt.Sprintf(" [%s]", arg.Name)
		}
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: meta.Description,
		Long:  BuildLongDesc(meta),
		Args:  argsValidator(meta.Args),
	}

	for _, flag := range meta.Flags {
		switch flag.Type {
		case FlagTypeBool:
			cmd.Flags().Bool(flag.Name, flag.Default == "true", flag.Description)
		case FlagTypeInt:
			var defaultInt int
			fmt.Sscanf(flag.Default, "%d", &defaultInt)
			cmd.Flags().Int(flag.Name, defaultInt, flag.Description)
		case FlagTypeDuration:
			defaultDur, _ := time.ParseDuration(flag.Default)
			cmd.Flags().Duration(flag.Name, defaultDur, flag.Description)
		default:
			cmd.Flags().String(flag.Name, flag.Default, flag.Description)
		}

		if flag.Short != "" {
			cmd.Flags().Lookup(flag.Name).Shorthand = flag.Short
		}
	}

	if len(meta.Args) > 0 {
		cmd.ValidArgsFunction = generateCompletionFunc(meta.Args)
	}
	return cmd
}

func argsValidator(args []ArgMeta) cobra.PositionalArgs {
	minArgs, maxArgs := 0, len(args)
	for _, arg := range args {
		if arg.Required {
			minArgs++
		}
		if arg.Variadic {
			return cobra.MinimumNArgs(minArgs)
		}
	}
	switch {
	case minArgs == maxArgs && minArgs == 0:
		return cobra.NoArgs
	case minArgs == maxArgs:
		return cobra.ExactArgs(minArgs)
	default:
		return cobra.RangeArgs(minArgs, maxArgs)
	}
}

// BuildLongDesc returns the long description followed by the examples.
func BuildLongDesc(meta Meta) string {
	longDesc := meta.Description
	if meta.LongDesc != "" {
		longDesc = meta.LongDesc
	}
	if len(meta.Examples) == 0 {
		return longDesc
	}

	var b strings.Builder
	b.WriteString(longDesc)
	b.WriteString("\n\nExamples:\n")
	for _, ex := range meta.Examples {
		b.WriteString("  ")
		b.WriteString(ex)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// generateCompletionFunc creates a shell completion function based on arg metadata.
func generateCompletionFunc(args []ArgMeta) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, completedArgs []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		argIndex := len(completedArgs)
		if argIndex >= len(args) {
			last := args[len(args)-1]
			if !last.Variadic {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			argIndex = len(args) - 1
		}

		arg := args[argIndex]
		if len(arg.Completions) > 0 {
			var matches []string
			for _, c := range arg.Completions {
				if strings.HasPrefix(c, toComplete) {
					matches = append(matches, c)
				}
			}
			return matches, cobra.ShellCompDirectiveNoFileComp
		}

		switch arg.DynamicComp {
		case "dirs":
			return nil, cobra.ShellCompDirectiveFilterDirs
		case "skills":
			if complete, ok := SkillCompleter(); ok {
				return complete(toComplete), cobra.ShellCompDirectiveNoFileComp
			}
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

var skillCompleter func(prefix string) []string

// SetSkillCompleter installs the source for "skills" completions. The CLI
// provides one backed by the state file.
func SetSkillCompleter(fn func(prefix string) []string) {
	skillCompleter = fn
}

// SkillCompleter returns the installed completion source.
func SkillCompleter() (func(prefix string) []string, bool) {
	return skillCompleter, skillCompleter != nil
}

// GetCommandMeta returns the metadata for a command.
func GetCommandMeta(id string) (Meta, bool) {
	meta, ok := Registry[id]
	return meta, ok
}
