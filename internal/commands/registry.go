// Package commands provides a central registry of skillsync CLI commands.
// The registry is the single source of truth for command metadata: help
// text, arguments, flags and whether a command writes skill state.
package commands

// Meta defines metadata for a CLI command.
type Meta struct {
	Name        string     // Command name (e.g., "sync", "roots add")
	Description string     // Short description
	LongDesc    string     // Long description (for --help)
	Args        []ArgMeta  // Positional arguments
	Flags       []FlagMeta // Command flags
	Examples    []string   // Usage examples
	Mutates     bool       // Writes state, preferences or skill files
}

// ArgMeta defines a positional argument.
type ArgMeta struct {
	Name        string   // Argument name
	Description string   // Description
	Required    bool     // Is this argument required?
	Variadic    bool     // Accepts any number of values (must be last)
	Completions []string // Static completions (if any)
	DynamicComp string   // Dynamic completion type: "skills", "dirs"
}

// FlagMeta defines a command flag.
type FlagMeta struct {
	Name        string   // Flag name (e.g., "confirm")
	Short       string   // Short flag (e.g., "n" for -n)
	Description string   // Description
	Type        FlagType // Type of flag
	Default     string   // Default value
}

// FlagType represents the type of a flag.
type FlagType string

const (
	FlagTypeString   FlagType = "string"
	FlagTypeBool     FlagType = "bool"
	FlagTypeInt      FlagType = "int"
	FlagTypeDuration FlagType = "duration"
)

var (
	confirmFlag = FlagMeta{Name: "confirm", Description: "Apply the change (without this flag nothing is touched)", Type: FlagTypeBool}
	stdinFlag   = FlagMeta{Name: "stdin", Description: "Read skill ids or keys from stdin (one per line)", Type: FlagTypeBool}
	refsArg     = ArgMeta{Name: "ref", Description: "Skill id, key, canonical path or @N from the last list", Variadic: true, DynamicComp: "skills"}
)

// Registry holds all registered commands, keyed by command ID. Subcommand
// IDs join the path with underscores ("roots add" -> "roots_add").
var Registry = map[string]Meta{
	"sync": {
		Name:        "sync",
		Description: "Discover skills, resolve canonical sources and reconcile symlinks",
		LongDesc: `Runs one full sync pass.

Every global and project skills directory is scanned. For each skill key the
canonical source is chosen, symlinks are created in every other declared
ecosystem directory, and the result is written to the state file.

A key with two or more independent real copies is a conflict: the run fails,
the previous skill list is kept and nothing is reconciled for that run.`,
		Examples: []string{
			"skillsync sync",
			"skillsync sync --workspace ~/src/api --json",
		},
		Mutates: true,
	},
	"list": {
		Name:        "list",
		Description: "List skills from the last sync",
		Flags: []FlagMeta{
			{Name: "scope", Description: "Only show skills in this scope (global, project)", Type: FlagTypeString},
			{Name: "archived", Description: "Include archived skills", Type: FlagTypeBool},
		},
		Examples: []string{
			"skillsync list",
			"skillsync list --scope project --json",
			"skillsync list --archived",
		},
	},
	"status": {
		Name:        "status",
		Description: "Show the last sync result, counts and top skills",
		Examples:    []string{"skillsync status", "skillsync status --json"},
	},
	"show": {
		Name:        "show",
		Description: "Render a skill's manifest",
		Args: []ArgMeta{
			{Name: "ref", Description: "Skill id, key, canonical path or @N from the last list", Required: true, DynamicComp: "skills"},
		},
		Flags: []FlagMeta{
			{Name: "raw", Description: "Print the manifest without terminal rendering", Type: FlagTypeBool},
		},
		Examples: []string{"skillsync show pdf-tools", "skillsync show pdf-tools --raw"},
	},
	"validate": {
		Name:        "validate",
		Description: "Check skill packages for broken manifests, references and Codex visibility",
		LongDesc: `Validates one skill, or every active skill when no ref is given.

Checks run on the canonical source: the manifest must exist, be readable
UTF-8, be non-empty and carry a title; local references must resolve. The
Codex check verifies the skill is declared for and visible to Codex with
valid frontmatter whose name matches the skill key.

--fix applies the automatic frontmatter repairs and re-validates.
--repair-prompt prints instructions for an agent to fix what remains.`,
		Args: []ArgMeta{
			{Name: "ref", Description: "Skill id, key or canonical path (default: all active skills)", DynamicComp: "skills"},
		},
		Flags: []FlagMeta{
			{Name: "fix", Description: "Apply automatic frontmatter repairs", Type: FlagTypeBool},
			{Name: "repair-prompt", Description: "Print an agent prompt describing how to fix the issues", Type: FlagTypeBool},
		},
		Examples: []string{
			"skillsync validate",
			"skillsync validate pdf-tools --json",
			"skillsync validate pdf-tools --fix",
			"skillsync validate pdf-tools --repair-prompt",
		},
	},
	"delete": {
		Name:        "delete",
		Description: "Move skills to the trash",
		Args:        []ArgMeta{refsArg},
		Flags:       []FlagMeta{confirmFlag, stdinFlag},
		Examples: []string{
			"skillsync delete pdf-tools --confirm",
			"skillsync list --json | jq -r '.data.skills[].id' | skillsync delete --stdin --confirm",
		},
		Mutates: true,
	},
	"archive": {
		Name:        "archive",
		Description: "Move skills into archive storage",
		Args:        []ArgMeta{refsArg},
		Flags:       []FlagMeta{confirmFlag, stdinFlag},
		Examples:    []string{"skillsync archive pdf-tools --confirm"},
		Mutates:     true,
	},
	"restore": {
		Name:        "restore",
		Description: "Restore archived skills to the global agents directory",
		Args:        []ArgMeta{refsArg},
		Flags:       []FlagMeta{stdinFlag},
		Examples:    []string{"skillsync restore pdf-tools"},
		Mutates:     true,
	},
	"rename": {
		Name:        "rename",
		Description: "Retitle a skill and move it to the matching key",
		Args: []ArgMeta{
			{Name: "ref", Description: "Skill id, key, canonical path or @N from the last list", Required: true, DynamicComp: "skills"},
			{Name: "title", Description: "New display title", Required: true},
		},
		Examples: []string{`skillsync rename pdf-tools "PDF Toolkit"`},
		Mutates:  true,
	},
	"promote": {
		Name:        "promote",
		Description: "Move project skills into global scope",
		Args:        []ArgMeta{refsArg},
		Flags:       []FlagMeta{confirmFlag, stdinFlag},
		Examples:    []string{"skillsync promote release-notes --confirm"},
		Mutates:     true,
	},
	"pin": {
		Name:        "pin",
		Description: "Pin a skill to the top of the summary",
		Args: []ArgMeta{
			{Name: "ref", Description: "Skill id or key", Required: true, DynamicComp: "skills"},
		},
		Examples: []string{"skillsync pin pdf-tools"},
		Mutates:  true,
	},
	"unpin": {
		Name:        "unpin",
		Description: "Remove a pinned skill",
		Args: []ArgMeta{
			{Name: "ref", Description: "Skill id or key", Required: true, DynamicComp: "skills"},
		},
		Examples: []string{"skillsync unpin pdf-tools"},
		Mutates:  true,
	},
	"watch": {
		Name:        "watch",
		Description: "Re-sync whenever a skills directory changes",
		LongDesc: `Watches every discovered skills directory and runs sync once changes
settle. Runs never overlap; changes during a run schedule one follow-up run.`,
		Flags: []FlagMeta{
			{Name: "debounce", Description: "Quiet period before a sync runs", Type: FlagTypeDuration, Default: "300ms"},
			{Name: "no-initial", Description: "Skip the sync at startup", Type: FlagTypeBool},
		},
		Examples: []string{"skillsync watch", "skillsync watch --debounce 1s"},
		Mutates:  true,
	},
	"roots_list": {
		Name:        "roots list",
		Description: "List workspace discovery roots",
		Examples:    []string{"skillsync roots list --json"},
	},
	"roots_add": {
		Name:        "roots add",
		Description: "Add a workspace discovery root",
		Args: []ArgMeta{
			{Name: "dir", Description: "Absolute directory searched for workspaces", Required: true, DynamicComp: "dirs"},
		},
		Examples: []string{"skillsync roots add ~/src"},
		Mutates:  true,
	},
	"roots_remove": {
		Name:        "roots remove",
		Description: "Remove a workspace discovery root",
		Args: []ArgMeta{
			{Name: "dir", Description: "Directory to remove", Required: true, DynamicComp: "dirs"},
		},
		Examples: []string{"skillsync roots remove ~/src"},
		Mutates:  true,
	},
	"automigrate": {
		Name:        "automigrate",
		Description: "Show or set automatic migration into the agents directory",
		Args: []ArgMeta{
			{Name: "mode", Description: "on or off (omit to show the current setting)", Completions: []string{"on", "off"}},
		},
		Examples: []string{"skillsync automigrate", "skillsync automigrate on"},
		Mutates:  true,
	},
	"history": {
		Name:        "history",
		Description: "List recent sync runs",
		Flags: []FlagMeta{
			{Name: "limit", Short: "n", Description: "Number of runs to show", Type: FlagTypeInt, Default: "20"},
			{Name: "failed", Description: "Only show failed runs", Type: FlagTypeBool},
			{Name: "since", Description: "Only show runs finished since today, yesterday, a duration (2h) or a date", Type: FlagTypeString},
		},
		Examples: []string{"skillsync history", "skillsync history --failed --json", "skillsync history --since yesterday"},
	},
	"audit": {
		Name:        "audit",
		Description: "List recent skill changes made by skillsync",
		LongDesc: `Every delete, archive, restore, promote and rename is appended to the
audit journal, including failed attempts.`,
		Flags: []FlagMeta{
			{Name: "limit", Short: "n", Description: "Number of entries to show", Type: FlagTypeInt, Default: "20"},
			{Name: "since", Description: "Only show entries since today, yesterday, a duration (2h) or a date", Type: FlagTypeString},
		},
		Examples: []string{"skillsync audit", "skillsync audit --since 2h --json"},
	},
	"version": {
		Name:        "version",
		Description: "Show skillsync version and build information",
	},
}
