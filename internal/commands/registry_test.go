package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryHasRequiredCommands(t *testing.T) {
	required := []string{
		"sync", "list", "status", "show", "validate",
		"delete", "archive", "restore", "rename", "promote",
		"watch", "roots_list", "roots_add", "roots_remove",
		"automigrate", "history", "version",
	}
	for _, id := range required {
		_, ok := Registry[id]
		assert.True(t, ok, "registry missing %q", id)
	}
}

func TestRegistryMetadataComplete(t *testing.T) {
	for id, meta := range Registry {
		t.Run(id, func(t *testing.T) {
			assert.NotEmpty(t, meta.Name)
			assert.NotEmpty(t, meta.Description)

			for i, arg := range meta.Args {
				assert.NotEmpty(t, arg.Name, "arg %d", i)
				assert.NotEmpty(t, arg.Description, "arg %q", arg.Name)
				if arg.Variadic {
					assert.Equal(t, len(meta.Args)-1, i, "variadic arg %q must be last", arg.Name)
				}
			}
			for i, flag := range meta.Flags {
				assert.NotEmpty(t, flag.Name, "flag %d", i)
				assert.NotEmpty(t, flag.Description, "flag %q", flag.Name)
				assert.NotEmpty(t, flag.Type, "flag %q", flag.Name)
			}
		})
	}
}

func TestGenerateCobraCommandUse(t *testing.T) {
	tests := []struct {
		id  string
		use string
	}{
		{id: "sync", use: "sync"},
		{id: "show", use: "show <ref>"},
		{id: "validate", use: "validate [ref]"},
		{id: "delete", use: "delete [ref...]"},
		{id: "rename", use: "rename <ref> <title>"},
		{id: "roots_add", use: "add <dir>"},
		{id: "automigrate", use: "automigrate [mode]"},
	}
	for _, tt := range tests {
		cmd := GenerateCobraCommand(tt.id)
		require.NotNil(t, cmd, tt.id)
		assert.Equal(t, tt.use, cmd.Use, tt.id)
	}
	assert.Nil(t, GenerateCobraCommand("nope"))
}

func TestGenerateCobraCommandArgs(t *testing.T) {
	noop := &cobra.Command{}

	sync := GenerateCobraCommand("sync")
	assert.NoError(t, sync.Args(noop, nil))
	assert.Error(t, sync.Args(noop, []string{"x"}))

	rename := GenerateCobraCommand("rename")
	assert.Error(t, rename.Args(noop, []string{"a"}))
	assert.NoError(t, rename.Args(noop, []string{"a", "b"}))

	del := GenerateCobraCommand("delete")
	assert.NoError(t, del.Args(noop, nil))
	assert.NoError(t, del.Args(noop, []string{"a", "b", "c"}))

	validate := GenerateCobraCommand("validate")
	assert.NoError(t, validate.Args(noop, nil))
	assert.Error(t, validate.Args(noop, []string{"a", "b"}))
}

func TestGenerateCobraCommandFlags(t *testing.T) {
	history := GenerateCobraCommand("history")
	limit := history.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "n", limit.Shorthand)
	assert.Equal(t, "20", limit.DefValue)

	watch := GenerateCobraCommand("watch")
	debounce, err := watch.Flags().GetDuration("debounce")
	require.NoError(t, err)
	assert.Equal(t, "300ms", debounce.String())

	assert.Contains(t, GenerateCobraCommand("delete").Long, "Examples:")
}

func TestCompletion(t *testing.T) {
	t.Cleanup(func() { SetSkillCompleter(nil) })

	automigrate := GenerateCobraCommand("automigrate")
	got, _ := automigrate.ValidArgsFunction(automigrate, nil, "o")
	assert.Equal(t, []string{"on", "off"}, got)

	SetSkillCompleter(func(prefix string) []string { return []string{prefix + "-tools"} })
	del := GenerateCobraCommand("delete")
	got, _ = del.ValidArgsFunction(del, []string{"a", "b"}, "pdf")
	assert.Equal(t, []string{"pdf-tools"}, got)
}
