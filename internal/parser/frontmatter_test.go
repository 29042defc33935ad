package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	t.Run("closed frontmatter", func(t *testing.T) {
		doc := ParseDocument("---\nname: alpha\ntitle: \"Alpha: One\"\n---\n\n# Alpha\n")
		require.NotNil(t, doc.Frontmatter)
		assert.True(t, doc.Frontmatter.Closed)
		assert.Equal(t, 4, doc.Frontmatter.EndLine)
		assert.Equal(t, 5, doc.BodyStartLine)
		assert.Equal(t, "\n# Alpha\n", doc.Body)

		name, ok := doc.Frontmatter.Get("name")
		assert.True(t, ok)
		assert.Equal(t, "alpha", name)

		title, ok := doc.Frontmatter.Get("title")
		assert.True(t, ok)
		assert.Equal(t, "Alpha: One", title)
		assert.Equal(t, 3, doc.Frontmatter.Fields[1].Line)
	})

	t.Run("no frontmatter", func(t *testing.T) {
		doc := ParseDocument("# Just a heading\n")
		assert.Nil(t, doc.Frontmatter)
		assert.Equal(t, 1, doc.BodyStartLine)
		assert.Equal(t, "# Just a heading\n", doc.Body)
	})

	t.Run("unclosed frontmatter is body", func(t *testing.T) {
		doc := ParseDocument("---\nname: alpha\n# body")
		require.NotNil(t, doc.Frontmatter)
		assert.False(t, doc.Frontmatter.Closed)
		assert.Empty(t, doc.Frontmatter.Fields)
		assert.Equal(t, 1, doc.BodyStartLine)
	})

	t.Run("nested and comment lines are not fields", func(t *testing.T) {
		doc := ParseDocument("---\n# comment\nmeta:\n  owner: me\n- item\ndescription: text # trailing\n---\n")
		keys := make([]string, 0, len(doc.Frontmatter.Fields))
		for _, f := range doc.Frontmatter.Fields {
			keys = append(keys, f.Key)
		}
		assert.Equal(t, []string{"meta", "description"}, keys)
		desc, _ := doc.Frontmatter.Get("description")
		assert.Equal(t, "text", desc)
	})

	t.Run("crlf and bom", func(t *testing.T) {
		doc := ParseDocument("\ufeff---\r\nname: alpha\r\n---\r\nbody")
		require.NotNil(t, doc.Frontmatter)
		assert.True(t, doc.Frontmatter.Closed)
		assert.Equal(t, "body", doc.Body)
	})
}

func TestFrontmatterDecode(t *testing.T) {
	doc := ParseDocument("---\nname: alpha\ntags: [a, b]\n---\n")
	var out struct {
		Name string   `yaml:"name"`
		Tags []string `yaml:"tags"`
	}
	require.NoError(t, doc.Frontmatter.Decode(&out))
	assert.Equal(t, "alpha", out.Name)
	assert.Equal(t, []string{"a", "b"}, out.Tags)

	bad := ParseDocument("---\nname: [a] [b]\n---\n")
	assert.Error(t, bad.Frontmatter.Decode(&out))
}

func TestSetField(t *testing.T) {
	tests := []struct {
		name    string
		content string
		value   string
		want    string
	}{
		{
			name:    "replaces existing title",
			content: "---\nname: alpha\ntitle: Old\n---\n\nBody\n",
			value:   "New Title",
			want:    "---\nname: alpha\ntitle: New Title\n---\n\nBody\n",
		},
		{
			name:    "inserts title when missing",
			content: "---\nname: alpha\n---\nBody",
			value:   "Alpha",
			want:    "---\ntitle: Alpha\nname: alpha\n---\nBody",
		},
		{
			name:    "creates frontmatter block",
			content: "# Heading\n",
			value:   "Alpha",
			want:    "---\ntitle: Alpha\n---\n\n# Heading\n",
		},
		{
			name:    "quotes values that need it",
			content: "---\ntitle: x\n---\n",
			value:   "Deploy: prod",
			want:    "---\ntitle: 'Deploy: prod'\n---\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SetField(tt.content, "title", tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			title, ok := ParseDocument(got).Frontmatter.Get("title")
			assert.True(t, ok)
			assert.Equal(t, tt.value, title)
		})
	}
}
