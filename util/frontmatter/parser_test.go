package frontmatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name    string
		content string
		fields  map[string]interface{}
		body    string
		has     bool
	}{
		{
			name:    "yaml front matter",
			content: "---\ntitle: Login flow\nstatus: approved\npriority: 2\ntags: [auth, web]\n---\n\n# Body\ntext",
			fields: map[string]interface{}{
				"title":    "Login flow",
				"status":   "approved",
				"priority": "2",
				"tags":     []string{"auth", "web"},
			},
			body: "# Body\ntext",
			has:  true,
		},
		{
			name:    "invalid yaml falls back to lines",
			content: "---\ntitle: Fix: the parser\nowner: @coder\n---\nbody",
			fields: map[string]interface{}{
				"title": "Fix: the parser",
				"owner": "@coder",
			},
			body: "body",
			has:  true,
		},
		{
			name:    "no front matter",
			content: "# Just markdown\n",
			fields:  map[string]interface{}{},
			body:    "# Just markdown",
		},
		{
			name:    "unterminated front matter",
			content: "---\ntitle: x\n",
			fields:  map[string]interface{}{},
			body:    "---\ntitle: x",
		},
		{
			name:    "empty front matter",
			content: "---\n---\nbody",
			fields:  map[string]interface{}{},
			body:    "body",
			has:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := ParseString(tt.content)
			assert.Equal(t, tt.fields, doc.Fields)
			assert.Equal(t, tt.body, doc.Body)
			assert.Equal(t, tt.has, doc.HasFrontmatter)
		})
	}
}

func TestParseReader(t *testing.T) {
	doc, err := Parse(strings.NewReader("---\nmodel: anthropic/claude\n---\nPrompt"))
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude", doc.Get("model"))
	assert.Equal(t, "", doc.Get("missing"))
}

func TestSetField(t *testing.T) {
	content := "---\ndescription: Writes code\nmodel: openai/gpt-4o\n---\nYou are a coder.\nmodel: not front matter\n"

	out, err := SetField(content, "model", "anthropic/claude-sonnet-4")
	require.NoError(t, err)
	assert.Equal(t, "---\ndescription: Writes code\nmodel: anthropic/claude-sonnet-4\n---\nYou are a coder.\nmodel: not front matter\n", out)

	out, err = SetField("---\ndescription: x\n---\nbody", "model", "a/b")
	require.NoError(t, err)
	assert.Equal(t, "---\ndescription: x\nmodel: a/b\n---\nbody", out)

	_, err = SetField("no front matter", "model", "a/b")
	assert.ErrorIs(t, err, ErrNoFrontmatter)
}
