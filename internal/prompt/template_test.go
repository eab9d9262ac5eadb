package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	out, err := Render("Hello {{name}}, about {{topic}}.", map[string]string{"name": "Ana", "topic": "leases", "extra": "x"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ana, about leases.", out)
}

func TestRenderMissingVariables(t *testing.T) {
	_, err := Render("{{a}} {{b}} {{a}}", map[string]string{"a": "1"})
	assert.EqualError(t, err, "missing template variables: b")
}

func TestRenderDoesNotExpandValues(t *testing.T) {
	out, err := Render("text: {{text}}", map[string]string{"text": "literal {{title}}"})
	require.NoError(t, err)
	assert.Equal(t, "text: literal {{title}}", out)
}

func TestTemplateVariables(t *testing.T) {
	assert.Equal(t, []string{"title", "filename", "file_type", "text"}, ExtractVariables(DocumentAnalysis.Text))
	assert.Equal(t, []string{"title", "summary", "key_points", "legal_terms", "warnings", "text"}, ExtractVariables(DocumentChat.Text))
}

func TestTemplateRenderNamesTemplateOnError(t *testing.T) {
	_, err := DocumentChat.Render(map[string]string{"title": "x"})
	assert.ErrorContains(t, err, "render document_chat prompt")
}
