package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("no markers", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers", out)

	out, err = RenderTemplate(`{{ .Topic | upper }} for {{ default "everyone" .Audience }}: it's {{ bullets .Facts }}`, map[string]any{
		"Topic": "go",
		"Facts": []string{"fast", "simple"},
	})
	require.NoError(t, err)
	assert.Equal(t, "GO for everyone: it's - fast\n- simple", out)

	_, err = RenderTemplate("{{ .Broken", nil)
	assert.Error(t, err)
}
