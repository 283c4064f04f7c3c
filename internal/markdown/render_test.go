package markdown

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plain(s string) string { return ansi.Strip(s) }

func TestRenderFinalizedIsCached(t *testing.T) {
	r, err := NewRenderer(60)
	require.NoError(t, err)

	first := r.Render("a", "**bold** text", true)
	assert.Contains(t, plain(first), "bold text")
	assert.NotContains(t, plain(first), "**")

	// Cached by id: new content for the same id is ignored.
	assert.Equal(t, first, r.Render("a", "something else", true))

	r.Forget()
	assert.Contains(t, plain(r.Render("a", "something else", true)), "something else")
}

func TestRenderIncrementalKeepsPartialLinePlain(t *testing.T) {
	r, err := NewRenderer(60)
	require.NoError(t, err)

	assert.Equal(t, "", r.Render("s", "", false))
	assert.Equal(t, "**Hel", r.Render("s", "**Hel", false))

	out := r.Render("s", "**Hello**\n- it", false)
	assert.Contains(t, plain(out), "Hello")
	assert.NotContains(t, plain(out), "**Hello**")
	assert.Contains(t, out, "- it")
}

func TestSetWidth(t *testing.T) {
	r, err := NewRenderer(60)
	require.NoError(t, err)
	r.Render("a", "x", true)

	require.NoError(t, r.SetWidth(40))
	assert.Equal(t, 40, r.Width())
	require.NoError(t, r.SetWidth(0))
	assert.Equal(t, 1, r.Width())
}
