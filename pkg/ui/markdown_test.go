package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Findings\n\n- EU AI Act\n- US executive order", 80)
	require.NoError(t, err)
	assert.Contains(t, out, "Findings")
	assert.Contains(t, out, "EU AI Act")
	assert.NotContains(t, out, "# Findings")
}
