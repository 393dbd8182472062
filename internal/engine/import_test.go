package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpm-dev/mcpm/internal/registry"
	"github.com/mcpm-dev/mcpm/internal/server"
)

func TestDiscoverImports_SkipsManagedEntries(t *testing.T) {
	h := newHarness(t)
	h.seed("cursor", `{"mcpServers":{"mcpm_github":{"command":"npx"},"figma":{"command":"figma-mcp"}}}`)

	candidates := h.engine.DiscoverImports([]string{"cursor"})

	require.Len(t, candidates, 1)
	assert.Equal(t, "figma", candidates[0].Name)
	assert.Equal(t, []string{"cursor"}, candidates[0].Agents)
	assert.Equal(t, "figma-mcp", candidates[0].Server.Command)
}

func TestDiscoverImports_MergesAcrossAgents(t *testing.T) {
	h := newHarness(t)
	h.seed("cursor", `{"mcpServers":{"figma":{"command":"first-shape"}}}`)
	h.seed("claude-desktop", `{"mcpServers":{"figma":{"command":"second-shape"},"linear":{"command":"linear-mcp"}}}`)

	candidates := h.engine.DiscoverImports([]string{"cursor", "claude-desktop"})

	require.Len(t, candidates, 2)
	byName := map[string]Candidate{}
	for _, c := range candidates {
		byName[c.Name] = c
	}

	figma := byName["figma"]
	assert.Equal(t, []string{"cursor", "claude-desktop"}, figma.Agents)
	// The first agent's record shape wins.
	assert.Equal(t, "first-shape", figma.Server.Command)

	assert.Equal(t, []string{"claude-desktop"}, byName["linear"].Agents)
}

func TestDiscoverImports_UnreadableAgentIsEmpty(t *testing.T) {
	h := newHarness(t)
	h.seed("cursor", `{broken`)

	assert.Empty(t, h.engine.DiscoverImports([]string{"cursor", "no-such-agent"}))
}

func TestImport_NewServers(t *testing.T) {
	h := newHarness(t)
	doc := registry.NewDocument()

	results, err := h.engine.Import(doc, []Candidate{
		{Name: "figma", Agents: []string{"cursor"}, Server: &server.Server{Name: "figma", Command: "figma-mcp"}},
	}, ImportSkip)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "figma", results[0].Name)
	assert.False(t, results[0].Skipped)

	entry := doc.Get("figma")
	require.NotNil(t, entry)
	assert.Equal(t, "cursor", entry.ImportedFrom)
}

func TestImport_SkipOnCollision(t *testing.T) {
	h := newHarness(t)
	doc := docWith(&server.Server{Name: "figma", Command: "existing"})

	results, err := h.engine.Import(doc, []Candidate{
		{Name: "figma", Agents: []string{"cursor"}, Server: &server.Server{Name: "figma", Command: "incoming"}},
	}, ImportSkip)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.Equal(t, "existing", doc.Get("figma").Command)
}

func TestImport_ReplaceOnCollision(t *testing.T) {
	h := newHarness(t)
	doc := docWith(&server.Server{Name: "figma", Command: "existing"})

	_, err := h.engine.Import(doc, []Candidate{
		{Name: "figma", Agents: []string{"cursor"}, Server: &server.Server{Name: "figma", Command: "incoming"}},
	}, ImportReplace)
	require.NoError(t, err)
	assert.Equal(t, "incoming", doc.Get("figma").Command)
}

func TestImport_RenameOnCollision(t *testing.T) {
	h := newHarness(t)
	doc := docWith(&server.Server{Name: "figma", Command: "existing"})

	results, err := h.engine.Import(doc, []Candidate{
		{Name: "figma", RenameTo: "figma-work", Agents: []string{"cursor"}, Server: &server.Server{Name: "figma", Command: "incoming"}},
	}, ImportRename)
	require.NoError(t, err)

	assert.Equal(t, "figma-work", results[0].Name)
	assert.Equal(t, "figma", results[0].Candidate)
	assert.Equal(t, "existing", doc.Get("figma").Command)
	assert.Equal(t, "incoming", doc.Get("figma-work").Command)
}

func TestImport_RenameValidation(t *testing.T) {
	h := newHarness(t)

	// Missing rename target.
	doc := docWith(&server.Server{Name: "figma", Command: "x"})
	_, err := h.engine.Import(doc, []Candidate{
		{Name: "figma", Agents: []string{"cursor"}, Server: &server.Server{Name: "figma", Command: "y"}},
	}, ImportRename)
	assert.Error(t, err)

	// Rename target collides with another registry entry.
	doc = docWith(
		&server.Server{Name: "figma", Command: "x"},
		&server.Server{Name: "figma-work", Command: "x"},
	)
	_, err = h.engine.Import(doc, []Candidate{
		{Name: "figma", RenameTo: "figma-work", Agents: []string{"cursor"}, Server: &server.Server{Name: "figma", Command: "y"}},
	}, ImportRename)
	assert.Error(t, err)

	// Rename target collides with another candidate in the same batch.
	doc = docWith(&server.Server{Name: "figma", Command: "x"})
	_, err = h.engine.Import(doc, []Candidate{
		{Name: "figma", RenameTo: "linear", Agents: []string{"cursor"}, Server: &server.Server{Name: "figma", Command: "y"}},
		{Name: "linear", Agents: []string{"cursor"}, Server: &server.Server{Name: "linear", Command: "z"}},
	}, ImportRename)
	assert.Error(t, err)

	// Nothing was committed by the failed batch.
	assert.Nil(t, doc.Get("linear"))
}
