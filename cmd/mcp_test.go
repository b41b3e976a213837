package cmd

import (
	"context"
	"io"
	"testing"

	"github.com/agentic-research/cinerank/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedTools(t *testing.T) map[string]server.ServerTool {
	t.Helper()
	movies, ratings := writeFixtures(t)
	a, err := newApp(&config.Config{
		MoviesPath:  movies,
		RatingsPath: ratings,
		Output:      "text",
		Recommend:   config.RecommendConfig{Limit: 3},
		Log:         config.LogConfig{Level: "disabled", Format: "json"},
	}, io.Discard, io.Discard)
	require.NoError(t, err)
	require.NoError(t, a.loadAll())

	tools := make(map[string]server.ServerTool)
	for _, st := range mcpTools(a.engine) {
		tools[st.Tool.Name] = st
	}
	return tools
}

func call(t *testing.T, st server.ServerTool, args map[string]any) (*mcp.CallToolResult, map[string]any) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = st.Tool.Name
	req.Params.Arguments = args
	res, err := st.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	if res.IsError {
		return res, nil
	}
	v, err := oj.ParseString(text.Text)
	require.NoError(t, err)
	return res, v.(map[string]any)
}

func names(doc map[string]any) []string {
	var out []string
	for _, r := range doc["results"].([]any) {
		out = append(out, r.(map[string]any)["name"].(string))
	}
	return out
}

func TestMCPTools_Registered(t *testing.T) {
	tools := loadedTools(t)
	for _, name := range []string{"top_movies", "top_movies_in_genre", "top_genres", "user_top_genre", "recommend", "average"} {
		assert.Contains(t, tools, name)
	}
	assert.Len(t, tools, 6)
}

func TestMCPTools_Queries(t *testing.T) {
	tools := loadedTools(t)

	_, doc := call(t, tools["top_movies"], map[string]any{"n": float64(2)})
	assert.Equal(t, []string{"Movie D", "Movie B"}, names(doc))

	_, doc = call(t, tools["top_movies_in_genre"], map[string]any{"genre": "COMEDY", "n": float64(1)})
	assert.Equal(t, []string{"Movie B"}, names(doc))

	_, doc = call(t, tools["top_genres"], map[string]any{"n": float64(1)})
	assert.Equal(t, []string{"Action"}, names(doc))

	_, doc = call(t, tools["user_top_genre"], map[string]any{"user": float64(2)})
	assert.Equal(t, "Comedy", doc["genre"])
	assert.Equal(t, true, doc["found"])

	_, doc = call(t, tools["recommend"], map[string]any{"user": float64(1)})
	assert.Equal(t, []string{"Movie B"}, names(doc))

	_, doc = call(t, tools["average"], map[string]any{"movie": "movie a"})
	assert.InDelta(t, 4.0, doc["score"], 1e-9)
}

func TestMCPTools_MissingArgument(t *testing.T) {
	tools := loadedTools(t)
	res, _ := call(t, tools["top_movies"], map[string]any{})
	assert.True(t, res.IsError)

	res, _ = call(t, tools["top_movies_in_genre"], map[string]any{"n": float64(1)})
	assert.True(t, res.IsError)
}
