package cmd

import (
	"bytes"
	"context"
	"io"

	"github.com/agentic-research/cinerank/internal/rank"
	"github.com/agentic-research/cinerank/internal/render"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

const mcpVersion = "0.1.0"

func newMCPCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve ranking queries as MCP tools over stdio",
		Long: `Loads the configured movie and rating sources, then serves the ranking
queries as MCP tools on stdin/stdout. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.settings(cmd)
			if err != nil {
				return err
			}
			// stdout carries the protocol.
			a, err := newApp(cfg, io.Discard, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := a.loadAll(); err != nil {
				return err
			}
			s := server.NewMCPServer("cinerank", mcpVersion, server.WithToolCapabilities(false))
			tools := mcpTools(a.engine)
			s.AddTools(tools...)
			a.log.Info().Int("tools", len(tools)).Msg("serving mcp on stdio")
			return server.ServeStdio(s)
		},
	}
}

// mcpTools binds each ranking query to a tool whose result is the JSON
// rendering of the query.
func mcpTools(e *rank.Engine) []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("top_movies",
				mcp.WithDescription("Top N movies by average rating"),
				mcp.WithNumber("n", mcp.Required(), mcp.Description("How many movies to return")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				n, err := req.RequireInt("n")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return jsonResult(func(r *render.Renderer) error { return r.TopMovies(n, e.TopMovies(n)) })
			},
		},
		{
			Tool: mcp.NewTool("top_movies_in_genre",
				mcp.WithDescription("Top N movies within a genre, matched case-insensitively"),
				mcp.WithString("genre", mcp.Required(), mcp.Description("Genre name")),
				mcp.WithNumber("n", mcp.Required(), mcp.Description("How many movies to return")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				genre, err := req.RequireString("genre")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				n, err := req.RequireInt("n")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return jsonResult(func(r *render.Renderer) error {
					return r.TopMoviesInGenre(genre, n, e.TopMoviesInGenre(genre, n))
				})
			},
		},
		{
			Tool: mcp.NewTool("top_genres",
				mcp.WithDescription("Top N genres by the mean of their movies' averages"),
				mcp.WithNumber("n", mcp.Required(), mcp.Description("How many genres to return")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				n, err := req.RequireInt("n")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return jsonResult(func(r *render.Renderer) error { return r.TopGenres(n, e.TopGenres(n)) })
			},
		},
		{
			Tool: mcp.NewTool("user_top_genre",
				mcp.WithDescription("The genre a user rates highest on average"),
				mcp.WithNumber("user", mcp.Required(), mcp.Description("User ID")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				user, err := req.RequireInt("user")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return jsonResult(func(r *render.Renderer) error { return r.Preference(user, e.UserTopGenre(user)) })
			},
		},
		{
			Tool: mcp.NewTool("recommend",
				mcp.WithDescription("Best-rated movies in the user's preferred genre that the user has not rated"),
				mcp.WithNumber("user", mcp.Required(), mcp.Description("User ID")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				user, err := req.RequireInt("user")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return jsonResult(func(r *render.Renderer) error { return r.Recommendations(user, e.Recommend(user)) })
			},
		},
		{
			Tool: mcp.NewTool("average",
				mcp.WithDescription("Average rating of one movie, 0 when unrated"),
				mcp.WithString("movie", mcp.Required(), mcp.Description("Movie name")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				name, err := req.RequireString("movie")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return jsonResult(func(r *render.Renderer) error { return r.Average(name, e.Average(name)) })
			},
		},
	}
}

func jsonResult(fn func(r *render.Renderer) error) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	r, err := render.New(&buf, render.FormatJSON, "")
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
