package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// withApp loads both sources and hands the ready app to fn.
func (g *globalFlags) withApp(cmd *cobra.Command, fn func(a *app) error) error {
	cfg, err := g.settings(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := a.loadAll(); err != nil {
		return err
	}
	return fn(a)
}

func parseInt(what, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: please enter a number", what, s)
	}
	return n, nil
}

func newTopMoviesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "top-movies N",
		Short: "Top N movies by average rating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInt("count", args[0])
			if err != nil {
				return err
			}
			return g.withApp(cmd, func(a *app) error {
				return a.out.TopMovies(n, a.engine.TopMovies(n))
			})
		},
	}
}

func newGenreMoviesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "genre-movies GENRE N",
		Short: "Top N movies within a genre",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			genre := strings.TrimSpace(args[0])
			n, err := parseInt("count", args[1])
			if err != nil {
				return err
			}
			return g.withApp(cmd, func(a *app) error {
				return a.out.TopMoviesInGenre(genre, n, a.engine.TopMoviesInGenre(genre, n))
			})
		},
	}
}

func newTopGenresCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "top-genres N",
		Short: "Top N genres by mean movie average",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInt("count", args[0])
			if err != nil {
				return err
			}
			return g.withApp(cmd, func(a *app) error {
				return a.out.TopGenres(n, a.engine.TopGenres(n))
			})
		},
	}
}

func newUserGenreCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "user-genre USER",
		Short: "A user's preferred genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := parseInt("user ID", args[0])
			if err != nil {
				return err
			}
			return g.withApp(cmd, func(a *app) error {
				return a.out.Preference(user, a.engine.UserTopGenre(user))
			})
		},
	}
}

func newRecommendCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend USER",
		Short: "Unrated movies from a user's preferred genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := parseInt("user ID", args[0])
			if err != nil {
				return err
			}
			return g.withApp(cmd, func(a *app) error {
				return a.out.Recommendations(user, a.engine.Recommend(user))
			})
		},
	}
}

func newAverageCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "average NAME...",
		Short: "Average rating of one movie",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			return g.withApp(cmd, func(a *app) error {
				return a.out.Average(name, a.engine.Average(name))
			})
		},
	}
}
