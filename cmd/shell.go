package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/agentic-research/cinerank/internal/ingest"
	"github.com/spf13/cobra"
)

var banner = strings.Repeat("=", 60)

const menu = `1. Load Movies File
2. Load Ratings File
3. Movie Popularity (Top N Movies)
4. Movie Popularity in Genre (Top N in Genre)
5. Genre Popularity (Top N Genres)
6. User Preference for Genre
7. Recommend Movies for User
8. Exit`

func newShellCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive menu",
		Long: `Interactive menu. Load the movie and rating files first, then run queries.
An empty filename at a load prompt uses the configured path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.settings(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return newShell(a, cmd.InOrStdin(), cmd.OutOrStdout()).run()
		},
	}
}

type shell struct {
	app *app
	in  *bufio.Scanner
	out io.Writer
}

func newShell(a *app, in io.Reader, out io.Writer) *shell {
	return &shell{app: a, in: bufio.NewScanner(in), out: out}
}

// errQuit ends the loop on exit or end of input.
var errQuit = errors.New("quit")

func (s *shell) run() error {
	for {
		fmt.Fprintf(s.out, "\n%s\nMOVIE RECOMMENDATION SYSTEM\n%s\n%s\n%s\n", banner, banner, menu, banner)
		choice, err := s.prompt("Enter your choice (1-8): ")
		if err != nil {
			return s.finish(err)
		}
		if err := s.dispatch(choice); err != nil {
			return s.finish(err)
		}
	}
}

func (s *shell) finish(err error) error {
	if errors.Is(err, errQuit) {
		fmt.Fprintln(s.out, "\nThank you for using the Movie Recommendation System!")
		return nil
	}
	return err
}

func (s *shell) dispatch(choice string) error {
	switch choice {
	case "1":
		return s.loadFile(ingest.Movies, "Enter movies filename: ", s.app.cfg.MoviesPath)
	case "2":
		return s.loadFile(ingest.Ratings, "Enter ratings filename: ", s.app.cfg.RatingsPath)
	case "3":
		return s.query(func() error {
			n, ok, err := s.promptInt("Enter number of top movies to display: ", "Invalid input. Please enter a number.")
			if err != nil || !ok {
				return err
			}
			return s.app.out.TopMovies(n, s.app.engine.TopMovies(n))
		})
	case "4":
		return s.query(func() error {
			genre, err := s.prompt("Enter genre: ")
			if err != nil {
				return err
			}
			n, ok, err := s.promptInt("Enter number of top movies to display: ", "Invalid input. Please enter a number.")
			if err != nil || !ok {
				return err
			}
			return s.app.out.TopMoviesInGenre(genre, n, s.app.engine.TopMoviesInGenre(genre, n))
		})
	case "5":
		return s.query(func() error {
			n, ok, err := s.promptInt("Enter number of top genres to display: ", "Invalid input. Please enter a number.")
			if err != nil || !ok {
				return err
			}
			return s.app.out.TopGenres(n, s.app.engine.TopGenres(n))
		})
	case "6":
		return s.query(func() error {
			user, ok, err := s.promptInt("Enter user ID: ", "Invalid input. Please enter a valid user ID.")
			if err != nil || !ok {
				return err
			}
			return s.app.out.Preference(user, s.app.engine.UserTopGenre(user))
		})
	case "7":
		return s.query(func() error {
			user, ok, err := s.promptInt("Enter user ID: ", "Invalid input. Please enter a valid user ID.")
			if err != nil || !ok {
				return err
			}
			return s.app.out.Recommendations(user, s.app.engine.Recommend(user))
		})
	case "8":
		return errQuit
	default:
		fmt.Fprintln(s.out, "Invalid choice. Please enter a number between 1 and 8.")
		return nil
	}
}

func (s *shell) loadFile(kind ingest.Kind, label, fallback string) error {
	name, err := s.prompt(label)
	if err != nil {
		return err
	}
	if name == "" {
		name = fallback
	}
	rep, err := s.app.load(kind, name)
	if err != nil {
		if errors.Is(err, ingest.ErrNotFound) {
			fmt.Fprintf(s.out, "Error: File '%s' not found.\n", name)
		} else {
			fmt.Fprintf(s.out, "Error loading %s file.\n", kind)
		}
		return nil
	}
	return s.app.out.Load(kind.String(), rep)
}

// query refuses to run fn until both files are loaded.
func (s *shell) query(fn func() error) error {
	if !s.app.store.Ready() {
		fmt.Fprintln(s.out, "Please load both movies and ratings files first.")
		return nil
	}
	return fn()
}

func (s *shell) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(s.in.Text()), nil
}

// promptInt reports ok=false after printing invalid when the input is not
// an integer.
func (s *shell) promptInt(label, invalid string) (int, bool, error) {
	raw, err := s.prompt(label)
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Fprintln(s.out, invalid)
		return 0, false, nil
	}
	return n, true, nil
}
