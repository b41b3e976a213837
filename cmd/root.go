package cmd

import (
	"fmt"
	"os"

	"github.com/agentic-research/cinerank/internal/config"
	"github.com/spf13/cobra"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath     string
	moviesPath     string
	ratingsPath    string
	output         string
	selectExpr     string
	logLevel       string
	logFormat      string
	recommendLimit int
}

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "cinerank",
		Short:         "Rank movies and genres from a catalog and user ratings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := rootCmd.PersistentFlags()
	f.StringVarP(&g.configPath, "config", "c", "", "Path to config file (default ./cinerank.yaml)")
	f.StringVarP(&g.moviesPath, "movies", "m", "", "Path to movie catalog (genre|id|name lines or .db)")
	f.StringVarP(&g.ratingsPath, "ratings", "r", "", "Path to ratings (name|rating|user_id lines or .db)")
	f.StringVarP(&g.output, "output", "o", "", "Output format: text or json")
	f.StringVar(&g.selectExpr, "select", "", "JSONPath applied to json output")
	f.StringVar(&g.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	f.StringVar(&g.logFormat, "log-format", "", "Log format: console or json")
	f.IntVar(&g.recommendLimit, "recommend-limit", 0, "Maximum number of recommendations")

	rootCmd.AddCommand(
		newTopMoviesCmd(g),
		newGenreMoviesCmd(g),
		newTopGenresCmd(g),
		newUserGenreCmd(g),
		newRecommendCmd(g),
		newAverageCmd(g),
		newShellCmd(g),
		newMCPCmd(g),
	)
	return rootCmd
}

// settings loads the layered config and applies any flags set on cmd.
func (g *globalFlags) settings(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("movies") {
		cfg.MoviesPath = g.moviesPath
	}
	if flags.Changed("ratings") {
		cfg.RatingsPath = g.ratingsPath
	}
	if flags.Changed("output") {
		cfg.Output = g.output
	}
	if flags.Changed("select") {
		cfg.Select = g.selectExpr
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = g.logFormat
	}
	if flags.Changed("recommend-limit") {
		cfg.Recommend.Limit = g.recommendLimit
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
