package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/agentic-research/cinerank/api"
	"github.com/agentic-research/cinerank/internal/config"
	"github.com/agentic-research/cinerank/internal/ingest"
	"github.com/agentic-research/cinerank/internal/logging"
	"github.com/agentic-research/cinerank/internal/rank"
	"github.com/agentic-research/cinerank/internal/render"
	"github.com/agentic-research/cinerank/internal/store"
	"github.com/rs/zerolog"
)

// app wires one store to its loader, engine and renderer.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  *store.Store
	loader *ingest.Loader
	engine *rank.Engine
	out    *render.Renderer
}

func newApp(cfg *config.Config, stdout, stderr io.Writer) (*app, error) {
	out, err := render.New(stdout, cfg.Output, cfg.Select)
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: stderr,
	})

	s := store.New()
	return &app{
		cfg:    cfg,
		log:    log,
		store:  s,
		loader: ingest.NewLoader(s, log),
		engine: rank.NewEngine(s, rank.Options{RecommendLimit: cfg.Recommend.Limit}, log),
		out:    out,
	}, nil
}

// load reads path into the store as kind.
func (a *app) load(kind ingest.Kind, path string) (api.LoadReport, error) {
	rep, err := a.loader.Load(kind, ingest.OpenPath(path, kind))
	if err == nil {
		return rep, nil
	}
	if errors.Is(err, ingest.ErrNotFound) {
		return rep, fmt.Errorf("file '%s' not found: %w", path, err)
	}
	return rep, fmt.Errorf("error loading %s file: %w", kind, err)
}

// loadAll loads the configured movie and rating sources.
func (a *app) loadAll() error {
	if _, err := a.load(ingest.Movies, a.cfg.MoviesPath); err != nil {
		return err
	}
	_, err := a.load(ingest.Ratings, a.cfg.RatingsPath)
	return err
}
