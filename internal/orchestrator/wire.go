package orchestrator

import (
	"context"
	"errors"

	"skyscope/internal/config"
	"skyscope/internal/extract"
	"skyscope/internal/fallback"
	"skyscope/internal/llm"
	"skyscope/internal/logging"
	"skyscope/internal/mission"
	"skyscope/internal/publish"
	"skyscope/internal/research"
	"skyscope/internal/retrieval"
	"skyscope/internal/speech"
	"skyscope/internal/synthesis"
)

// NewFromConfig builds the production pipeline. The returned closer
// releases the browser and the retrieval store.
func NewFromConfig(ctx context.Context, cfg *config.Config, avail config.Availability) (*Orchestrator, func() error, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "NewFromConfig")
	defer timer.Stop()

	rec := fallback.NewRecorder()

	router := llm.NewRouterFromConfig(ctx, cfg, avail).WithRecorder(rec)
	logging.Boot("completion providers: %v", router.Providers())

	web, closeBrowser := extract.NewWebChainFromConfig(cfg, avail)
	web.WithRecorder(rec)
	transcripts := extract.NewCaptionFetcher("", "en", cfg.GetFetchTimeout())

	store, closeStore, err := retrieval.NewStoreFromConfig(ctx, cfg, avail)
	if err != nil {
		// retrieval is optional; research degrades without it
		logging.RetrievalWarn("retrieval disabled: %v", err)
		store = nil
	}

	narrator := speech.NewChainFromConfig(cfg, avail).WithRecorder(rec)
	pub, err := publish.NewFromConfig(cfg, avail, narrator)
	if err != nil {
		closeBrowser()
		closeStore()
		return nil, nil, err
	}

	o := New(Config{
		Planner:   mission.NewPlanner(router),
		Gatherer:  research.NewAggregator(research.OptionsFromConfig(cfg.Research), web, transcripts, store),
		Analyst:   synthesis.NewAnalyst(router),
		Simulator: synthesis.NewSimulator(router),
		Publisher: pub,
		Recorder:  rec,
	})

	closer := func() error {
		return errors.Join(closeBrowser(), closeStore())
	}
	return o, closer, nil
}
