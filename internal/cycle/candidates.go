// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package cycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/keywordscout/internal/logging"
	"github.com/tomtom215/keywordscout/internal/metrics"
	"github.com/tomtom215/keywordscout/internal/models"
	"github.com/tomtom215/keywordscout/internal/selection"
)

// inputs is the read-only snapshot a cycle scores against.
type inputs struct {
	entities map[models.Category][]models.Entity
	metrics  map[string]models.DemandMetric
	degraded []string
}

// aggregate reads the catalog per category and refreshes demand metrics.
// Read failures degrade to empty input; only cancellation is returned.
func (o *Orchestrator) aggregate(ctx context.Context, coverageKey string) (*inputs, error) {
	logger := logging.Ctx(ctx)
	in := &inputs{entities: make(map[models.Category][]models.Entity, len(o.cfg.Categories))}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, category := range o.cfg.Categories {
		g.Go(func() error {
			entities, err := o.deps.Catalog.EntitiesByCategory(gctx, category, coverageKey)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				in.degraded = append(in.degraded, "catalog:"+string(category))
				metrics.RecordDegradedSignal("catalog")
				logger.Warn().Err(err).Str("category", string(category)).
					Msg("Catalog read failed, category contributes no candidates")
				return nil
			}
			in.entities[category] = entities
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ids []string
	for _, category := range o.cfg.Categories {
		for i := range in.entities[category] {
			ids = append(ids, in.entities[category][i].EntityID)
		}
	}

	res, err := o.deps.Signals.RefreshMetrics(ctx, ids, o.cfg.WindowDays)
	if err != nil {
		return nil, fmt.Errorf("refresh demand metrics: %w", err)
	}
	in.metrics = res.Metrics
	if n := res.DegradedEntities(); n > 0 {
		in.degraded = append(in.degraded, fmt.Sprintf("signals:%d_entities", n))
	}
	sort.Strings(in.degraded)
	return in, nil
}

// score runs every candidate producer concurrently and waits for all of
// them. A failed producer contributes an empty pool.
func (o *Orchestrator) score(ctx context.Context, coverageKey string, in *inputs, now time.Time) (selection.Pools, []string) {
	logger := logging.Ctx(ctx)

	perCategory := make([]selection.EntityPools, len(o.cfg.Categories))
	var (
		unmetPool []models.KeywordCandidate
		mu        sync.Mutex
		degraded  []string
	)
	fail := func(name string, err error) {
		mu.Lock()
		degraded = append(degraded, name)
		mu.Unlock()
		metrics.RecordDegradedSignal(name)
		logger.Warn().Err(err).Str("producer", name).Msg("Candidate producer failed, slice degraded")
	}

	var g errgroup.Group
	for i, category := range o.cfg.Categories {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					fail("scorer:"+string(category), fmt.Errorf("panic: %v", r))
				}
			}()
			perCategory[i] = o.scorer.ScoreEntities(in.entities[category], in.metrics, coverageKey, now)
			return nil
		})
	}
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				fail("unmet", fmt.Errorf("panic: %v", r))
			}
		}()
		ranked, err := o.deps.Unmet.RankCandidates(ctx, coverageKey, now)
		if err != nil {
			fail("unmet", err)
			return nil
		}
		unmetPool = ranked
		return nil
	})
	_ = g.Wait() // producers report failures through fail

	pools := selection.Pools{}
	for _, p := range perCategory {
		pools[models.SliceRefresh] = append(pools[models.SliceRefresh], p.Refresh...)
		pools[models.SliceDemand] = append(pools[models.SliceDemand], p.Demand...)
		pools[models.SliceExplore] = append(pools[models.SliceExplore], p.Explore...)
	}
	pools[models.SliceUnmet] = unmetPool

	sort.Strings(degraded)
	return pools, degraded
}
