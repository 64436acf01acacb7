// Package scheduler runs the main polling loop: refresh the live point,
// fetch each enabled category, run every broadcast through lifecycle,
// geospatial matching, the covid filter, enrichment, and dispatch, then
// sleep for an interval that adapts to whether anything was delivered
// this cycle. Grounded on the teacher's errgroup.WithContext +
// signal-driven shutdown idiom in client/client.go's Run and
// cmd/seabird-nwwsio-plugin/main.go, generalized from a single XMPP
// connection to two independent supervised loops (polling + retention).
package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jschultzelutter/mowas-beacon/internal/cache"
	"github.com/jschultzelutter/mowas-beacon/internal/dispatch"
	"github.com/jschultzelutter/mowas-beacon/internal/enrich"
	"github.com/jschultzelutter/mowas-beacon/internal/feed"
	"github.com/jschultzelutter/mowas-beacon/internal/geomatch"
	"github.com/jschultzelutter/mowas-beacon/internal/lifecycle"
	"github.com/jschultzelutter/mowas-beacon/internal/model"
	"github.com/jschultzelutter/mowas-beacon/internal/position"
	"github.com/jschultzelutter/mowas-beacon/internal/retention"
	"github.com/jschultzelutter/mowas-beacon/internal/warncell"
)

// Scheduler owns the broadcast cache and drives the polling loop. The
// cache is touched exclusively from Run's goroutine, per spec.md §5's
// shared-resource policy.
type Scheduler struct {
	Feed       *feed.Client
	Warncell   *warncell.Table
	Cache      *cache.Cache
	Dispatcher *dispatch.Dispatcher
	Position   position.Provider
	Retention  *retention.Job
	Settings   model.Settings

	// EnrichConfig builds the per-cycle enrichment config; a function
	// rather than a static value because it captures the live point,
	// which changes every cycle.
	EnrichConfig func(live *model.WatchPoint) enrich.Config

	livePoint *model.WatchPoint
}

// Run starts the polling loop and the retention job, both supervised by
// an errgroup.Group, and blocks until ctx is cancelled or one of them
// returns a non-context error.
func (s *Scheduler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.pollLoop(gctx) })

	if s.Retention != nil {
		g.Go(func() error {
			// The sweep itself is bounded by MaxRetentionDays; how often
			// we check is a separate, fixed cadence.
			err := s.Retention.Run(gctx, retentionCheckInterval)
			if err == context.Canceled || err == context.DeadlineExceeded {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}

const retentionCheckInterval = 24 * time.Hour

func (s *Scheduler) pollLoop(ctx context.Context) error {
	for {
		emergency := s.runCycle(ctx)

		interval := time.Duration(s.Settings.StandardIntervalMinutes) * time.Minute
		if emergency {
			interval = time.Duration(s.Settings.EmergencyIntervalMinutes) * time.Minute
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// runCycle executes one poll cycle and reports whether the emergency
// interval should be used next.
func (s *Scheduler) runCycle(ctx context.Context) bool {
	cycleID := uuid.NewString()
	log.Debug().Str("cycle_id", cycleID).Msg("starting poll cycle")

	s.refreshLivePoint(ctx)

	gotAlertOrUpdate := false

	for _, category := range s.Settings.EnabledCategories {
		ok, broadcasts := s.Feed.Fetch(ctx, category)
		if !ok {
			continue
		}

		for _, b := range broadcasts {
			if s.processBroadcast(ctx, b) {
				if b.MsgType == model.MsgTypeAlert || b.MsgType == model.MsgTypeUpdate {
					gotAlertOrUpdate = true
				}
			}
		}
	}

	return gotAlertOrUpdate
}

func (s *Scheduler) refreshLivePoint(ctx context.Context) {
	if s.Settings.Follow == "" || s.Position == nil {
		return
	}
	wp, err := s.Position.Locate(ctx, s.Settings.Follow)
	if err != nil {
		log.Warn().Err(err).Str("follow", s.Settings.Follow).Msg("failed to refresh live point, keeping prior value")
		return
	}
	s.livePoint = &wp
}

// processBroadcast runs one broadcast through the full decision
// pipeline and reports whether it was delivered.
func (s *Scheduler) processBroadcast(ctx context.Context, b model.Broadcast) bool {
	decision := lifecycle.Decide(b, s.Cache)
	if decision == lifecycle.Ignore {
		return false
	}

	// A Cancel's cache eviction is a one-shot state transition,
	// independent of whether the message below turns out to be too low
	// severity or geographically irrelevant to deliver.
	if decision == lifecycle.DeliverAndEvict {
		s.Cache.Evict(b.Identifier)
	}

	info := b.PrimaryInfo()
	if info == nil {
		return false
	}

	if !info.Severity.AtLeast(s.Settings.MinSeverity) {
		return false
	}

	matches := s.matchAreas(info)
	if len(matches) == 0 {
		return false
	}

	if !s.Settings.IncludeCovidContent && enrich.ContainsCovidContent(info.Headline, info.Description, info.Instruction) {
		return false
	}

	cfg := s.EnrichConfig(s.livePoint)
	rec := enrich.Enrich(ctx, b, matches, cfg)

	if err := s.Dispatcher.Send(ctx, rec); err != nil {
		log.Warn().Err(err).Str("identifier", b.Identifier).Msg("dispatch returned an error")
	}

	if decision == lifecycle.DeliverAndRecord {
		s.Cache.Put(b.Identifier, lifecycle.Record(b))
	}

	return true
}

// matchAreas evaluates every area in info against the configured watch
// points (plus the live point, if any) and returns the areas that
// matched at least one.
func (s *Scheduler) matchAreas(info *model.Info) []enrich.AreaMatch {
	points := s.Settings.WatchPoints
	if s.livePoint != nil {
		points = append(append([]model.WatchPoint{}, points...), *s.livePoint)
	}

	var matches []enrich.AreaMatch
	for _, area := range info.Area {
		if len(area.Polygon) == 0 {
			continue
		}
		poly, err := geomatch.ParsePolygon(area.Polygon[0])
		if err != nil {
			log.Debug().Err(err).Str("area", area.AreaDesc).Msg("skipping area with unparseable polygon")
			continue
		}

		var matchedPoints []model.WatchPoint
		for _, wp := range points {
			if geomatch.Match(poly, model.LatLon{Lat: wp.Latitude, Lon: wp.Longitude}) {
				matchedPoints = append(matchedPoints, wp)
			}
		}
		if len(matchedPoints) == 0 {
			continue
		}

		matches = append(matches, enrich.AreaMatch{
			AreaDesc: area.AreaDesc,
			Geocodes: geocodeValues(area.Geocode, area.AreaDesc, s.Warncell),
			Polygon:  poly,
			Points:   matchedPoints,
		})
	}
	return matches
}

// geocodeValues resolves an area's geocode values to their Warncell
// short names, falling back to the area's own (verbose) description
// when a geocode is absent from the table (MOWAS occasionally ships
// geocodes the table doesn't carry, per spec.md §9's Open Question),
// mirroring outputgenerator.py's warncell_data[geocode]["short_name"]
// lookup with its areas[idx] fallback.
func geocodeValues(pairs []model.ValuePair, areaDesc string, table *warncell.Table) []string {
	var out []string
	for _, p := range pairs {
		value := strings.TrimSpace(p.Value)
		if value == "" {
			continue
		}
		if table != nil {
			if entry, ok := table.Lookup(value); ok {
				out = append(out, entry.ShortName)
				continue
			}
		}
		out = append(out, areaDesc)
	}
	return out
}
