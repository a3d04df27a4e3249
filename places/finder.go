package places

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"donde-comemos-bot/obs"
)

// PickPolicy selects one element from a non-empty result list.
type PickPolicy func(results []maps.PlacesSearchResult) maps.PlacesSearchResult

// PickFirst takes the provider's most relevant result.
func PickFirst(results []maps.PlacesSearchResult) maps.PlacesSearchResult {
	return results[0]
}

// PickLast takes the final result of the list.
func PickLast(results []maps.PlacesSearchResult) maps.PlacesSearchResult {
	return results[len(results)-1]
}

// PickRandom samples an index uniformly. intn defaults to math/rand/v2.IntN.
func PickRandom(intn func(n int) int) PickPolicy {
	if intn == nil {
		intn = rand.Intn
	}
	return func(results []maps.PlacesSearchResult) maps.PlacesSearchResult {
		return results[intn(len(results))]
	}
}

// ParsePickPolicy maps "random", "first" or "last" to a policy.
func ParsePickPolicy(name string) (PickPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "random":
		return PickRandom(nil), nil
	case "first":
		return PickFirst, nil
	case "last":
		return PickLast, nil
	}
	return nil, fmt.Errorf("unknown pick policy %q", name)
}

// FinderOptions configures a Finder.
type FinderOptions struct {
	Radius      uint
	Language    string
	MaxAttempts int
	Backoff     time.Duration
	Pick        PickPolicy
}

// Finder runs nearby searches and picks a single candidate.
type Finder struct {
	resolver    *Resolver
	searcher    Searcher
	radius      uint
	language    string
	maxAttempts int
	backoff     time.Duration
	pick        PickPolicy
}

func NewFinder(resolver *Resolver, searcher Searcher, opts FinderOptions) *Finder {
	f := &Finder{
		resolver:    resolver,
		searcher:    searcher,
		radius:      opts.Radius,
		language:    opts.Language,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		pick:        opts.Pick,
	}
	if f.radius == 0 {
		f.radius = 1000
	}
	if f.language == "" {
		f.language = "es"
	}
	if f.maxAttempts <= 0 {
		f.maxAttempts = 3
	}
	if f.pick == nil {
		f.pick = PickRandom(nil)
	}
	return f
}

// Candidate is the place chosen by a search, together with the origin it was searched from.
type Candidate struct {
	PlaceID    string
	Name       string
	Origin     Coordinate
	Resolution ResolutionKind
}

// FindRandomPlaceID resolves an origin for q and returns one place open nearby.
//
// Failed or empty searches are retried up to the configured number of attempts
// with the same category, zone and keyword. Zone-less queries draw a new random
// origin on every attempt.
func (f *Finder) FindRandomPlaceID(ctx context.Context, q Query) (Candidate, error) {
	res, err := f.resolver.Resolve(ctx, q.Zone)
	if err != nil {
		return Candidate{}, err
	}
	if res.Kind == ZoneNotFound {
		return Candidate{}, fmt.Errorf("%w: %q", ErrZoneNotFound, res.Zone)
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			if res.Kind == ResolvedRandom {
				res.Coordinate = f.resolver.Random()
			}
			if err := f.wait(ctx); err != nil {
				return Candidate{}, err
			}
		}

		results, err := f.search(ctx, q, res.Coordinate)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Candidate{}, ctxErr
			}
			lastErr = err
			log.Printf("req_id=%s nearby search attempt %d/%d failed: %v", obs.RequestID(ctx), attempt, f.maxAttempts, err)
			continue
		}
		if len(results) == 0 {
			log.Printf("req_id=%s nearby search attempt %d/%d returned no results near %.6f,%.6f",
				obs.RequestID(ctx), attempt, f.maxAttempts, res.Coordinate.Lat, res.Coordinate.Lng)
			continue
		}

		picked := f.pick(results)
		return Candidate{
			PlaceID:    picked.PlaceID,
			Name:       picked.Name,
			Origin:     res.Coordinate,
			Resolution: res.Kind,
		}, nil
	}

	if lastErr != nil {
		return Candidate{}, fmt.Errorf("%w after %d attempts: %w", ErrNoPlaceFound, f.maxAttempts, lastErr)
	}
	return Candidate{}, fmt.Errorf("%w after %d attempts", ErrNoPlaceFound, f.maxAttempts)
}

func (f *Finder) search(ctx context.Context, q Query, origin Coordinate) (_ []maps.PlacesSearchResult, err error) {
	defer obs.Time(ctx, "places.nearbySearch")(&err)

	resp, err := f.searcher.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: origin.latLng(),
		Radius:   f.radius,
		Type:     q.Category.PlaceType(),
		Language: f.language,
		OpenNow:  true,
		MinPrice: maps.PriceLevelInexpensive,
		MaxPrice: maps.PriceLevelVeryExpensive,
		Keyword:  strings.TrimSpace(q.Keyword),
	})
	if err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}
	return resp.Results, nil
}

func (f *Finder) wait(ctx context.Context) error {
	if f.backoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(f.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

