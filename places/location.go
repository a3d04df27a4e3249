package places

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"googlemaps.github.io/maps"

	"donde-comemos-bot/obs"
)

// Bounds is the box random search origins are drawn from.
type Bounds struct {
	LatLow, LatHigh float64
	LngLow, LngHigh float64
}

// BuenosAires approximates the city limits.
var BuenosAires = Bounds{LatLow: -34.65, LatHigh: -34.55, LngLow: -58.5, LngHigh: -58.364}

// Contains reports whether c lies inside b, edges included.
func (b Bounds) Contains(c Coordinate) bool {
	return c.Lat >= b.LatLow && c.Lat <= b.LatHigh && c.Lng >= b.LngLow && c.Lng <= b.LngHigh
}

// ResolutionKind tells how a Resolution was obtained.
type ResolutionKind int

const (
	// ResolvedRandom is a uniformly random point inside the bounds.
	ResolvedRandom ResolutionKind = iota
	// ResolvedGeocoded is the geocoded position of the requested zone.
	ResolvedGeocoded
	// ZoneNotFound means geocoding returned nothing; Coordinate is unset.
	ZoneNotFound
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolvedRandom:
		return "random"
	case ResolvedGeocoded:
		return "geocoded"
	case ZoneNotFound:
		return "zone_not_found"
	}
	return fmt.Sprintf("ResolutionKind(%d)", int(k))
}

// Resolution is the outcome of Resolver.Resolve.
type Resolution struct {
	Kind       ResolutionKind
	Coordinate Coordinate
	Zone       string
}

// ResolverOptions configures a Resolver. Zero values fall back to Buenos Aires / "ar" / "es".
type ResolverOptions struct {
	Bounds   Bounds
	Region   string
	Language string
	// Float returns a number in [0, 1). Defaults to math/rand/v2.
	Float func() float64
}

// Resolver turns an optional zone name into a search origin.
type Resolver struct {
	geocoder Geocoder
	bounds   Bounds
	region   string
	language string
	float    func() float64
}

func NewResolver(geocoder Geocoder, opts ResolverOptions) *Resolver {
	r := &Resolver{
		geocoder: geocoder,
		bounds:   opts.Bounds,
		region:   opts.Region,
		language: opts.Language,
		float:    opts.Float,
	}
	if r.bounds == (Bounds{}) {
		r.bounds = BuenosAires
	}
	if r.region == "" {
		r.region = "ar"
	}
	if r.language == "" {
		r.language = "es"
	}
	if r.float == nil {
		r.float = rand.Float64
	}
	return r
}

// Resolve returns a random point when zone is empty and the geocoded zone otherwise.
func (r *Resolver) Resolve(ctx context.Context, zone string) (_ Resolution, err error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return Resolution{Kind: ResolvedRandom, Coordinate: r.Random()}, nil
	}

	defer obs.Time(ctx, "places.geocode")(&err)

	results, err := r.geocoder.Geocode(ctx, &maps.GeocodingRequest{
		Address:  zone,
		Region:   r.region,
		Language: r.language,
	})
	if err != nil {
		return Resolution{}, fmt.Errorf("geocode zone %q: %w", zone, err)
	}
	if len(results) == 0 {
		return Resolution{Kind: ZoneNotFound, Zone: zone}, nil
	}

	loc := results[0].Geometry.Location
	return Resolution{
		Kind:       ResolvedGeocoded,
		Coordinate: Coordinate{Lat: loc.Lat, Lng: loc.Lng},
		Zone:       zone,
	}, nil
}

// Random draws latitude and longitude independently and uniformly inside the bounds.
func (r *Resolver) Random() Coordinate {
	return Coordinate{
		Lat: uniform(r.float(), r.bounds.LatLow, r.bounds.LatHigh),
		Lng: uniform(r.float(), r.bounds.LngLow, r.bounds.LngHigh),
	}
}

// uniform maps f in [0,1) onto [low, high], rounded to 6 decimals and clamped
// so rounding never escapes the box.
func uniform(f, low, high float64) float64 {
	v := math.Round((low+f*(high-low))*1e6) / 1e6
	return math.Min(math.Max(v, low), high)
}
