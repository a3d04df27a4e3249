package places

import (
	"context"
	"errors"
	"testing"

	"googlemaps.github.io/maps"
)

func TestResolverRandomStaysInsideBounds(t *testing.T) {
	r := NewResolver(&fakeAPI{}, ResolverOptions{})

	for i := 0; i < 1000; i++ {
		res, err := r.Resolve(context.Background(), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Kind != ResolvedRandom {
			t.Fatalf("kind = %v, want random", res.Kind)
		}
		if !BuenosAires.Contains(res.Coordinate) {
			t.Fatalf("coordinate %+v outside %+v", res.Coordinate, BuenosAires)
		}
	}
}

func TestResolverRandomEdges(t *testing.T) {
	bounds := Bounds{LatLow: -1, LatHigh: 1, LngLow: 10, LngHigh: 20}

	for _, f := range []float64{0, 0.5, 0.9999999999} {
		value := f
		r := NewResolver(&fakeAPI{}, ResolverOptions{Bounds: bounds, Float: func() float64 { return value }})
		c := r.Random()
		if !bounds.Contains(c) {
			t.Fatalf("f=%v: coordinate %+v outside %+v", value, c, bounds)
		}
	}

	low := NewResolver(&fakeAPI{}, ResolverOptions{Bounds: bounds, Float: func() float64 { return 0 }}).Random()
	if low.Lat != -1 || low.Lng != 10 {
		t.Fatalf("expected lower corner, got %+v", low)
	}
}

func TestResolverRandomDrawsAreIndependent(t *testing.T) {
	draws := []float64{0.25, 0.75}
	i := 0
	r := NewResolver(&fakeAPI{}, ResolverOptions{
		Bounds: Bounds{LatLow: 0, LatHigh: 4, LngLow: 0, LngHigh: 4},
		Float: func() float64 {
			v := draws[i%len(draws)]
			i++
			return v
		},
	})

	c := r.Random()
	if c.Lat != 1 || c.Lng != 3 {
		t.Fatalf("expected lat and lng from separate draws, got %+v", c)
	}
}

func TestResolverGeocodesZone(t *testing.T) {
	api := &fakeAPI{geocode: geocodeTo(-34.58, -58.43)}
	r := NewResolver(api, ResolverOptions{})

	res, err := r.Resolve(context.Background(), " palermo ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != ResolvedGeocoded {
		t.Fatalf("kind = %v, want geocoded", res.Kind)
	}
	if res.Coordinate != (Coordinate{Lat: -34.58, Lng: -58.43}) {
		t.Fatalf("unexpected coordinate: %+v", res.Coordinate)
	}

	if len(api.geocodeReqs) != 1 {
		t.Fatalf("expected 1 geocode call, got %d", len(api.geocodeReqs))
	}
	req := api.geocodeReqs[0]
	if req.Address != "palermo" || req.Region != "ar" || req.Language != "es" {
		t.Fatalf("unexpected geocode request: %+v", req)
	}
}

func TestResolverZoneNotFound(t *testing.T) {
	api := &fakeAPI{geocode: func(*maps.GeocodingRequest) ([]maps.GeocodingResult, error) { return nil, nil }}
	r := NewResolver(api, ResolverOptions{})

	res, err := r.Resolve(context.Background(), "atlantis")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != ZoneNotFound || res.Zone != "atlantis" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestResolverGeocodeError(t *testing.T) {
	boom := errors.New("network down")
	api := &fakeAPI{geocode: func(*maps.GeocodingRequest) ([]maps.GeocodingResult, error) { return nil, boom }}
	r := NewResolver(api, ResolverOptions{})

	if _, err := r.Resolve(context.Background(), "palermo"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped geocode error, got %v", err)
	}
}

func TestResolverBlankZoneSkipsGeocoding(t *testing.T) {
	api := &fakeAPI{}
	r := NewResolver(api, ResolverOptions{})

	res, err := r.Resolve(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != ResolvedRandom || len(api.geocodeReqs) != 0 {
		t.Fatalf("expected random resolution without geocoding, got %+v (%d calls)", res, len(api.geocodeReqs))
	}
}
