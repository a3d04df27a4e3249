package places

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"googlemaps.github.io/maps"
)

// fakeAPI stands in for *maps.Client. Unset funcs fail the call.
type fakeAPI struct {
	geocode func(r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	nearby  func(r *maps.NearbySearchRequest) (maps.PlacesSearchResponse, error)
	details func(r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error)
	photo   func(r *maps.PlacePhotoRequest) (maps.PlacePhotoResponse, error)

	mu          sync.Mutex
	geocodeReqs []maps.GeocodingRequest
	nearbyReqs  []maps.NearbySearchRequest
	detailsReqs []maps.PlaceDetailsRequest
}

func (f *fakeAPI) Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	f.mu.Lock()
	f.geocodeReqs = append(f.geocodeReqs, *r)
	f.mu.Unlock()
	if f.geocode == nil {
		return nil, errors.New("geocode not implemented")
	}
	return f.geocode(r)
}

func (f *fakeAPI) NearbySearch(ctx context.Context, r *maps.NearbySearchRequest) (maps.PlacesSearchResponse, error) {
	f.mu.Lock()
	f.nearbyReqs = append(f.nearbyReqs, *r)
	f.mu.Unlock()
	if f.nearby == nil {
		return maps.PlacesSearchResponse{}, errors.New("nearby search not implemented")
	}
	return f.nearby(r)
}

func (f *fakeAPI) PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error) {
	f.mu.Lock()
	f.detailsReqs = append(f.detailsReqs, *r)
	f.mu.Unlock()
	if f.details == nil {
		return maps.PlaceDetailsResult{}, errors.New("details not implemented")
	}
	return f.details(r)
}

func (f *fakeAPI) PlacePhoto(ctx context.Context, r *maps.PlacePhotoRequest) (maps.PlacePhotoResponse, error) {
	if f.photo == nil {
		return maps.PlacePhotoResponse{}, errors.New("photo not implemented")
	}
	return f.photo(r)
}

var _ API = (*fakeAPI)(nil)

func geocodeTo(lat, lng float64) func(*maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	return func(*maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
		return []maps.GeocodingResult{{Geometry: maps.AddressGeometry{Location: maps.LatLng{Lat: lat, Lng: lng}}}}, nil
	}
}

func resultsOf(ids ...string) []maps.PlacesSearchResult {
	out := make([]maps.PlacesSearchResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, maps.PlacesSearchResult{PlaceID: id, Name: "place " + id})
	}
	return out
}

func laCasa() maps.PlaceDetailsResult {
	return maps.PlaceDetailsResult{
		PlaceID:          "abc",
		Name:             "La Casa",
		URL:              "http://x",
		FormattedAddress: "Calle 1",
		Rating:           4.7,
		PriceLevel:       2,
		Geometry:         maps.AddressGeometry{Location: maps.LatLng{Lat: -34.58, Lng: -58.43}},
		Photos:           []maps.Photo{{PhotoReference: "ref-1"}},
	}
}

func photoBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}
