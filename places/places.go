// Package places picks a random restaurant or bar through the Google Maps
// Platform and renders it as a Telegram card.
package places

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

var (
	// ErrZoneNotFound is returned when a zone name cannot be geocoded.
	ErrZoneNotFound = errors.New("zone not found")
	// ErrNoPlaceFound is returned once every search attempt came back empty or failed.
	ErrNoPlaceFound = errors.New("no place found")
	// ErrIncompleteDetails is returned when place details lack a name or a location.
	ErrIncompleteDetails = errors.New("incomplete place details")
)

// Geocoder resolves free-text addresses.
type Geocoder interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// Searcher runs nearby searches.
type Searcher interface {
	NearbySearch(ctx context.Context, r *maps.NearbySearchRequest) (maps.PlacesSearchResponse, error)
}

// DetailsFetcher fetches full place details by id.
type DetailsFetcher interface {
	PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error)
}

// PhotoFetcher downloads place photos by reference.
type PhotoFetcher interface {
	PlacePhoto(ctx context.Context, r *maps.PlacePhotoRequest) (maps.PlacePhotoResponse, error)
}

// API is the subset of the Google Maps client the bot depends on.
type API interface {
	Geocoder
	Searcher
	DetailsFetcher
	PhotoFetcher
}

var _ API = (*maps.Client)(nil)

// Category is the kind of place a user asks for.
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryBar        Category = "bar"
)

// categoryToGoogleType maps categories to Google Places types
var categoryToGoogleType = map[Category]maps.PlaceType{
	CategoryRestaurant: maps.PlaceTypeRestaurant,
	CategoryBar:        maps.PlaceTypeBar,
}

// ParseCategory accepts "restaurant" or "bar" (case-insensitive). Empty means restaurant.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return CategoryRestaurant, nil
	}
	if _, ok := categoryToGoogleType[c]; !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// PlaceType returns the Google Places type for c, defaulting to restaurant.
func (c Category) PlaceType() maps.PlaceType {
	if t, ok := categoryToGoogleType[c]; ok {
		return t
	}
	return maps.PlaceTypeRestaurant
}

// Coordinate is a point in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) latLng() *maps.LatLng {
	return &maps.LatLng{Lat: c.Lat, Lng: c.Lng}
}

// Query describes what the user asked for. Zone and Keyword are optional.
type Query struct {
	Category Category
	Zone     string
	Keyword  string
}
