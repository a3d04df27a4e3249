package places

import (
	"context"
	"fmt"
	"math"
)

// Service composes the finder and the presenter.
type Service struct {
	finder    *Finder
	presenter *Presenter
}

func NewService(finder *Finder, presenter *Presenter) *Service {
	return &Service{finder: finder, presenter: presenter}
}

// Recommendation is a presented place plus where the search started from.
type Recommendation struct {
	Card
	Origin     Coordinate `json:"origin"`
	DistanceKm float64    `json:"distance_km"`
}

// RandomPlace finds a random place matching q and presents it.
func (s *Service) RandomPlace(ctx context.Context, q Query) (Recommendation, error) {
	candidate, err := s.finder.FindRandomPlaceID(ctx, q)
	if err != nil {
		return Recommendation{}, err
	}

	card, err := s.presenter.Present(ctx, candidate.PlaceID)
	if err != nil {
		return Recommendation{}, fmt.Errorf("present %s: %w", candidate.PlaceID, err)
	}

	return Recommendation{
		Card:       card,
		Origin:     candidate.Origin,
		DistanceKm: Distance(candidate.Origin, card.Location),
	}, nil
}

// Photo downloads a photo by reference.
func (s *Service) Photo(ctx context.Context, ref string) (Photo, error) {
	return s.presenter.Photo(ctx, ref)
}

// Distance calculates the distance in kilometres between two coordinates using the Haversine formula
func Distance(a, b Coordinate) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := a.Lat * math.Pi / 180.0
	lat2Rad := b.Lat * math.Pi / 180.0
	dLatRad := (b.Lat - a.Lat) * math.Pi / 180.0
	dLonRad := (b.Lng - a.Lng) * math.Pi / 180.0

	h := math.Sin(dLatRad/2)*math.Sin(dLatRad/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLonRad/2)*math.Sin(dLonRad/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// FormatDistance formats distance in meters or kilometers
func FormatDistance(distanceKm float64) string {
	if distanceKm < 1.0 {
		return fmt.Sprintf("%.0f m", distanceKm*1000)
	}
	return fmt.Sprintf("%.2f km", distanceKm)
}
