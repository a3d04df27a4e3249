package places

import (
	"context"
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"googlemaps.github.io/maps"

	"donde-comemos-bot/obs"
)

const (
	StarGlyph  = "⭐️"
	MoneyGlyph = "💰"

	photoMaxSize = 400
	// Telegram rejects photos above 10MB; Places photos at 400px are far smaller.
	photoMaxBytes = 10 << 20
)

// Card is everything needed to reply with a place.
type Card struct {
	PlaceID         string     `json:"place_id"`
	Name            string     `json:"name"`
	URL             string     `json:"url"`
	Address         string     `json:"address"`
	Rating          float64    `json:"rating"`
	PriceLevel      int        `json:"price_level"`
	Location        Coordinate `json:"location"`
	PhotoReferences []string   `json:"photo_references,omitempty"`
	Caption         string     `json:"caption"`
}

// Photo is a downloaded place photo.
type Photo struct {
	ContentType string
	Data        []byte
}

// Presenter fetches place details and renders them.
type Presenter struct {
	details  DetailsFetcher
	photos   PhotoFetcher
	language string
}

func NewPresenter(details DetailsFetcher, photos PhotoFetcher, language string) *Presenter {
	if language == "" {
		language = "es"
	}
	return &Presenter{details: details, photos: photos, language: language}
}

// Present fetches the details of placeID and builds its card.
func (p *Presenter) Present(ctx context.Context, placeID string) (_ Card, err error) {
	defer obs.Time(ctx, "places.details")(&err)

	d, err := p.details.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID:  placeID,
		Language: p.language,
	})
	if err != nil {
		return Card{}, fmt.Errorf("place details %s: %w", placeID, err)
	}

	if strings.TrimSpace(d.Name) == "" {
		return Card{}, fmt.Errorf("%w: place %s has no name", ErrIncompleteDetails, placeID)
	}
	loc := d.Geometry.Location
	if loc.Lat == 0 && loc.Lng == 0 {
		return Card{}, fmt.Errorf("%w: place %s has no location", ErrIncompleteDetails, placeID)
	}

	refs := make([]string, 0, len(d.Photos))
	for _, ph := range d.Photos {
		if ph.PhotoReference != "" {
			refs = append(refs, ph.PhotoReference)
		}
	}

	if d.PlaceID == "" {
		d.PlaceID = placeID
	}

	return Card{
		PlaceID:         d.PlaceID,
		Name:            d.Name,
		URL:             d.URL,
		Address:         d.FormattedAddress,
		Rating:          float64(d.Rating),
		PriceLevel:      d.PriceLevel,
		Location:        Coordinate{Lat: loc.Lat, Lng: loc.Lng},
		PhotoReferences: refs,
		Caption:         Caption(d),
	}, nil
}

// Caption renders place details as Telegram HTML:
//
//	<b>🍽 <a href="url">name</a> 🍽</b>
//
//	• ⭐️⭐️⭐️⭐️ • 💰💰 •
//
//	🗺 <code>address</code> 🗺
func Caption(d maps.PlaceDetailsResult) string {
	return fmt.Sprintf("<b>🍽 <a href=\"%s\">%s</a> 🍽</b>\n\n• %s • %s •\n\n🗺 <code>%s</code> 🗺",
		html.EscapeString(d.URL),
		html.EscapeString(d.Name),
		Stars(float64(d.Rating)),
		Money(d.PriceLevel),
		html.EscapeString(d.FormattedAddress),
	)
}

// Stars repeats StarGlyph round(rating) times. Halves round to even, so 4.5 gives four stars.
func Stars(rating float64) string {
	n := int(math.RoundToEven(rating))
	return strings.Repeat(StarGlyph, clamp(n, 0, 5))
}

// Money repeats MoneyGlyph once per price level.
func Money(priceLevel int) string {
	return strings.Repeat(MoneyGlyph, clamp(priceLevel, 0, 4))
}

// Photo downloads a 400x400 rendition of the photo ref.
func (p *Presenter) Photo(ctx context.Context, ref string) (_ Photo, err error) {
	defer obs.Time(ctx, "places.photo")(&err)

	resp, err := p.photos.PlacePhoto(ctx, &maps.PlacePhotoRequest{
		PhotoReference: ref,
		MaxHeight:      photoMaxSize,
		MaxWidth:       photoMaxSize,
	})
	if err != nil {
		return Photo{}, fmt.Errorf("place photo: %w", err)
	}
	if resp.Data == nil {
		return Photo{}, fmt.Errorf("place photo: empty response")
	}
	defer resp.Data.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Data, photoMaxBytes))
	if err != nil {
		return Photo{}, fmt.Errorf("read place photo: %w", err)
	}
	return Photo{ContentType: resp.ContentType, Data: data}, nil
}

func clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}
