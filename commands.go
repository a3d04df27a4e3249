package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"donde-comemos-bot/db"
	"donde-comemos-bot/obs"
	"donde-comemos-bot/places"
)

const (
	msgWelcome = "Bienvenido, soy el bot que te ayudara a encontrar un lugar para comer."

	msgHelp = `<b>Comandos disponibles:</b>
/restaurant - <i>Busca un restaurante</i>
/restaurant_zone palermo - <i>Busca un restaurante en una zona</i>
/bar - <i>Busca un bar</i>
/bar_zone palermo - <i>Busca un bar en una zona</i>
/photo - <i>Busca un restaurante y muestra una foto</i>
/stats - <i>Muestra estadísticas de uso</i>
/help - <i>Muestra este mensaje</i>`

	msgZoneRequired     = "Debe ingresar el comando con una zona"
	msgNoPlaceFound     = "No encontré ningún lugar, probá de nuevo."
	msgZoneNotFound     = "No encontré la zona %q, probá con otro nombre."
	msgRateLimited      = "Demasiadas consultas seguidas, esperá un momento."
	msgStatsUnavailable = "Las estadísticas no están disponibles."
	msgUnknownCommand   = "No conozco ese comando. Usá /help para ver los comandos disponibles."
	msgUseHelp          = "Usá /help para ver los comandos disponibles."

	statsWindow = 24 * time.Hour
)

// commandRequest is one incoming command. Args has its whitespace collapsed; empty means absent.
type commandRequest struct {
	Command  string
	Args     string
	UserID   int64
	UserName string
	ChatID   int64
}

func newCommandRequest(msg *tgbotapi.Message) commandRequest {
	req := commandRequest{
		Command: strings.ToLower(msg.Command()),
		Args:    strings.Join(strings.Fields(msg.CommandArguments()), " "),
	}
	if msg.From != nil {
		req.UserID = msg.From.ID
		req.UserName = msg.From.FirstName
	}
	if msg.Chat != nil {
		req.ChatID = msg.Chat.ID
	}
	return req
}

func (rb *RestaurantBot) handleStart(ctx context.Context, req commandRequest) error {
	rb.sendText(req.ChatID, msgWelcome)
	return nil
}

func (rb *RestaurantBot) handleHelp(ctx context.Context, req commandRequest) error {
	rb.sendHTML(req.ChatID, msgHelp)
	return nil
}

func (rb *RestaurantBot) handleRestaurant(ctx context.Context, req commandRequest) error {
	return rb.replyRandomPlace(ctx, req, places.Query{Category: places.CategoryRestaurant, Keyword: req.Args})
}

func (rb *RestaurantBot) handleBar(ctx context.Context, req commandRequest) error {
	return rb.replyRandomPlace(ctx, req, places.Query{Category: places.CategoryBar, Keyword: req.Args})
}

func (rb *RestaurantBot) handleRestaurantZone(ctx context.Context, req commandRequest) error {
	if req.Args == "" {
		rb.sendText(req.ChatID, msgZoneRequired)
		return nil
	}
	return rb.replyRandomPlace(ctx, req, places.Query{Category: places.CategoryRestaurant, Zone: req.Args})
}

func (rb *RestaurantBot) handleBarZone(ctx context.Context, req commandRequest) error {
	if req.Args == "" {
		rb.sendText(req.ChatID, msgZoneRequired)
		return nil
	}
	return rb.replyRandomPlace(ctx, req, places.Query{Category: places.CategoryBar, Zone: req.Args})
}

func (rb *RestaurantBot) handlePhoto(ctx context.Context, req commandRequest) error {
	q := places.Query{Category: places.CategoryRestaurant, Keyword: req.Args}
	rec, ok, err := rb.findPlace(ctx, req, q)
	if !ok {
		return err
	}

	if !rb.sendPlacePhoto(ctx, req.ChatID, rec) {
		rb.sendHTML(req.ChatID, rec.Caption)
	}
	rb.sendLocation(req.ChatID, rec.Location)
	rb.saveRecommendation(ctx, req, q, rec)
	return nil
}

func (rb *RestaurantBot) handleStats(ctx context.Context, req commandRequest) error {
	if rb.store == nil {
		rb.sendText(req.ChatID, msgStatsUnavailable)
		return nil
	}

	stats, err := rb.store.Stats(ctx, time.Now().Add(-statsWindow))
	if err != nil {
		rb.sendText(req.ChatID, msgStatsUnavailable)
		return fmt.Errorf("load stats: %w", err)
	}
	rb.sendHTML(req.ChatID, formatStats(stats))
	return nil
}

// replyRandomPlace finds a place for q and replies with its card followed by its location.
func (rb *RestaurantBot) replyRandomPlace(ctx context.Context, req commandRequest, q places.Query) error {
	rec, ok, err := rb.findPlace(ctx, req, q)
	if !ok {
		return err
	}

	rb.sendHTML(req.ChatID, rec.Caption)
	rb.sendLocation(req.ChatID, rec.Location)
	rb.saveRecommendation(ctx, req, q, rec)
	return nil
}

// findPlace applies the rate limit and runs the search. When ok is false the user
// has already been told why.
func (rb *RestaurantBot) findPlace(ctx context.Context, req commandRequest, q places.Query) (places.Recommendation, bool, error) {
	if !rb.limiter.Allow(req.UserID) {
		rb.sendText(req.ChatID, msgRateLimited)
		return places.Recommendation{}, false, nil
	}

	rec, err := rb.places.RandomPlace(ctx, q)
	if err != nil {
		rb.sendText(req.ChatID, failureMessage(err, q))
		return places.Recommendation{}, false, fmt.Errorf("random %s (zone=%q keyword=%q): %w", q.Category, q.Zone, q.Keyword, err)
	}
	return rec, true, nil
}

func (rb *RestaurantBot) sendPlacePhoto(ctx context.Context, chatID int64, rec places.Recommendation) bool {
	if len(rec.PhotoReferences) == 0 {
		return false
	}

	photo, err := rb.places.Photo(ctx, rec.PhotoReferences[0])
	if err != nil {
		log.Printf("req_id=%s Failed to fetch photo for %s: %v", obs.RequestID(ctx), rec.PlaceID, err)
		return false
	}

	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "image.jpg", Bytes: photo.Data})
	msg.Caption = rec.Caption
	msg.ParseMode = tgbotapi.ModeHTML
	return rb.send(chatID, msg)
}

func (rb *RestaurantBot) saveRecommendation(ctx context.Context, req commandRequest, q places.Query, rec places.Recommendation) {
	if rb.store == nil {
		return
	}
	err := rb.store.RecordRecommendation(ctx, db.Recommendation{
		TelegramID: req.UserID,
		FirstName:  req.UserName,
		ChatID:     req.ChatID,
		Category:   string(q.Category),
		Zone:       q.Zone,
		Keyword:    q.Keyword,
		PlaceID:    rec.PlaceID,
		Name:       rec.Name,
		Rating:     rec.Rating,
		PriceLevel: rec.PriceLevel,
		Latitude:   rec.Location.Lat,
		Longitude:  rec.Location.Lng,
	})
	if err != nil {
		log.Printf("req_id=%s Failed to save recommendation: %v", obs.RequestID(ctx), err)
	}
}

func failureMessage(err error, q places.Query) string {
	if errors.Is(err, places.ErrZoneNotFound) {
		return fmt.Sprintf(msgZoneNotFound, q.Zone)
	}
	return msgNoPlaceFound
}

func formatStats(s *db.Stats) string {
	var b strings.Builder
	b.WriteString("<b>Estadísticas</b>\n")
	fmt.Fprintf(&b, "Usuarios: %d\n", s.TotalUsers)
	fmt.Fprintf(&b, "Recomendaciones: %d\n", s.TotalRecommendations)

	if len(s.CommandsSince) == 0 {
		return b.String()
	}

	commands := make([]string, 0, len(s.CommandsSince))
	for c := range s.CommandsSince {
		commands = append(commands, c)
	}
	sort.Strings(commands)

	b.WriteString("\n<b>Últimas 24 horas</b>\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "%s: %d\n", c, s.CommandsSince[c])
	}
	return b.String()
}
