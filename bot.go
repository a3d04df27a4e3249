package main

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"donde-comemos-bot/activity"
	"donde-comemos-bot/db"
	"donde-comemos-bot/obs"
	"donde-comemos-bot/places"
)

const defaultRequestTimeout = 30 * time.Second

// messageSender is satisfied by *tgbotapi.BotAPI.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// placeService is satisfied by *places.Service.
type placeService interface {
	RandomPlace(ctx context.Context, q places.Query) (places.Recommendation, error)
	Photo(ctx context.Context, ref string) (places.Photo, error)
}

// recommendationStore is satisfied by *db.DB.
type recommendationStore interface {
	RecordRecommendation(ctx context.Context, r db.Recommendation) error
	Stats(ctx context.Context, since time.Time) (*db.Stats, error)
}

type commandHandler func(ctx context.Context, req commandRequest) error

// BotOptions wires the bot's collaborators. Store and Limiter are optional.
type BotOptions struct {
	Places   placeService
	Activity activity.Recorder
	Store    recommendationStore
	Limiter  *userLimiter
	Timeout  time.Duration
}

type RestaurantBot struct {
	telegramBot *tgbotapi.BotAPI
	sender      messageSender
	places      placeService
	activity    activity.Recorder
	store       recommendationStore
	limiter     *userLimiter
	timeout     time.Duration
	handlers    map[string]commandHandler
	inflight    sync.WaitGroup
}

// NewRestaurantBot builds a bot that replies through sender. When sender is a
// *tgbotapi.BotAPI the bot can also poll for updates with Start.
func NewRestaurantBot(sender messageSender, opts BotOptions) *RestaurantBot {
	rb := &RestaurantBot{
		sender:   sender,
		places:   opts.Places,
		activity: opts.Activity,
		store:    opts.Store,
		limiter:  opts.Limiter,
		timeout:  opts.Timeout,
	}
	if api, ok := sender.(*tgbotapi.BotAPI); ok {
		rb.telegramBot = api
	}
	if rb.timeout <= 0 {
		rb.timeout = defaultRequestTimeout
	}
	rb.handlers = map[string]commandHandler{
		"start":           rb.handleStart,
		"help":            rb.handleHelp,
		"restaurant":      rb.handleRestaurant,
		"bar":             rb.handleBar,
		"restaurant_zone": rb.handleRestaurantZone,
		"bar_zone":        rb.handleBarZone,
		"photo":           rb.handlePhoto,
		"stats":           rb.handleStats,
	}
	return rb
}

// Start long-polls Telegram until ctx is done. Each update is handled in its own goroutine;
// Start waits for in-flight handlers before returning.
func (rb *RestaurantBot) Start(ctx context.Context) error {
	if rb.telegramBot == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := rb.telegramBot.GetUpdatesChan(u)

	log.Printf("Bot started. Username: %s", rb.telegramBot.Self.UserName)

	defer rb.inflight.Wait()
	for {
		select {
		case <-ctx.Done():
			rb.telegramBot.StopReceivingUpdates()
			log.Printf("Stopped receiving updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			rb.inflight.Add(1)
			go func(msg *tgbotapi.Message) {
				defer rb.inflight.Done()
				rb.handleMessage(context.WithoutCancel(ctx), msg)
			}(update.Message)
		}
	}
}

// handleMessage is the top-level error handler: it logs handler errors and
// recovers panics so one bad update never stops the loop.
func (rb *RestaurantBot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	req := newCommandRequest(msg)
	ctx = obs.WithRequestID(ctx, "")

	defer func() {
		if r := recover(); r != nil {
			log.Printf("req_id=%s Update %q from chat %d caused panic: %v\n%s", obs.RequestID(ctx), msg.Text, req.ChatID, r, debug.Stack())
		}
	}()

	if !msg.IsCommand() {
		if msg.Chat != nil && msg.Chat.IsPrivate() {
			rb.sendText(req.ChatID, msgUseHelp)
		}
		return
	}

	ctx, cancel := context.WithTimeout(ctx, rb.timeout)
	defer cancel()

	if err := rb.dispatch(ctx, req); err != nil {
		log.Printf("req_id=%s Update %q from chat %d caused error: %v", obs.RequestID(ctx), msg.Text, req.ChatID, err)
	}
}

func (rb *RestaurantBot) dispatch(ctx context.Context, req commandRequest) (err error) {
	handler, ok := rb.handlers[req.Command]
	if !ok {
		rb.sendText(req.ChatID, msgUnknownCommand)
		return nil
	}

	defer obs.Time(ctx, "command./"+req.Command)(&err)

	rb.recordActivity(ctx, req)
	return handler(ctx, req)
}

// recordActivity never fails the command; a broken log must not block the reply.
func (rb *RestaurantBot) recordActivity(ctx context.Context, req commandRequest) {
	if rb.activity == nil {
		return
	}
	err := rb.activity.Record(ctx, activity.Entry{
		Time:     time.Now(),
		Command:  "/" + req.Command,
		UserName: req.UserName,
		UserID:   req.UserID,
		ChatID:   req.ChatID,
	})
	if err != nil {
		log.Printf("req_id=%s Failed to record activity: %v", obs.RequestID(ctx), err)
	}
}

func (rb *RestaurantBot) sendText(chatID int64, text string) {
	rb.send(chatID, tgbotapi.NewMessage(chatID, text))
}

func (rb *RestaurantBot) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	rb.send(chatID, msg)
}

func (rb *RestaurantBot) sendLocation(chatID int64, c places.Coordinate) {
	rb.send(chatID, tgbotapi.NewLocation(chatID, c.Lat, c.Lng))
}

func (rb *RestaurantBot) send(chatID int64, c tgbotapi.Chattable) bool {
	if _, err := rb.sender.Send(c); err != nil {
		log.Printf("Failed to send message to chat %d: %v", chatID, err)
		return false
	}
	return true
}
