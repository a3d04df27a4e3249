package main

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"donde-comemos-bot/obs"
	"donde-comemos-bot/places"
)

const requestIDHeader = "X-Request-ID"

// apiResponse is the envelope every JSON endpoint returns.
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type placeResponse struct {
	places.Recommendation
	Distance string `json:"distance"`
}

type apiHandler struct {
	places  placeService
	limiter *userLimiter
}

// newAPIServer exposes the recommendation flow over HTTP.
func newAPIServer(svc placeService, limiter *userLimiter) *echo.Echo {
	h := &apiHandler{places: svc, limiter: limiter}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(requestIDMiddleware())
	e.Use(loggingMiddleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	e.GET("/healthz", h.health)
	api := e.Group("/api")
	api.GET("/place", h.place)
	api.GET("/photo", h.photo)
	return e
}

func (h *apiHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, apiResponse{Status: "success", Message: "ok"})
}

func (h *apiHandler) place(c echo.Context) error {
	category, err := places.ParseCategory(c.QueryParam("type"))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	// Anonymous callers share the zero-id bucket.
	if !h.limiter.Allow(0) {
		return jsonError(c, http.StatusTooManyRequests, "rate limit exceeded")
	}

	q := places.Query{
		Category: category,
		Zone:     strings.TrimSpace(c.QueryParam("zone")),
		Keyword:  strings.TrimSpace(c.QueryParam("keyword")),
	}
	rec, err := h.places.RandomPlace(c.Request().Context(), q)
	switch {
	case errors.Is(err, places.ErrZoneNotFound):
		return jsonError(c, http.StatusNotFound, "zone not found")
	case errors.Is(err, places.ErrNoPlaceFound):
		return jsonError(c, http.StatusNotFound, "no place found")
	case err != nil:
		log.Printf("req_id=%s random place failed: %v", obs.RequestID(c.Request().Context()), err)
		return jsonError(c, http.StatusBadGateway, "places provider unavailable")
	}

	return c.JSON(http.StatusOK, apiResponse{
		Status: "success",
		Data:   placeResponse{Recommendation: rec, Distance: places.FormatDistance(rec.DistanceKm)},
	})
}

func (h *apiHandler) photo(c echo.Context) error {
	ref := strings.TrimSpace(c.QueryParam("photo_reference"))
	if ref == "" {
		return jsonError(c, http.StatusBadRequest, "photo_reference is required")
	}

	photo, err := h.places.Photo(c.Request().Context(), ref)
	if err != nil {
		log.Printf("req_id=%s photo failed: %v", obs.RequestID(c.Request().Context()), err)
		return jsonError(c, http.StatusBadGateway, "photo unavailable")
	}

	contentType := photo.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, contentType, photo.Data)
}

func jsonError(c echo.Context, status int, message string) error {
	return c.JSON(status, apiResponse{Status: "error", Message: message})
}

// requestIDMiddleware reuses the caller's X-Request-ID or mints one, and carries it
// in the request context so place lookups log under the same id.
func requestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := obs.WithRequestID(req.Context(), req.Header.Get(requestIDHeader))
			c.SetRequest(req.WithContext(ctx))
			c.Response().Header().Set(requestIDHeader, obs.RequestID(ctx))
			return next(c)
		}
	}
}

func loggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			log.Printf("req_id=%s method=%s path=%s status=%d latency=%s",
				obs.RequestID(c.Request().Context()), c.Request().Method, c.Request().URL.Path,
				c.Response().Status, time.Since(start))
			return nil
		}
	}
}
