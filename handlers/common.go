package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"catsgallery/gallery"
	"catsgallery/metrics"
	"catsgallery/structs"
	"catsgallery/utils"
)

const sessionCookie = "cats_session"

type Handler struct {
	registry *gallery.Registry
	log      zerolog.Logger
}

func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "catsgallery",
		JSONEncoder:           jsoniter.Marshal,
		JSONDecoder:           jsoniter.Unmarshal,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})
}

// InitHandlers mounts the gallery page, the JSON API and the operational
// endpoints. m may be nil.
func InitHandlers(app *fiber.App, registry *gallery.Registry, m *metrics.Metrics) {
	h := &Handler{
		registry: registry,
		log:      utils.NewLogger("handlers"),
	}

	app.Use(recover.New())
	app.Use(h.requestLogger)
	if m != nil {
		app.Use(m.APIMiddleware())
		app.Get("/metrics", m.Handler())
	}

	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.SendString("ok")
	})

	app.Get("/", h.getPage)
	app.Post("/refresh", h.refreshPage)

	api := app.Group("/api")
	api.Get("/cats", h.getCats)
	api.Post("/cats/refresh", h.refreshCats)
	api.Delete("/session", h.endSession)
	api.Get("/fetches", getFetchLogs)
}

func sendCommonResponse(ctx *fiber.Ctx, code int, message string, data map[string]interface{}) error {
	response := structs.CommonResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
	json, err := jsoniter.Marshal(response)
	if err != nil {
		return err
	}
	ctx.Type("json", "utf-8")
	return ctx.Status(code).Send(json)
}

func errorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return sendCommonResponse(ctx, code, err.Error(), nil)
}

func (h *Handler) requestLogger(ctx *fiber.Ctx) error {
	start := time.Now()
	err := ctx.Next()

	status := ctx.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		}
	}
	h.log.Debug().
		Str("method", ctx.Method()).
		Str("path", ctx.Path()).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Msg("Request served")
	return err
}

// openView returns the caller's gallery view and starts a session cookie
// when a new view had to be created.
func (h *Handler) openView(ctx *fiber.Ctx) (string, *gallery.View) {
	id, view, created := h.registry.Open(ctx.Cookies(sessionCookie))
	if created {
		ctx.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return id, view
}
