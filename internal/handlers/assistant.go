package handlers

import (
	"bufio"
	"context"
	"errors"
	"time"

	"ubuhinzi360/server/internal/assistant"
	"ubuhinzi360/server/internal/i18n"

	"github.com/gofiber/fiber/v2"
)

const assistantTimeout = 60 * time.Second

// TipsRequest represents tips request body
type TipsRequest struct {
	Crop assistant.Crop `json:"crop"`
}

// YieldRequest names a registered plot or describes one inline
type YieldRequest struct {
	PlotID string `json:"plotId"`
	assistant.Plot
}

// DirectionsRequest represents directions request body. A plotId takes
// the destination from the registered plot.
type DirectionsRequest struct {
	From        string     `json:"from"`
	PlotID      string     `json:"plotId"`
	To          [2]float64 `json:"to"`
	Destination string     `json:"destination"`
}

// disabled answers with the localized "feature disabled" state
func (h *Handler) disabled(c *fiber.Ctx) error {
	return fail(c, fiber.StatusServiceUnavailable, i18n.For(h.language(c)).FeatureDisabled)
}

// GetTips streams farming tips for a crop as plain text
func (h *Handler) GetTips(c *fiber.Ctx) error {
	if !h.Assistant.Enabled() {
		return h.disabled(c)
	}

	var req TipsRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if !req.Crop.Valid() {
		return fail(c, fiber.StatusBadRequest, "Unknown crop")
	}

	lang := h.language(c)
	tr := i18n.For(lang)
	logger := h.logger()
	asst := h.Assistant

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithTimeout(context.Background(), assistantTimeout)
		defer cancel()

		_, err := asst.StreamTips(ctx, req.Crop, lang, func(chunk string) error {
			if _, err := w.WriteString(chunk); err != nil {
				return err
			}
			return w.Flush()
		})
		if err != nil {
			logger.Warn("tips stream failed", "crop", req.Crop, "error", err)
			w.WriteString("\n" + tr.TipsError)
			w.Flush()
		}
	})
	return nil
}

// EstimateYield returns a yield estimate for a plot
func (h *Handler) EstimateYield(c *fiber.Ctx) error {
	if !h.Assistant.Enabled() {
		return h.disabled(c)
	}

	var req YieldRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	plot := req.Plot
	if req.PlotID != "" {
		stored, err := h.Community.Plot(req.PlotID)
		if err != nil {
			return h.fromError(c, err)
		}
		plot = assistant.PlotFrom(stored)
	}
	if !plot.Crop.Valid() || plot.SizeHectares <= 0 {
		return fail(c, fiber.StatusBadRequest, "A known crop and a positive size are required")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), assistantTimeout)
	defer cancel()

	lang := h.language(c)
	estimate, err := h.Assistant.EstimateYield(ctx, plot, lang)
	if err != nil {
		h.logger().Warn("yield estimate failed", "plot", plot.Name, "error", err)
		return fail(c, assistantStatus(err), i18n.For(lang).PredictionError)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"estimate": estimate})
}

// GetDirections returns narrative directions and a route polyline
func (h *Handler) GetDirections(c *fiber.Ctx) error {
	if !h.Assistant.Enabled() {
		return h.disabled(c)
	}

	var req DirectionsRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.From == "" {
		return fail(c, fiber.StatusBadRequest, "Start location is required")
	}
	if req.PlotID != "" {
		stored, err := h.Community.Plot(req.PlotID)
		if err != nil {
			return h.fromError(c, err)
		}
		req.To, req.Destination = stored.Coordinates, stored.Name
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), assistantTimeout)
	defer cancel()

	lang := h.language(c)
	directions, err := h.Assistant.Directions(ctx, req.From, req.To, req.Destination, lang)
	if err != nil {
		h.logger().Warn("directions failed", "from", req.From, "error", err)
		return fail(c, assistantStatus(err), i18n.For(lang).DirectionsError)
	}
	return ok(c, fiber.StatusOK, directions)
}

func assistantStatus(err error) int {
	if errors.Is(err, assistant.ErrNotConfigured) {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusBadGateway
}
