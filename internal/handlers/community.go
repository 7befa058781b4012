package handlers

import (
	"ubuhinzi360/server/internal/community"
	"ubuhinzi360/server/internal/middleware"
	"ubuhinzi360/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreatePostRequest represents create post request body
type CreatePostRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl"`
}

// CommentRequest represents comment request body
type CommentRequest struct {
	Content string `json:"content"`
}

// CreateAlertRequest represents create alert request body
type CreateAlertRequest struct {
	Type        models.AlertType `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
}

// GetPosts returns the community feed
func (h *Handler) GetPosts(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, h.Community.Posts())
}

// CreatePost publishes a post. An image must come from the upload endpoint.
func (h *Handler) CreatePost(c *fiber.Ctx) error {
	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ImageURL != "" && !h.uploadedFile(models.KindImage, req.ImageURL) {
		return fail(c, fiber.StatusBadRequest, "Image must be a file returned by the upload endpoint")
	}

	post, err := h.Community.AddPost(middleware.GetUserID(c), req.Content, req.ImageURL)
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusCreated, post)
}

// CommentOnPost adds a comment to a post
func (h *Handler) CommentOnPost(c *fiber.Ctx) error {
	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	post, err := h.Community.AddComment(middleware.GetUserID(c), c.Params("id"), req.Content)
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusCreated, post)
}

// LikePost likes a post once per user
func (h *Handler) LikePost(c *fiber.Ctx) error {
	post, err := h.Community.LikePost(middleware.GetUserID(c), c.Params("id"))
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusOK, post)
}

// GetPlots lists plots, filtered by ?crop= and ?owner=
func (h *Handler) GetPlots(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, h.Community.Plots(community.PlotFilter{
		Crop:    models.Crop(c.Query("crop")),
		OwnerID: c.Query("owner"),
	}))
}

// GetPlot returns one plot
func (h *Handler) GetPlot(c *fiber.Ctx) error {
	plot, err := h.Community.Plot(c.Params("id"))
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusOK, plot)
}

// CreatePlot registers a plot for the current user
func (h *Handler) CreatePlot(c *fiber.Ctx) error {
	var req community.PlotInput
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	plot, err := h.Community.AddPlot(middleware.GetUserID(c), req)
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusCreated, plot)
}

// UpdatePlot edits one of the current user's plots
func (h *Handler) UpdatePlot(c *fiber.Ctx) error {
	var req community.PlotUpdate
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	plot, err := h.Community.UpdatePlot(middleware.GetUserID(c), c.Params("id"), req)
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusOK, plot)
}

// GetProducts lists marketplace listings, newest first, up to ?limit=
func (h *Handler) GetProducts(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, h.Community.Products(c.QueryInt("limit", 0)))
}

// CreateProduct lists a product for the current user
func (h *Handler) CreateProduct(c *fiber.Ctx) error {
	var req community.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ImageURL != "" && !h.uploadedFile(models.KindImage, req.ImageURL) {
		return fail(c, fiber.StatusBadRequest, "Image must be a file returned by the upload endpoint")
	}

	product, err := h.Community.AddProduct(middleware.GetUserID(c), req)
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusCreated, product)
}

// GetAlerts lists dashboard alerts, newest first
func (h *Handler) GetAlerts(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, h.Community.Alerts())
}

// CreateAlert publishes a dashboard alert
func (h *Handler) CreateAlert(c *fiber.Ctx) error {
	var req CreateAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	alert, err := h.Community.AddAlert(models.Alert{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusCreated, alert)
}
