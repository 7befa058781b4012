// Package community runs the shared boards: the post feed with comments
// and likes, registered land plots, marketplace listings and alerts.
package community

import (
	"errors"
	"log/slog"
	"sort"
	"strings"

	"ubuhinzi360/server/internal/metrics"
	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/state"
)

var (
	ErrUserNotFound    = state.ErrUserNotFound
	ErrPostNotFound    = state.ErrPostNotFound
	ErrPlotNotFound    = state.ErrPlotNotFound
	ErrContentRequired = errors.New("content is required")
	ErrNotOwner        = errors.New("only the owner can change this plot")
)

// Live event types
const (
	EventPostCreated   = "post_created"
	EventPostUpdated   = "post_updated"
	EventAlertReceived = "alert"
)

// Publisher delivers live events to connected users
type Publisher interface {
	Publish(userIDs []string, eventType string, payload any)
}

// Service runs community operations over the shared state
type Service struct {
	state  *state.State
	events Publisher
	logger *slog.Logger
}

// NewService creates a community service. events may be nil.
func NewService(st *state.State, events Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{state: st, events: events, logger: logger}
}

func (s *Service) publish(userIDs []string, eventType string, payload any) {
	if s.events != nil && len(userIDs) > 0 {
		s.events.Publish(userIDs, eventType, payload)
	}
}

// everyoneBut lists every user id except skip
func (s *Service) everyoneBut(skip string) []string {
	var out []string
	for _, u := range s.state.Users() {
		if u.ID != skip {
			out = append(out, u.ID)
		}
	}
	return out
}

// Posts returns the feed, newest first
func (s *Service) Posts() []*models.Post {
	out := []*models.Post{}
	s.state.View(func(tx *state.Tx) error {
		for _, p := range tx.Posts() {
			out = append(out, p.Clone())
		}
		return nil
	})
	return out
}

// AddPost publishes a post by authorID. imageURL is optional.
func (s *Service) AddPost(authorID, content, imageURL string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrContentRequired
	}

	var post *models.Post
	err := s.state.Update(func(tx *state.Tx) error {
		if tx.User(authorID) == nil {
			return ErrUserNotFound
		}
		p, err := tx.AddPost(models.Post{AuthorID: authorID, Content: content, ImageURL: imageURL})
		if err != nil {
			return err
		}
		post = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CommunityActions.WithLabelValues("post").Inc()
	s.logger.Info("post created", "post", post.ID, "author", authorID)
	s.publish(s.everyoneBut(authorID), EventPostCreated, post)
	return post, nil
}

// AddComment appends a comment by userID to a post
func (s *Service) AddComment(userID, postID, content string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrContentRequired
	}

	var post *models.Post
	err := s.state.Update(func(tx *state.Tx) error {
		if tx.User(userID) == nil {
			return ErrUserNotFound
		}
		if _, err := tx.AddComment(postID, models.Comment{AuthorID: userID, Content: content}); err != nil {
			return err
		}
		post = tx.Post(postID).Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CommunityActions.WithLabelValues("comment").Inc()
	if post.AuthorID != userID {
		s.publish([]string{post.AuthorID}, EventPostUpdated, post)
	}
	return post, nil
}

// LikePost records one like per user. Liking again returns the post as is.
func (s *Service) LikePost(userID, postID string) (*models.Post, error) {
	var post *models.Post
	var liked bool
	err := s.state.Update(func(tx *state.Tx) error {
		if tx.User(userID) == nil {
			return ErrUserNotFound
		}
		var err error
		if liked, err = tx.LikePost(postID, userID); err != nil {
			return err
		}
		post = tx.Post(postID).Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if liked {
		metrics.CommunityActions.WithLabelValues("like").Inc()
		if post.AuthorID != userID {
			s.publish([]string{post.AuthorID}, EventPostUpdated, post)
		}
	}
	return post, nil
}

// PlotFilter narrows the plot list. Empty fields match everything.
type PlotFilter struct {
	Crop    models.Crop
	OwnerID string
}

// Plots lists registered plots matching f
func (s *Service) Plots(f PlotFilter) []models.Plot {
	out := []models.Plot{}
	s.state.View(func(tx *state.Tx) error {
		for _, p := range tx.Plots() {
			if f.Crop != "" && p.Crop != f.Crop {
				continue
			}
			if f.OwnerID != "" && p.OwnerID != f.OwnerID {
				continue
			}
			out = append(out, *p)
		}
		return nil
	})
	return out
}

// Plot returns the plot with id
func (s *Service) Plot(id string) (models.Plot, error) {
	var out models.Plot
	err := s.state.View(func(tx *state.Tx) error {
		p := tx.Plot(id)
		if p == nil {
			return ErrPlotNotFound
		}
		out = *p
		return nil
	})
	return out, err
}

// PlotInput holds the editable fields of a plot
type PlotInput struct {
	Name         string              `json:"name"`
	Coordinates  [2]float64          `json:"coordinates"`
	Crop         models.Crop         `json:"crop"`
	Size         float64             `json:"size"`
	FarmingStage models.FarmingStage `json:"farmingStage"`
}

// AddPlot registers a plot owned by ownerID. The name defaults to
// "<owner>'s New Plot" and the stage to Fallow.
func (s *Service) AddPlot(ownerID string, in PlotInput) (models.Plot, error) {
	var out models.Plot
	err := s.state.Update(func(tx *state.Tx) error {
		owner := tx.User(ownerID)
		if owner == nil {
			return ErrUserNotFound
		}
		name := strings.TrimSpace(in.Name)
		if name == "" {
			name = owner.Name + "'s New Plot"
		}
		stage := in.FarmingStage
		if stage == "" {
			stage = models.StageFallow
		}
		p, err := tx.AddPlot(models.Plot{
			OwnerID:      ownerID,
			Name:         name,
			Coordinates:  in.Coordinates,
			Crop:         in.Crop,
			Size:         in.Size,
			FarmingStage: stage,
		})
		if err != nil {
			return err
		}
		out = *p
		return nil
	})
	if err != nil {
		return models.Plot{}, err
	}

	metrics.CommunityActions.WithLabelValues("plot").Inc()
	s.logger.Info("plot registered", "plot", out.ID, "owner", ownerID, "crop", out.Crop)
	return out, nil
}

// PlotUpdate changes the set fields of a plot
type PlotUpdate struct {
	Name         *string              `json:"name"`
	Crop         *models.Crop         `json:"crop"`
	Size         *float64             `json:"size"`
	FarmingStage *models.FarmingStage `json:"farmingStage"`
}

// UpdatePlot edits a plot owned by userID
func (s *Service) UpdatePlot(userID, plotID string, upd PlotUpdate) (models.Plot, error) {
	var out models.Plot
	err := s.state.Update(func(tx *state.Tx) error {
		p := tx.Plot(plotID)
		if p == nil {
			return ErrPlotNotFound
		}
		if p.OwnerID != userID {
			return ErrNotOwner
		}
		next, err := tx.MutatePlot(plotID, func(p *models.Plot) {
			if upd.Name != nil {
				p.Name = strings.TrimSpace(*upd.Name)
			}
			if upd.Crop != nil {
				p.Crop = *upd.Crop
			}
			if upd.Size != nil {
				p.Size = *upd.Size
			}
			if upd.FarmingStage != nil {
				p.FarmingStage = *upd.FarmingStage
			}
		})
		if err != nil {
			return err
		}
		out = *next
		return nil
	})
	return out, err
}

// Products lists marketplace listings, newest first. limit <= 0 lists all.
func (s *Service) Products(limit int) []models.Product {
	out := []models.Product{}
	s.state.View(func(tx *state.Tx) error {
		for _, p := range tx.Products() {
			out = append(out, *p)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateAdded.After(out[j].DateAdded)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ProductInput holds a seller's listing fields
type ProductInput struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Unit     string  `json:"unit"`
	ImageURL string  `json:"imageUrl"`
}

// AddProduct lists a product for sellerID
func (s *Service) AddProduct(sellerID string, in ProductInput) (models.Product, error) {
	var out models.Product
	err := s.state.Update(func(tx *state.Tx) error {
		p, err := tx.AddProduct(models.Product{
			SellerID: sellerID,
			Name:     strings.TrimSpace(in.Name),
			Price:    in.Price,
			Unit:     strings.TrimSpace(in.Unit),
			ImageURL: in.ImageURL,
		})
		if err != nil {
			return err
		}
		out = *p
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}

	metrics.CommunityActions.WithLabelValues("product").Inc()
	s.logger.Info("product listed", "product", out.ID, "seller", sellerID)
	return out, nil
}

// Alerts lists alerts, newest first
func (s *Service) Alerts() []models.Alert {
	out := []models.Alert{}
	s.state.View(func(tx *state.Tx) error {
		for _, a := range tx.Alerts() {
			out = append(out, *a)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// AddAlert stores an alert and pushes it to every user
func (s *Service) AddAlert(a models.Alert) (models.Alert, error) {
	a.Title = strings.TrimSpace(a.Title)
	var out models.Alert
	err := s.state.Update(func(tx *state.Tx) error {
		stored, err := tx.AddAlert(a)
		if err != nil {
			return err
		}
		out = *stored
		return nil
	})
	if err != nil {
		return models.Alert{}, err
	}

	metrics.CommunityActions.WithLabelValues("alert").Inc()
	s.logger.Info("alert published", "alert", out.ID, "type", out.Type)
	s.publish(s.everyoneBut(""), EventAlertReceived, out)
	return out, nil
}
