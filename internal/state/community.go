package state

import (
	"slices"

	"ubuhinzi360/server/internal/models"
)

// Posts returns the live posts, newest first
func (tx *Tx) Posts() []*models.Post {
	return tx.s.posts
}

// Post returns the live post with id, or nil
func (tx *Tx) Post(id string) *models.Post {
	for _, p := range tx.s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AddPost stamps p and prepends it to the feed
func (tx *Tx) AddPost(p models.Post) (*models.Post, error) {
	if err := tx.write(); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = tx.Now()
	}
	if p.LikedBy == nil {
		p.LikedBy = []string{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	p.Likes = len(p.LikedBy)
	live := p.Clone()
	tx.s.posts = append([]*models.Post{live}, tx.s.posts...)
	return live, nil
}

// AddComment appends c to the post with postID
func (tx *Tx) AddComment(postID string, c models.Comment) (models.Comment, error) {
	p := tx.Post(postID)
	if p == nil {
		return models.Comment{}, ErrPostNotFound
	}
	if err := tx.write(); err != nil {
		return models.Comment{}, err
	}
	if c.ID == "" {
		c.ID = NewID()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = tx.Now()
	}
	p.Comments = append(p.Comments, c)
	return c, nil
}

// LikePost records a like from userID. A repeated like changes nothing and
// reports false.
func (tx *Tx) LikePost(postID, userID string) (bool, error) {
	p := tx.Post(postID)
	if p == nil {
		return false, ErrPostNotFound
	}
	if slices.Contains(p.LikedBy, userID) {
		return false, nil
	}
	if err := tx.write(); err != nil {
		return false, err
	}
	p.LikedBy = append(p.LikedBy, userID)
	p.Likes = len(p.LikedBy)
	return true, nil
}

// Plots returns the live plots in registration order
func (tx *Tx) Plots() []*models.Plot {
	return tx.s.plots
}

// Plot returns the live plot with id, or nil
func (tx *Tx) Plot(id string) *models.Plot {
	for _, p := range tx.s.plots {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// AddPlot validates and stores p
func (tx *Tx) AddPlot(p models.Plot) (*models.Plot, error) {
	if tx.s.users[p.OwnerID] == nil {
		return nil, ErrUserNotFound
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := tx.write(); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = tx.Now()
	}
	live := &p
	tx.s.plots = append(tx.s.plots, live)
	return live, nil
}

// MutatePlot applies fn to a copy of the plot with id and stores it if it
// still validates
func (tx *Tx) MutatePlot(id string, fn func(p *models.Plot)) (*models.Plot, error) {
	p := tx.Plot(id)
	if p == nil {
		return nil, ErrPlotNotFound
	}
	next := *p
	fn(&next)
	next.ID, next.OwnerID, next.CreatedAt = p.ID, p.OwnerID, p.CreatedAt
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := tx.write(); err != nil {
		return nil, err
	}
	*p = next
	return p, nil
}

// Products returns the live listings in insertion order
func (tx *Tx) Products() []*models.Product {
	return tx.s.products
}

// AddProduct validates and stores p
func (tx *Tx) AddProduct(p models.Product) (*models.Product, error) {
	if tx.s.users[p.SellerID] == nil {
		return nil, ErrUserNotFound
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := tx.write(); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.DateAdded.IsZero() {
		p.DateAdded = tx.Now()
	}
	live := &p
	tx.s.products = append(tx.s.products, live)
	return live, nil
}

// Alerts returns the live alerts in insertion order
func (tx *Tx) Alerts() []*models.Alert {
	return tx.s.alerts
}

// AddAlert validates and stores a
func (tx *Tx) AddAlert(a models.Alert) (*models.Alert, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := tx.write(); err != nil {
		return nil, err
	}
	if a.ID == "" {
		a.ID = NewID()
	}
	if a.Date.IsZero() {
		a.Date = tx.Now()
	}
	live := &a
	tx.s.alerts = append(tx.s.alerts, live)
	return live, nil
}
