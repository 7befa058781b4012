package models

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	ErrInvalidPlot    = errors.New("invalid plot")
	ErrInvalidProduct = errors.New("invalid product")
	ErrInvalidAlert   = errors.New("invalid alert")
)

// Crop is a crop grown on a plot
type Crop string

const (
	CropMaize    Crop = "Maize"
	CropBeans    Crop = "Beans"
	CropPotatoes Crop = "Potatoes"
	CropCassava  Crop = "Cassava"
	CropCoffee   Crop = "Coffee"
	CropTea      Crop = "Tea"
)

// Valid reports whether c is a known crop
func (c Crop) Valid() bool {
	switch c {
	case CropMaize, CropBeans, CropPotatoes, CropCassava, CropCoffee, CropTea:
		return true
	}
	return false
}

// FarmingStage is where a plot is in its season
type FarmingStage string

const (
	StagePlanting   FarmingStage = "Planting"
	StageGrowing    FarmingStage = "Growing"
	StageHarvesting FarmingStage = "Harvesting"
	StageFallow     FarmingStage = "Fallow"
)

// Valid reports whether s is a known stage
func (s FarmingStage) Valid() bool {
	switch s {
	case StagePlanting, StageGrowing, StageHarvesting, StageFallow:
		return true
	}
	return false
}

// Plot is a piece of land registered on the map
type Plot struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"ownerId"`
	Name         string       `json:"name"`
	Coordinates  [2]float64   `json:"coordinates"` // lat, lng
	Crop         Crop         `json:"crop"`
	Size         float64      `json:"size"` // hectares
	FarmingStage FarmingStage `json:"farmingStage"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Validate checks the user-editable fields of p
func (p *Plot) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidPlot)
	case !p.Crop.Valid():
		return fmt.Errorf("%w: unknown crop %q", ErrInvalidPlot, p.Crop)
	case p.Size <= 0:
		return fmt.Errorf("%w: size must be positive", ErrInvalidPlot)
	case !p.FarmingStage.Valid():
		return fmt.Errorf("%w: unknown farming stage %q", ErrInvalidPlot, p.FarmingStage)
	case p.Coordinates[0] < -90 || p.Coordinates[0] > 90 || p.Coordinates[1] < -180 || p.Coordinates[1] > 180:
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidPlot)
	}
	return nil
}

// Comment is a reply under a community post
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Post is an entry of the community feed
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Likes     int       `json:"likes"`
	LikedBy   []string  `json:"likedBy"`
	Comments  []Comment `json:"comments"`
}

// Clone returns a deep copy of p
func (p *Post) Clone() *Post {
	out := *p
	out.LikedBy = slices.Clone(p.LikedBy)
	out.Comments = slices.Clone(p.Comments)
	return &out
}

// Product is a marketplace listing
type Product struct {
	ID        string    `json:"id"`
	SellerID  string    `json:"sellerId"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"` // RWF per unit
	Unit      string    `json:"unit"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	DateAdded time.Time `json:"dateAdded"`
}

// Validate checks the seller-provided fields of p
func (p *Product) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidProduct)
	case p.Unit == "":
		return fmt.Errorf("%w: unit is required", ErrInvalidProduct)
	}
	return nil
}

// AlertType sets how an alert is shown
type AlertType string

const (
	AlertWarning      AlertType = "warning"
	AlertAnnouncement AlertType = "announcement"
	AlertInfo         AlertType = "info"
)

// Alert is a notice on the dashboard
type Alert struct {
	ID          string    `json:"id"`
	Type        AlertType `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// Validate checks a's type and title
func (a *Alert) Validate() error {
	switch a.Type {
	case AlertWarning, AlertAnnouncement, AlertInfo:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAlert, a.Type)
	}
	if a.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidAlert)
	}
	return nil
}
