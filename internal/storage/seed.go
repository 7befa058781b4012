package storage

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/state"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Users         []seedUser         `yaml:"users"`
	Requests      []seedRequest      `yaml:"requests"`
	Conversations []seedConversation `yaml:"conversations"`
	Plots         []seedPlot         `yaml:"plots"`
	Products      []seedProduct      `yaml:"products"`
	Alerts        []seedAlert        `yaml:"alerts"`
	Posts         []seedPost         `yaml:"posts"`
}

type seedUser struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Role        string `yaml:"role"`
	Status      string `yaml:"status"`
	AvatarColor string `yaml:"avatarColor"`
	LinkToken   string `yaml:"linkToken"`
	LinkExpiry  string `yaml:"linkExpiry"`
	LinkActive  bool   `yaml:"linkActive"`
}

type seedRequest struct {
	To         string `yaml:"to"`
	From       string `yaml:"from"`
	MinutesAgo int    `yaml:"minutesAgo"`
}

type seedConversation struct {
	ID           string        `yaml:"id"`
	Type         string        `yaml:"type"`
	Name         string        `yaml:"name"`
	Participants []string      `yaml:"participants"`
	Messages     []seedMessage `yaml:"messages"`
}

type seedMessage struct {
	Sender     string `yaml:"sender"`
	Type       string `yaml:"type"`
	Text       string `yaml:"text"`
	URL        string `yaml:"url"`
	MinutesAgo int    `yaml:"minutesAgo"`
}

type seedPlot struct {
	ID          string     `yaml:"id"`
	Owner       string     `yaml:"owner"`
	Name        string     `yaml:"name"`
	Coordinates [2]float64 `yaml:"coordinates"`
	Crop        string     `yaml:"crop"`
	Size        float64    `yaml:"size"`
	Stage       string     `yaml:"stage"`
}

type seedProduct struct {
	ID         string  `yaml:"id"`
	Seller     string  `yaml:"seller"`
	Name       string  `yaml:"name"`
	Price      float64 `yaml:"price"`
	Unit       string  `yaml:"unit"`
	ImageURL   string  `yaml:"imageUrl"`
	MinutesAgo int     `yaml:"minutesAgo"`
}

type seedAlert struct {
	ID          string `yaml:"id"`
	Type        string `yaml:"type"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	MinutesAgo  int    `yaml:"minutesAgo"`
}

type seedPost struct {
	ID         string        `yaml:"id"`
	Author     string        `yaml:"author"`
	Content    string        `yaml:"content"`
	ImageURL   string        `yaml:"imageUrl"`
	MinutesAgo int           `yaml:"minutesAgo"`
	LikedBy    []string      `yaml:"likedBy"`
	Comments   []seedComment `yaml:"comments"`
}

type seedComment struct {
	Author     string `yaml:"author"`
	Content    string `yaml:"content"`
	MinutesAgo int    `yaml:"minutesAgo"`
}

// DefaultSeed builds the built-in default snapshot relative to now
func DefaultSeed(now time.Time) (state.Snapshot, error) {
	return ParseSeed(defaultSeed, now)
}

// LoadSeed reads a seed file from path, or the built-in seed when path is empty
func LoadSeed(path string, now time.Time) (state.Snapshot, error) {
	if path == "" {
		return DefaultSeed(now)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data, now)
}

// ParseSeed decodes a YAML seed document into a snapshot
func ParseSeed(data []byte, now time.Time) (state.Snapshot, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return state.Snapshot{}, fmt.Errorf("parse seed: %w", err)
	}

	now = now.UTC()
	ago := func(minutes int) time.Time {
		return now.Add(-time.Duration(minutes) * time.Minute)
	}

	snap := state.Snapshot{
		Users:    make(map[string]*models.User, len(f.Users)),
		Settings: make(map[string]models.Settings),
	}

	for _, su := range f.Users {
		if su.ID == "" {
			return state.Snapshot{}, fmt.Errorf("seed user without id")
		}
		expiry := models.LinkExpiry(su.LinkExpiry)
		if !expiry.Valid() {
			expiry = models.LinkExpiryNever
		}
		snap.Users[su.ID] = &models.User{
			ID:               su.ID,
			Name:             su.Name,
			Role:             models.Role(su.Role),
			Status:           su.Status,
			AvatarColor:      su.AvatarColor,
			ProfileLinkToken: su.LinkToken,
			LinkExpiry:       expiry,
			LinkCreatedAt:    now,
			IsLinkActive:     su.LinkActive,
		}
	}

	for _, sr := range f.Requests {
		to := snap.Users[sr.To]
		if to == nil || snap.Users[sr.From] == nil {
			return state.Snapshot{}, fmt.Errorf("seed request %s -> %s references unknown user", sr.From, sr.To)
		}
		to.ConnectionRequests = append([]models.ConnectionRequest{{
			FromUserID: sr.From,
			Timestamp:  ago(sr.MinutesAgo),
			Status:     models.RequestPending,
		}}, to.ConnectionRequests...)
	}

	for i, sc := range f.Conversations {
		c := &models.Conversation{
			ID:           sc.ID,
			Type:         models.ConversationType(sc.Type),
			Name:         sc.Name,
			Participants: sc.Participants,
			Messages:     []models.Message{},
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("seed-%d", i+1)
		}
		for j, sm := range sc.Messages {
			msg := models.Message{
				ID:        fmt.Sprintf("%s-msg-%d", c.ID, j+1),
				SenderID:  sm.Sender,
				Timestamp: ago(sm.MinutesAgo),
				Kind:      models.MessageKind(sm.Type),
				Text:      sm.Text,
				URL:       sm.URL,
			}
			if err := msg.Validate(); err != nil {
				return state.Snapshot{}, fmt.Errorf("seed conversation %s: %w", c.ID, err)
			}
			c.Messages = append(c.Messages, msg)
		}
		if len(c.Messages) > 0 {
			c.CreatedAt = c.Messages[0].Timestamp
		} else {
			c.CreatedAt = now
		}
		snap.Conversations = append(snap.Conversations, c)
	}

	for i, sp := range f.Plots {
		p := &models.Plot{
			ID:           sp.ID,
			OwnerID:      sp.Owner,
			Name:         sp.Name,
			Coordinates:  sp.Coordinates,
			Crop:         models.Crop(sp.Crop),
			Size:         sp.Size,
			FarmingStage: models.FarmingStage(sp.Stage),
			CreatedAt:    now,
		}
		if p.ID == "" {
			p.ID = fmt.Sprintf("plot-%d", i+1)
		}
		if snap.Users[p.OwnerID] == nil {
			return state.Snapshot{}, fmt.Errorf("seed plot %s references unknown owner %q", p.ID, p.OwnerID)
		}
		if err := p.Validate(); err != nil {
			return state.Snapshot{}, fmt.Errorf("seed plot %s: %w", p.ID, err)
		}
		snap.Plots = append(snap.Plots, p)
	}

	for i, sp := range f.Products {
		p := &models.Product{
			ID:        sp.ID,
			SellerID:  sp.Seller,
			Name:      sp.Name,
			Price:     sp.Price,
			Unit:      sp.Unit,
			ImageURL:  sp.ImageURL,
			DateAdded: ago(sp.MinutesAgo),
		}
		if p.ID == "" {
			p.ID = fmt.Sprintf("product-%d", i+1)
		}
		if err := p.Validate(); err != nil {
			return state.Snapshot{}, fmt.Errorf("seed product %s: %w", p.ID, err)
		}
		snap.Products = append(snap.Products, p)
	}

	for i, sa := range f.Alerts {
		a := &models.Alert{
			ID:          sa.ID,
			Type:        models.AlertType(sa.Type),
			Title:       sa.Title,
			Description: sa.Description,
			Date:        ago(sa.MinutesAgo),
		}
		if a.ID == "" {
			a.ID = fmt.Sprintf("alert-%d", i+1)
		}
		if err := a.Validate(); err != nil {
			return state.Snapshot{}, fmt.Errorf("seed alert %s: %w", a.ID, err)
		}
		snap.Alerts = append(snap.Alerts, a)
	}

	for i, sp := range f.Posts {
		p := &models.Post{
			ID:        sp.ID,
			AuthorID:  sp.Author,
			Content:   sp.Content,
			ImageURL:  sp.ImageURL,
			Timestamp: ago(sp.MinutesAgo),
			LikedBy:   append([]string{}, sp.LikedBy...),
			Comments:  []models.Comment{},
		}
		if p.ID == "" {
			p.ID = fmt.Sprintf("post-%d", i+1)
		}
		p.Likes = len(p.LikedBy)
		for j, sc := range sp.Comments {
			p.Comments = append(p.Comments, models.Comment{
				ID:        fmt.Sprintf("%s-comment-%d", p.ID, j+1),
				AuthorID:  sc.Author,
				Content:   sc.Content,
				Timestamp: ago(sc.MinutesAgo),
			})
		}
		snap.Posts = append(snap.Posts, p)
	}

	return snap, nil
}
