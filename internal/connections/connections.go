// Package connections implements the connection request workflow: how two
// users become connected and how acceptance opens a direct conversation.
package connections

import (
	"errors"
	"log/slog"

	"ubuhinzi360/server/internal/i18n"
	"ubuhinzi360/server/internal/metrics"
	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/state"
)

var (
	ErrUserNotFound     = state.ErrUserNotFound
	ErrRequestPending   = errors.New("a pending request from this user already exists")
	ErrNoPendingRequest = errors.New("no pending request from this user")
	ErrSelfRequest      = errors.New("cannot send a connection request to yourself")
	ErrInvalidLink      = errors.New("invalid or inactive profile link")
	ErrRequestBlocked   = errors.New("connection request is blocked")
	ErrAlreadyConnected = errors.New("already connected with this user")
)

// Live event types
const (
	EventRequestReceived = "connection_request"
	EventRequestAccepted = "connection_accepted"
)

// Publisher delivers live events to connected users
type Publisher interface {
	Publish(userIDs []string, eventType string, payload any)
}

// Service runs the connection request workflow over the shared state
type Service struct {
	state  *state.State
	events Publisher
	logger *slog.Logger
}

// NewService creates a workflow service. events may be nil.
func NewService(st *state.State, events Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{state: st, events: events, logger: logger}
}

func (s *Service) publish(userIDs []string, eventType string, payload any) {
	if s.events != nil {
		s.events.Publish(userIDs, eventType, payload)
	}
}

// SendRequest prepends a pending request from fromID to toID's inbox. It
// only checks that toID exists and that no request from fromID is already
// pending; eligibility checks belong to RequestConnection and ConnectWithLink.
func (s *Service) SendRequest(fromID, toID string) (models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := s.state.Update(func(tx *state.Tx) error {
		var err error
		req, err = sendRequest(tx, fromID, toID)
		return err
	})
	if err != nil {
		return models.ConnectionRequest{}, err
	}
	s.requestSent(fromID, toID, req)
	return req, nil
}

func sendRequest(tx *state.Tx, fromID, toID string) (models.ConnectionRequest, error) {
	to := tx.User(toID)
	if to == nil {
		return models.ConnectionRequest{}, ErrUserNotFound
	}
	for _, r := range to.ConnectionRequests {
		if r.FromUserID == fromID && r.Status == models.RequestPending {
			return models.ConnectionRequest{}, ErrRequestPending
		}
	}

	req := models.ConnectionRequest{
		FromUserID: fromID,
		Timestamp:  tx.Now(),
		Status:     models.RequestPending,
	}
	err := tx.MutateUser(toID, func(u *models.User) {
		u.ConnectionRequests = append([]models.ConnectionRequest{req}, u.ConnectionRequests...)
	})
	return req, err
}

func (s *Service) requestSent(fromID, toID string, req models.ConnectionRequest) {
	metrics.ConnectionRequests.WithLabelValues("sent").Inc()
	s.logger.Info("connection request sent", "from", fromID, "to", toID)

	payload := models.ConnectionRequestWithUser{ConnectionRequest: req}
	if from, ok := s.state.User(fromID); ok {
		payload.From = from.ToResponse()
	}
	s.publish([]string{toID}, EventRequestReceived, payload)
}

// AcceptRequest accepts the pending request from fromID in currentID's
// inbox and opens a dm seeded with a system notice. If the pair already
// shares a dm the notice is appended there instead. An unknown sender is
// a silent no-op that returns a nil conversation and no error.
func (s *Service) AcceptRequest(currentID, fromID string) (*models.Conversation, error) {
	var (
		convo   *models.Conversation
		created bool
	)
	err := s.state.Update(func(tx *state.Tx) error {
		current := tx.User(currentID)
		if current == nil {
			return ErrUserNotFound
		}
		from := tx.User(fromID)
		if from == nil {
			return nil
		}

		idx := pendingIndex(current, fromID)
		if idx < 0 {
			return ErrNoPendingRequest
		}

		tr := i18n.For(tx.Settings(currentID).Language)
		notice := models.Message{
			SenderID: models.SystemSenderID,
			Kind:     models.KindSystem,
			Text:     tr.Connected(from.Name),
		}
		c := tx.FindExistingDirectConversation(currentID, fromID)
		if c != nil {
			if _, _, err := tx.AppendMessage(c.ID, notice); err != nil {
				return err
			}
		} else {
			var err error
			c, err = tx.CreateConversation([]string{currentID, fromID}, models.ConversationDM, "", &notice)
			if err != nil {
				return err
			}
			created = true
		}

		if err := tx.MutateUser(currentID, func(u *models.User) {
			u.ConnectionRequests[idx].Status = models.RequestAccepted
		}); err != nil {
			return err
		}
		convo = c.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if convo == nil {
		s.logger.Debug("accept ignored for unknown sender", "user", currentID, "from", fromID)
		return nil, nil
	}

	metrics.ConnectionRequests.WithLabelValues("accepted").Inc()
	if created {
		metrics.ConversationsCreated.WithLabelValues(string(models.ConversationDM)).Inc()
	}
	s.logger.Info("connection request accepted", "user", currentID, "from", fromID, "conversation", convo.ID)
	s.publish([]string{currentID, fromID}, EventRequestAccepted, convo)
	return convo, nil
}

// RejectRequest rejects the pending request from fromID, if any, and
// records fromID in the current user's rejected set. Calling it again is
// harmless: there is no pending request left and the set already holds fromID.
func (s *Service) RejectRequest(currentID, fromID string) error {
	var rejected bool
	err := s.state.Update(func(tx *state.Tx) error {
		current := tx.User(currentID)
		if current == nil {
			return ErrUserNotFound
		}

		idx := pendingIndex(current, fromID)
		if idx < 0 && current.HasRejected(fromID) {
			return nil
		}
		rejected = idx >= 0

		return tx.MutateUser(currentID, func(u *models.User) {
			if idx >= 0 {
				u.ConnectionRequests[idx].Status = models.RequestRejected
			}
			u.RejectedUserIDs = models.AddUnique(u.RejectedUserIDs, fromID)
		})
	})
	if err != nil {
		return err
	}

	if rejected {
		metrics.ConnectionRequests.WithLabelValues("rejected").Inc()
		s.logger.Info("connection request rejected", "user", currentID, "from", fromID)
	}
	return nil
}

// PendingRequests lists the pending requests in userID's inbox, newest
// first. Requests from unknown users are left out.
func (s *Service) PendingRequests(userID string) ([]models.ConnectionRequestWithUser, error) {
	return s.requests(userID, func(r models.ConnectionRequest) bool {
		return r.Status == models.RequestPending
	})
}

// RequestHistory lists accepted and rejected requests in userID's inbox
func (s *Service) RequestHistory(userID string) ([]models.ConnectionRequestWithUser, error) {
	return s.requests(userID, func(r models.ConnectionRequest) bool {
		return r.Status != models.RequestPending
	})
}

func (s *Service) requests(userID string, keep func(models.ConnectionRequest) bool) ([]models.ConnectionRequestWithUser, error) {
	out := []models.ConnectionRequestWithUser{}
	err := s.state.View(func(tx *state.Tx) error {
		u := tx.User(userID)
		if u == nil {
			return ErrUserNotFound
		}
		for _, r := range u.ConnectionRequests {
			if !keep(r) {
				continue
			}
			from := tx.User(r.FromUserID)
			if from == nil {
				continue
			}
			out = append(out, models.ConnectionRequestWithUser{
				ConnectionRequest: r,
				From:              from.ToResponse(),
			})
		}
		return nil
	})
	return out, err
}

func pendingIndex(u *models.User, fromID string) int {
	for i, r := range u.ConnectionRequests {
		if r.FromUserID == fromID && r.Status == models.RequestPending {
			return i
		}
	}
	return -1
}
