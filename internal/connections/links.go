package connections

import (
	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/state"
	"ubuhinzi360/server/internal/utils"
)

// RequestConnection sends a request from currentID to toID after the
// eligibility checks every caller applies.
func (s *Service) RequestConnection(currentID, toID string) (models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := s.state.Update(func(tx *state.Tx) error {
		if tx.User(currentID) == nil {
			return ErrUserNotFound
		}
		if currentID == toID {
			return ErrSelfRequest
		}
		target := tx.User(toID)
		if target == nil {
			return ErrUserNotFound
		}
		if err := checkEligible(tx, currentID, target); err != nil {
			return err
		}

		var err error
		req, err = sendRequest(tx, currentID, toID)
		return err
	})
	if err != nil {
		return models.ConnectionRequest{}, err
	}
	s.requestSent(currentID, toID, req)
	return req, nil
}

// ConnectWithLink resolves a pasted profile link and sends a request to its
// owner. Checks run in order: own link, unknown or inactive or expired
// link, blocked or previously rejected, already connected.
func (s *Service) ConnectWithLink(currentID, link string) (models.ConnectionRequest, models.UserResponse, error) {
	token := utils.ParseLinkToken(link)

	var req models.ConnectionRequest
	var target models.UserResponse
	err := s.state.Update(func(tx *state.Tx) error {
		if tx.User(currentID) == nil {
			return ErrUserNotFound
		}

		owner := tx.UserByLinkToken(token)
		if owner != nil && owner.ID == currentID {
			return ErrSelfRequest
		}
		if owner == nil || !owner.IsLinkActive || owner.LinkExpired(tx.Now()) {
			return ErrInvalidLink
		}
		if err := checkEligible(tx, currentID, owner); err != nil {
			return err
		}

		var err error
		req, err = sendRequest(tx, currentID, owner.ID)
		target = owner.ToResponse()
		return err
	})
	if err != nil {
		return models.ConnectionRequest{}, models.UserResponse{}, err
	}
	s.requestSent(currentID, target.ID, req)
	return req, target, nil
}

func checkEligible(tx *state.Tx, currentID string, target *models.User) error {
	current := tx.User(currentID)
	if target.HasRejected(currentID) || target.HasBlocked(currentID) || current.HasBlocked(target.ID) {
		return ErrRequestBlocked
	}
	if tx.FindExistingDirectConversation(currentID, target.ID) != nil {
		return ErrAlreadyConnected
	}
	return nil
}
