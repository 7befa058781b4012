package models

import "time"

// RequestStatus is the lifecycle state of a connection request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// ConnectionRequest is a request received in a user's inbox.
// Only pending requests may transition; accepted and rejected are terminal.
type ConnectionRequest struct {
	FromUserID string        `json:"fromUserId"`
	Timestamp  time.Time     `json:"timestamp"`
	Status     RequestStatus `json:"status"`
}

// ConnectionRequestWithUser includes the sender's public profile
type ConnectionRequestWithUser struct {
	ConnectionRequest
	From UserResponse `json:"from"`
}
