package friendrequest

import (
	"time"

	"linguaLinkAPI/internal/user"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
)

type FriendRequest struct {
	ID          uuid.UUID `json:"id"`
	SenderID    uuid.UUID `json:"senderId"`
	RecipientID uuid.UUID `json:"recipientId"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IncomingRequest is a pending request addressed to the caller, with the
// sender's public profile resolved for display.
type IncomingRequest struct {
	FriendRequest
	Sender *user.Summary `json:"sender"`
}

// OutgoingRequest is a request the caller sent, any status, with the
// recipient's public profile resolved. The client uses these to disable
// duplicate "send request" actions.
type OutgoingRequest struct {
	FriendRequest
	Recipient *user.Summary `json:"recipient"`
}

// RequestsResponse is the payload of the friend-requests listing: pending
// requests addressed to the caller plus accepted ones involving them.
type RequestsResponse struct {
	IncomingReqs []*IncomingRequest `json:"incomingReqs"`
	AcceptedReqs []*OutgoingRequest `json:"acceptedReqs"`
}
