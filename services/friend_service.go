package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"linguaLinkAPI/internal/apperrors"
	"linguaLinkAPI/internal/friendrequest"
	"linguaLinkAPI/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FriendService struct {
	db *pgxpool.Pool
}

func NewFriendService(db *pgxpool.Pool) *FriendService {
	return &FriendService{db: db}
}

// SendRequest records a pending friend request from sender to recipient.
// The unordered pair may carry at most one request row at a time, in
// either direction and regardless of status.
func (s *FriendService) SendRequest(ctx context.Context, senderID, recipientID string) (*friendrequest.FriendRequest, error) {
	sender, err := uuid.Parse(senderID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", apperrors.ErrInvalidInput)
	}
	recipient, err := uuid.Parse(recipientID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid recipient id", apperrors.ErrInvalidInput)
	}

	if sender == recipient {
		return nil, fmt.Errorf("%w: you can't send friend request to yourself", apperrors.ErrInvalidInput)
	}

	var recipientExists bool
	err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, recipient).Scan(&recipientExists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up recipient: %w", err)
	}
	if !recipientExists {
		return nil, fmt.Errorf("%w: recipient not found", apperrors.ErrNotFound)
	}

	var alreadyFriends bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`,
		sender, recipient,
	).Scan(&alreadyFriends)
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if alreadyFriends {
		return nil, fmt.Errorf("%w: you are already friends with this user", apperrors.ErrConflict)
	}

	var requestExists bool
	err = s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE (sender_id = $1 AND recipient_id = $2)
			   OR (sender_id = $2 AND recipient_id = $1)
		)`, sender, recipient,
	).Scan(&requestExists)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing request: %w", err)
	}
	if requestExists {
		return nil, fmt.Errorf("%w: a friend request already exists between you and this user", apperrors.ErrConflict)
	}

	fr := &friendrequest.FriendRequest{
		ID:          uuid.New(),
		SenderID:    sender,
		RecipientID: recipient,
		Status:      friendrequest.StatusPending,
	}

	// The unique pair index backstops the existence check against
	// two requests racing past it.
	err = s.db.QueryRow(ctx, `
		INSERT INTO friend_requests (id, sender_id, recipient_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		fr.ID, fr.SenderID, fr.RecipientID, fr.Status,
	).Scan(&fr.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: a friend request already exists between you and this user", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	log.Printf("SendRequest: %s -> %s (request %s)", sender, recipient, fr.ID)
	return fr, nil
}

// AcceptRequest moves a pending request to accepted and creates the
// mirrored friendship rows. Only the recipient may accept. The status
// flip and both inserts run in one transaction: the conditional UPDATE
// serializes concurrent accepts, so the friends lists are either both
// updated or untouched.
func (s *FriendService) AcceptRequest(ctx context.Context, requestID, userID string) error {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return fmt.Errorf("%w: invalid request id", apperrors.ErrInvalidInput)
	}
	caller, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("%w: invalid user id", apperrors.ErrInvalidInput)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var senderID, recipientID uuid.UUID
	var status friendrequest.Status
	err = tx.QueryRow(ctx,
		`SELECT sender_id, recipient_id, status FROM friend_requests WHERE id = $1`,
		reqID,
	).Scan(&senderID, &recipientID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: friend request not found", apperrors.ErrNotFound)
		}
		return fmt.Errorf("failed to get friend request: %w", err)
	}

	if recipientID != caller {
		return fmt.Errorf("%w: you are not authorized to accept this request", apperrors.ErrForbidden)
	}
	if status == friendrequest.StatusAccepted {
		return fmt.Errorf("%w: friend request already accepted", apperrors.ErrConflict)
	}

	// Conditional flip: of two concurrent accepts, only one sees the
	// pending row.
	tag, err := tx.Exec(ctx,
		`UPDATE friend_requests SET status = $1 WHERE id = $2 AND status = $3`,
		friendrequest.StatusAccepted, reqID, friendrequest.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to accept friend request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: friend request already accepted", apperrors.ErrConflict)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2), ($2, $1)
		 ON CONFLICT (user_id, friend_id) DO NOTHING`,
		senderID, recipientID,
	)
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("AcceptRequest: request %s accepted, %s and %s are now friends", reqID, senderID, recipientID)
	return nil
}

// ListRequests returns pending requests addressed to the user (sender
// profile resolved) and accepted requests the user sent or received.
func (s *FriendService) ListRequests(ctx context.Context, userID string) (*friendrequest.RequestsResponse, error) {
	incomingQuery := `
	SELECT fr.id, fr.sender_id, fr.recipient_id, fr.status, fr.created_at,
	       u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language, u.location
	FROM friend_requests fr
	INNER JOIN users u ON u.id = fr.sender_id
	WHERE fr.recipient_id = $1 AND fr.status = $2
	ORDER BY fr.created_at DESC
	`

	incoming, err := s.queryIncoming(ctx, incomingQuery, userID, friendrequest.StatusPending)
	if err != nil {
		return nil, err
	}

	acceptedQuery := `
	SELECT fr.id, fr.sender_id, fr.recipient_id, fr.status, fr.created_at,
	       u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language, u.location
	FROM friend_requests fr
	INNER JOIN users u ON u.id = fr.recipient_id
	WHERE fr.sender_id = $1 AND fr.status = $2
	ORDER BY fr.created_at DESC
	`

	accepted, err := s.queryOutgoing(ctx, acceptedQuery, userID, friendrequest.StatusAccepted)
	if err != nil {
		return nil, err
	}

	return &friendrequest.RequestsResponse{
		IncomingReqs: incoming,
		AcceptedReqs: accepted,
	}, nil
}

// ListOutgoing returns every request the user has sent, any status.
func (s *FriendService) ListOutgoing(ctx context.Context, userID string) ([]*friendrequest.OutgoingRequest, error) {
	query := `
	SELECT fr.id, fr.sender_id, fr.recipient_id, fr.status, fr.created_at,
	       u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language, u.location
	FROM friend_requests fr
	INNER JOIN users u ON u.id = fr.recipient_id
	WHERE fr.sender_id = $1
	ORDER BY fr.created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outgoing requests: %w", err)
	}
	defer rows.Close()

	return scanOutgoing(rows)
}

func (s *FriendService) queryIncoming(ctx context.Context, query string, args ...any) ([]*friendrequest.IncomingRequest, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friend requests: %w", err)
	}
	defer rows.Close()

	reqs := []*friendrequest.IncomingRequest{}
	for rows.Next() {
		r := &friendrequest.IncomingRequest{Sender: &user.Summary{}}
		if err := rows.Scan(
			&r.ID, &r.SenderID, &r.RecipientID, &r.Status, &r.CreatedAt,
			&r.Sender.ID, &r.Sender.FullName, &r.Sender.ProfilePic,
			&r.Sender.NativeLanguage, &r.Sender.LearningLanguage, &r.Sender.Location,
		); err != nil {
			return nil, fmt.Errorf("failed to scan friend request: %w", err)
		}
		reqs = append(reqs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reqs, nil
}

func (s *FriendService) queryOutgoing(ctx context.Context, query string, args ...any) ([]*friendrequest.OutgoingRequest, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friend requests: %w", err)
	}
	defer rows.Close()

	return scanOutgoing(rows)
}

func scanOutgoing(rows pgx.Rows) ([]*friendrequest.OutgoingRequest, error) {
	reqs := []*friendrequest.OutgoingRequest{}
	for rows.Next() {
		r := &friendrequest.OutgoingRequest{Recipient: &user.Summary{}}
		if err := rows.Scan(
			&r.ID, &r.SenderID, &r.RecipientID, &r.Status, &r.CreatedAt,
			&r.Recipient.ID, &r.Recipient.FullName, &r.Recipient.ProfilePic,
			&r.Recipient.NativeLanguage, &r.Recipient.LearningLanguage, &r.Recipient.Location,
		); err != nil {
			return nil, fmt.Errorf("failed to scan friend request: %w", err)
		}
		reqs = append(reqs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reqs, nil
}
