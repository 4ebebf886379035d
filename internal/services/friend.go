package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/groupmeet/groupmeet/internal/models"
)

var (
	ErrFriendRequestNotFound   = errors.New("friend request not found")
	ErrInvalidRequestOperation = errors.New("this friend request cannot be processed by you")
	ErrCannotFriendSelf        = errors.New("you cannot send a friend request to yourself")
	ErrCannotUnfriendSelf      = errors.New("you cannot remove yourself from your friends")
	ErrAlreadyFriends          = errors.New("you are already friends with this user")
	ErrRequestAlreadySent      = errors.New("you have already sent a friend request to this user")
	ErrRequestAlreadyReceived  = errors.New("this user has already sent you a friend request")
	ErrFriendshipBlocked       = errors.New("a friend request cannot be sent to this user")
	ErrFriendLimitReached      = errors.New("you have reached the maximum number of friends")
	ErrPeerFriendLimitReached  = errors.New("this user has reached the maximum number of friends")
	ErrNotFriends              = errors.New("you are not friends with this user")
)

// maxFriendsForFreeUser caps the accepted-friend count for non-pro accounts.
const maxFriendsForFreeUser = 10

type FriendService struct {
	db DB
}

func NewFriendService(db DB) *FriendService {
	return &FriendService{db: db}
}

// SendRequest creates a pending friendship from sender to recipient. A
// declined marker for the pair is superseded by the new request; a blocked
// marker rejects it. The pair's existing rows are locked for the duration so
// two crossing requests cannot both land, and the partial unique index on
// live rows backstops the race on first contact.
func (s *FriendService) SendRequest(ctx context.Context, senderID, recipientID uuid.UUID) (*models.Friendship, error) {
	if senderID == recipientID {
		return nil, ErrCannotFriendSelf
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := requireUserExists(ctx, tx, recipientID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx,
		`SELECT id, user_one_id, status FROM friendships
		 WHERE LEAST(user_one_id, user_two_id) = LEAST($1, $2)
		   AND GREATEST(user_one_id, user_two_id) = GREATEST($1, $2)
		 FOR UPDATE`,
		senderID, recipientID,
	)
	if err != nil {
		return nil, fmt.Errorf("locking friendship pair: %w", err)
	}

	type pairRow struct {
		id        uuid.UUID
		userOneID uuid.UUID
		status    models.FriendshipStatus
	}
	var existing []pairRow
	for rows.Next() {
		var r pairRow
		if err := rows.Scan(&r.id, &r.userOneID, &r.status); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning friendship: %w", err)
		}
		existing = append(existing, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friendships: %w", err)
	}

	for _, r := range existing {
		switch r.status {
		case models.FriendshipStatusAccepted:
			return nil, ErrAlreadyFriends
		case models.FriendshipStatusBlocked:
			return nil, ErrFriendshipBlocked
		case models.FriendshipStatusPending:
			if r.userOneID == senderID {
				return nil, ErrRequestAlreadySent
			}
			return nil, ErrRequestAlreadyReceived
		}
	}

	// Only declined markers remain; the new request supersedes them.
	for _, r := range existing {
		if r.status == models.FriendshipStatusDeclined {
			_, err = tx.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, r.id)
			if err != nil {
				return nil, fmt.Errorf("removing declined marker: %w", err)
			}
		}
	}

	if err := checkFriendCapacity(ctx, tx, senderID, ErrFriendLimitReached); err != nil {
		return nil, err
	}
	if err := checkFriendCapacity(ctx, tx, recipientID, ErrPeerFriendLimitReached); err != nil {
		return nil, err
	}

	friendship := &models.Friendship{}
	err = tx.QueryRow(ctx,
		`INSERT INTO friendships (user_one_id, user_two_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING
		 RETURNING id, user_one_id, user_two_id, status, created_at`,
		senderID, recipientID, models.FriendshipStatusPending,
	).Scan(&friendship.ID, &friendship.UserOneID, &friendship.UserTwoID, &friendship.Status, &friendship.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// A concurrent live row for the pair won the index.
		return nil, ErrRequestAlreadySent
	}
	if err != nil {
		return nil, fmt.Errorf("creating friend request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing friend request: %w", err)
	}
	committed = true
	return friendship, nil
}

// Accept turns the pending request identified by requestID into a
// friendship. The row must still be pending and the caller must be its
// recipient; a sender accepting their own outgoing request is an invalid
// operation, not a missing row. Both sides' capacity is checked again: it
// may have filled since the request was sent.
func (s *FriendService) Accept(ctx context.Context, userID, requestID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	req, err := lockFriendRequest(ctx, tx, requestID)
	if err != nil {
		return err
	}
	if req.status != models.FriendshipStatusPending || req.userTwoID != userID {
		return ErrInvalidRequestOperation
	}

	if err := checkFriendCapacity(ctx, tx, userID, ErrFriendLimitReached); err != nil {
		return err
	}
	if err := checkFriendCapacity(ctx, tx, req.userOneID, ErrPeerFriendLimitReached); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE friendships SET status = $2 WHERE id = $1`,
		requestID, models.FriendshipStatusAccepted,
	)
	if err != nil {
		return fmt.Errorf("accepting friend request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing acceptance: %w", err)
	}
	committed = true
	return nil
}

// RejectOrWithdraw deletes the pending request identified by requestID. The
// recipient rejecting and the sender withdrawing are the same operation, so
// either party may call it; anyone else gets an invalid operation error.
func (s *FriendService) RejectOrWithdraw(ctx context.Context, userID, requestID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	req, err := lockFriendRequest(ctx, tx, requestID)
	if err != nil {
		return err
	}
	if req.status != models.FriendshipStatusPending ||
		(req.userOneID != userID && req.userTwoID != userID) {
		return ErrInvalidRequestOperation
	}

	_, err = tx.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("deleting friend request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing removal: %w", err)
	}
	committed = true
	return nil
}

type friendRequestRow struct {
	userOneID uuid.UUID
	userTwoID uuid.UUID
	status    models.FriendshipStatus
}

func lockFriendRequest(ctx context.Context, tx Tx, requestID uuid.UUID) (*friendRequestRow, error) {
	var req friendRequestRow
	err := tx.QueryRow(ctx,
		`SELECT user_one_id, user_two_id, status FROM friendships
		 WHERE id = $1
		 FOR UPDATE`,
		requestID,
	).Scan(&req.userOneID, &req.userTwoID, &req.status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFriendRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("locking friend request: %w", err)
	}
	return &req, nil
}

// RemoveFriend deletes the accepted friendship between the two users,
// leaving the pair free for a fresh request in either direction.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	if userID == friendID {
		return ErrCannotUnfriendSelf
	}

	tag, err := s.db.Exec(ctx,
		`DELETE FROM friendships
		 WHERE status = $3
		   AND ((user_one_id = $1 AND user_two_id = $2) OR (user_one_id = $2 AND user_two_id = $1))`,
		userID, friendID, models.FriendshipStatusAccepted,
	)
	if err != nil {
		return fmt.Errorf("deleting friendship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFriends
	}
	return nil
}

// ListFriends pages through the user's accepted friendships, optionally
// filtered by a name or username term matched against the other party.
func (s *FriendService) ListFriends(ctx context.Context, userID uuid.UUID, searchTerm string, page models.PageRequest) (*models.FriendsPage, error) {
	page = page.Sanitize()
	term := "%" + strings.ToLower(strings.TrimSpace(searchTerm)) + "%"

	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.user_one_id = $1 THEN f.user_two_id ELSE f.user_one_id END
		 WHERE f.status = $2
		   AND (f.user_one_id = $1 OR f.user_two_id = $1)
		   AND (LOWER(u.username) LIKE $3 OR LOWER(u.first_name) LIKE $3 OR LOWER(u.last_name) LIKE $3)`,
		userID, models.FriendshipStatusAccepted, term,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("counting friends: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT f.id, u.id, u.username, u.first_name, u.last_name, u.avatar_url, f.created_at
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.user_one_id = $1 THEN f.user_two_id ELSE f.user_one_id END
		 WHERE f.status = $2
		   AND (f.user_one_id = $1 OR f.user_two_id = $1)
		   AND (LOWER(u.username) LIKE $3 OR LOWER(u.first_name) LIKE $3 OR LOWER(u.last_name) LIKE $3)
		 ORDER BY u.first_name, u.last_name
		 LIMIT $4 OFFSET $5`,
		userID, models.FriendshipStatusAccepted, term, page.Size, page.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()

	friends := []models.Friend{}
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.FriendshipID, &f.UserID, &f.Username, &f.FirstName, &f.LastName, &f.AvatarURL, &f.FriendsSince); err != nil {
			return nil, fmt.Errorf("scanning friend: %w", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friends: %w", err)
	}

	return &models.FriendsPage{
		Friends:    friends,
		Total:      total,
		Page:       page.Page,
		Size:       page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}

// ListIncomingRequests pages through pending requests where the user is the
// recipient, newest first.
func (s *FriendService) ListIncomingRequests(ctx context.Context, userID uuid.UUID, page models.PageRequest) (*models.FriendRequestsPage, error) {
	page = page.Sanitize()

	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM friendships WHERE user_two_id = $1 AND status = $2`,
		userID, models.FriendshipStatusPending,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("counting friend requests: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT f.id, u.id, u.username, u.first_name, u.last_name, u.avatar_url, f.created_at
		 FROM friendships f
		 JOIN users u ON u.id = f.user_one_id
		 WHERE f.user_two_id = $1 AND f.status = $2
		 ORDER BY f.created_at DESC
		 LIMIT $3 OFFSET $4`,
		userID, models.FriendshipStatusPending, page.Size, page.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing friend requests: %w", err)
	}
	defer rows.Close()

	requests := []models.FriendRequest{}
	for rows.Next() {
		var r models.FriendRequest
		if err := rows.Scan(&r.ID, &r.SenderID, &r.SenderUsername, &r.SenderFirstName, &r.SenderLastName, &r.SenderAvatarURL, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning friend request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friend requests: %w", err)
	}

	return &models.FriendRequestsPage{
		Requests:   requests,
		Total:      total,
		Page:       page.Page,
		Size:       page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}

// checkFriendCapacity fails with atLimit when the user is free-tier and
// already at the friend ceiling. Pro users are exempt.
func checkFriendCapacity(ctx context.Context, q Querier, userID uuid.UUID, atLimit error) error {
	var isPro bool
	err := q.QueryRow(ctx,
		`SELECT is_pro FROM users WHERE id = $1`,
		userID,
	).Scan(&isPro)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("checking pro status: %w", err)
	}
	if isPro {
		return nil
	}

	var count int
	err = q.QueryRow(ctx,
		`SELECT COUNT(*) FROM friendships
		 WHERE status = $2 AND (user_one_id = $1 OR user_two_id = $1)`,
		userID, models.FriendshipStatusAccepted,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("counting accepted friendships: %w", err)
	}
	if count >= maxFriendsForFreeUser {
		return atLimit
	}
	return nil
}
