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
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
)

const userSelectColumns = `id, username, email, password_hash, gender, first_name, last_name,
	 location, about, avatar_url, is_pro, created_at, updated_at`

type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

func scanUser(row Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Gender,
		&user.FirstName, &user.LastName, &user.Location, &user.About, &user.AvatarURL,
		&user.IsPro, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	var emailExists bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))",
		params.Email,
	).Scan(&emailExists)
	if err != nil {
		return nil, fmt.Errorf("checking email existence: %w", err)
	}
	if emailExists {
		return nil, ErrEmailAlreadyExists
	}

	var usernameExists bool
	err = s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))",
		params.Username,
	).Scan(&usernameExists)
	if err != nil {
		return nil, fmt.Errorf("checking username existence: %w", err)
	}
	if usernameExists {
		return nil, ErrUsernameAlreadyExists
	}

	return scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, gender, first_name, last_name)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userSelectColumns,
		params.Username, params.Email, params.PasswordHash, params.Gender, params.FirstName, params.LastName,
	))
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.db.QueryRow(ctx,
		`SELECT `+userSelectColumns+` FROM users WHERE id = $1`, id))
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRow(ctx,
		`SELECT `+userSelectColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.db.QueryRow(ctx,
		`SELECT `+userSelectColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username))
}

func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		newPasswordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetPro toggles the pro flag, lifting or restoring the friend ceiling.
func (s *UserService) SetPro(ctx context.Context, userID uuid.UUID, isPro bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET is_pro = $1, updated_at = NOW() WHERE id = $2`,
		isPro, userID,
	)
	if err != nil {
		return fmt.Errorf("updating pro status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateProfile applies the provided fields and, when Interests is non-nil,
// replaces the user's interest set in the same transaction.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, params models.UpdateProfileParams) (*models.User, error) {
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

	user, err := scanUser(tx.QueryRow(ctx,
		`SELECT `+userSelectColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID))
	if err != nil {
		return nil, err
	}

	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}
	if params.Location != nil {
		user.Location = params.Location
	}
	if params.About != nil {
		user.About = params.About
	}
	if params.AvatarURL != nil {
		user.AvatarURL = params.AvatarURL
	}

	err = tx.QueryRow(ctx,
		`UPDATE users
		 SET first_name = $2, last_name = $3, location = $4, about = $5, avatar_url = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		userID, user.FirstName, user.LastName, user.Location, user.About, user.AvatarURL,
	).Scan(&user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	if params.Interests != nil {
		_, err = tx.Exec(ctx, `DELETE FROM user_interests WHERE user_id = $1`, userID)
		if err != nil {
			return nil, fmt.Errorf("clearing interests: %w", err)
		}
		for _, name := range normalizeTypeNames(params.Interests) {
			interestID, err := resolveInterest(ctx, tx, name)
			if err != nil {
				return nil, err
			}
			_, err = tx.Exec(ctx,
				`INSERT INTO user_interests (user_id, interest_id) VALUES ($1, $2)
				 ON CONFLICT DO NOTHING`,
				userID, interestID,
			)
			if err != nil {
				return nil, fmt.Errorf("linking interest %q: %w", name, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing profile update: %w", err)
	}
	committed = true
	return user, nil
}

// Profile assembles the public view of an account, interests included.
// Profile assembles the public profile view. viewerID may be uuid.Nil for an
// anonymous request; a known viewer additionally gets their friendship
// standing with the owner and the id of the connecting row, so a pending
// request can be acted on straight from the profile.
func (s *UserService) Profile(ctx context.Context, userID, viewerID uuid.UUID) (*models.UserProfile, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT i.name FROM user_interests ui
		 JOIN interests i ON ui.interest_id = i.id
		 WHERE ui.user_id = $1
		 ORDER BY i.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing user interests: %w", err)
	}
	defer rows.Close()

	interests := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning interest: %w", err)
		}
		interests = append(interests, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interests: %w", err)
	}

	profile := &models.UserProfile{
		ID:               user.ID,
		Username:         user.Username,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Gender:           user.Gender,
		Location:         user.Location,
		About:            user.About,
		AvatarURL:        user.AvatarURL,
		IsPro:            user.IsPro,
		Interests:        interests,
		FriendshipStatus: models.ProfileFriendshipNone,
		CreatedAt:        user.CreatedAt,
	}

	if viewerID == userID {
		profile.FriendshipStatus = models.ProfileFriendshipSelf
		return profile, nil
	}
	if viewerID == uuid.Nil {
		return profile, nil
	}

	var friendshipID, senderID uuid.UUID
	var status models.FriendshipStatus
	err = s.db.QueryRow(ctx,
		`SELECT id, user_one_id, status FROM friendships
		 WHERE ((user_one_id = $1 AND user_two_id = $2) OR (user_one_id = $2 AND user_two_id = $1))
		   AND status IN ($3, $4)`,
		viewerID, userID, models.FriendshipStatusPending, models.FriendshipStatusAccepted,
	).Scan(&friendshipID, &senderID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving friendship status: %w", err)
	}

	profile.RelatedFriendshipID = &friendshipID
	switch {
	case status == models.FriendshipStatusAccepted:
		profile.FriendshipStatus = models.ProfileFriendshipFriends
	case senderID == viewerID:
		profile.FriendshipStatus = models.ProfileFriendshipRequestSent
	default:
		profile.FriendshipStatus = models.ProfileFriendshipRequestReceived
	}
	return profile, nil
}

// Search runs the paged account search over name, gender, location and
// interest criteria.
func (s *UserService) Search(ctx context.Context, criteria models.UserSearchCriteria, page models.PageRequest) (*models.UserSearchPage, error) {
	page = page.Sanitize()

	conds := []string{"TRUE"}
	args := []any{}

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if criteria.ExcludeUserID != uuid.Nil {
		conds = append(conds, fmt.Sprintf("u.id <> %s", next(criteria.ExcludeUserID)))
	}
	if term := strings.TrimSpace(criteria.SearchTerm); term != "" {
		p := next("%" + strings.ToLower(term) + "%")
		conds = append(conds, fmt.Sprintf(
			"(LOWER(u.username) LIKE %s OR LOWER(u.first_name) LIKE %s OR LOWER(u.last_name) LIKE %s)", p, p, p))
	}
	if len(criteria.Genders) > 0 {
		genders := make([]string, len(criteria.Genders))
		for i, g := range criteria.Genders {
			genders[i] = string(g)
		}
		p := next(genders)
		conds = append(conds, fmt.Sprintf("u.gender = ANY(%s)", p))
	}
	if loc := strings.TrimSpace(criteria.Location); loc != "" {
		p := next(strings.ToLower(loc))
		conds = append(conds, fmt.Sprintf("LOWER(u.location) = %s", p))
	}
	if len(criteria.Interests) > 0 {
		lowered := make([]string, len(criteria.Interests))
		for i, name := range criteria.Interests {
			lowered[i] = strings.ToLower(name)
		}
		p := next(lowered)
		conds = append(conds, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM user_interests ui JOIN interests i ON ui.interest_id = i.id
			         WHERE ui.user_id = u.id AND LOWER(i.name) = ANY(%s))`, p))
	}

	where := strings.Join(conds, " AND ")

	var total int
	err := s.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM users u WHERE %s`, where),
		args...,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}

	limit := next(page.Size)
	offset := next(page.Offset())
	rows, err := s.db.Query(ctx,
		fmt.Sprintf(
			`SELECT u.id, u.username, u.first_name, u.last_name, u.location, u.avatar_url
			 FROM users u
			 WHERE %s
			 ORDER BY u.username
			 LIMIT %s OFFSET %s`, where, limit, offset),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	defer rows.Close()

	users := []models.UserSearchResult{}
	for rows.Next() {
		var u models.UserSearchResult
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Location, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	return &models.UserSearchPage{
		Users:      users,
		Total:      total,
		Page:       page.Page,
		Size:       page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}
