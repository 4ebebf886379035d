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

type InterestService struct {
	db DB
}

func NewInterestService(db DB) *InterestService {
	return &InterestService{db: db}
}

// List returns the vocabulary, optionally narrowed by a prefix for typeahead.
func (s *InterestService) List(ctx context.Context, prefix string) ([]models.Interest, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name FROM interests
		 WHERE LOWER(name) LIKE $1
		 ORDER BY name`,
		strings.ToLower(strings.TrimSpace(prefix))+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("listing interests: %w", err)
	}
	defer rows.Close()

	interests := []models.Interest{}
	for rows.Next() {
		var i models.Interest
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, fmt.Errorf("scanning interest: %w", err)
		}
		interests = append(interests, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interests: %w", err)
	}
	return interests, nil
}

// resolveInterest finds the vocabulary entry matching name case-insensitively,
// creating it with the caller's spelling when absent. A concurrent insert of
// the same name loses the unique index and falls through to the re-read.
func resolveInterest(ctx context.Context, q Querier, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRow(ctx,
		`SELECT id FROM interests WHERE LOWER(name) = LOWER($1)`,
		name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("looking up interest %q: %w", name, err)
	}

	err = q.QueryRow(ctx,
		`INSERT INTO interests (name) VALUES ($1)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING id`,
		name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("creating interest %q: %w", name, err)
	}

	err = q.QueryRow(ctx,
		`SELECT id FROM interests WHERE LOWER(name) = LOWER($1)`,
		name,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("re-reading interest %q: %w", name, err)
	}
	return id, nil
}
