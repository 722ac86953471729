package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/ordering"
)

const kindProfile ordering.Kind = "profile"

// GetProfile retrieves the profile for a user id.
func (s *SQLStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := s.lookup(ctx, &p, kindProfile, id,
		"SELECT id, email, full_name, avatar_url FROM profiles WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureProfile inserts p unless a profile with the same id exists. It
// reports whether a row was created. A concurrent insert of the same id
// counts as already existing.
func (s *SQLStore) EnsureProfile(ctx context.Context, p model.Profile) (bool, error) {
	if p.ID == "" {
		return false, ordering.Invalid("id", "profile id must not be empty")
	}

	var existing string
	err := s.get(ctx, &existing, "SELECT id FROM profiles WHERE id = ?", p.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, ordering.Transient("checking profile", err)
	}

	now := time.Now().UTC()
	_, err = s.exec(ctx, `
		INSERT INTO profiles (id, email, full_name, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.FullName, p.AvatarURL, now, now,
	)
	if s.dialect.isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, ordering.Transient("creating profile", err)
	}
	return true, nil
}
