package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

// ProfileRepository stores the local mirror of identity-provider users.
type ProfileRepository interface {
	// Ensure inserts the profile if its id is new and returns the stored row.
	Ensure(ctx context.Context, p *models.Profile) (*models.Profile, error)
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	List(ctx context.Context) ([]*models.Profile, error)
	UpdatePreferences(ctx context.Context, p *models.Profile) error

	// Telegram helpers
	UpdateTelegramLink(ctx context.Context, userID string, chatID int64, enable bool) error
	GetByChatID(ctx context.Context, chatID int64) (*models.Profile, error)
}

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, email, full_name, role, avatar_url, telegram_chat_id,
	notify_email, notify_telegram, created_at, updated_at`

func scanProfile(s scanner) (*models.Profile, error) {
	p := &models.Profile{}
	if err := s.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.AvatarURL, &p.TelegramChatID,
		&p.NotifyEmail, &p.NotifyTelegram, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) Ensure(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if !validID(p.ID) {
		return nil, ErrNotFound
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Email, p.FullName, p.Role, p.AvatarURL, p.TelegramChatID,
		p.NotifyEmail, p.NotifyTelegram, now, now)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return r.GetByID(ctx, p.ID)
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	p, err := scanProfile(r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *profileRepository) List(ctx context.Context) ([]*models.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY full_name NULLS LAST, email`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := []*models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *profileRepository) UpdatePreferences(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET full_name=$1, avatar_url=$2, notify_email=$3, notify_telegram=$4, updated_at=$5
		WHERE id=$6`,
		p.FullName, p.AvatarURL, p.NotifyEmail, p.NotifyTelegram, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return expectOne(res)
}

func (r *profileRepository) UpdateTelegramLink(ctx context.Context, userID string, chatID int64, enable bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET telegram_chat_id=$1, notify_telegram=$2, updated_at=NOW()
		WHERE id=$3`, chatID, enable, userID)
	if err != nil {
		return fmt.Errorf("link telegram: %w", err)
	}
	return expectOne(res)
}

func (r *profileRepository) GetByChatID(ctx context.Context, chatID int64) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE telegram_chat_id = $1 LIMIT 1`, chatID))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}
