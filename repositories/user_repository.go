package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/ranking-system/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrParticipantNotLinked    = errors.New("participant is not linked to any user")
	ErrParticipantLinkConflict = errors.New("participant is already linked to another user")
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	// ResolvePlayer maps a tournaments-service participant to the id of the linked user.
	ResolvePlayer(ctx context.Context, participantID string) (string, error)
	LinkParticipant(ctx context.Context, userID, participantID string) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, email, role, participant_id, created_at
		FROM users
		WHERE id = $1`
	return r.scanUser(ctx, ErrUserNotFound, query, id)
}

func (r *postgresUserRepository) ResolvePlayer(ctx context.Context, participantID string) (string, error) {
	if participantID == "" {
		return "", ErrParticipantNotLinked
	}
	var userID string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE participant_id = $1`, participantID).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrParticipantNotLinked
		}
		return "", fmt.Errorf("failed to resolve participant %s: %w", participantID, err)
	}
	return userID, nil
}

func (r *postgresUserRepository) LinkParticipant(ctx context.Context, userID, participantID string) error {
	query := `UPDATE users SET participant_id = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, participantID, userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			if pqErr.Constraint == "users_participant_id_key" {
				return ErrParticipantLinkConflict
			}
		}
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) scanUser(ctx context.Context, notFound error, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	var email, participantID sql.NullString

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Username,
		&email,
		&user.Role,
		&participantID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}

	user.Email = email.String
	if participantID.Valid {
		user.ParticipantID = &participantID.String
	}
	return &user, nil
}
