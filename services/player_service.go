package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/ranking-system/models"
	"github.com/Dosada05/ranking-system/repositories"
)

// PlayerService manages the link between players and their tournaments-service participant.
type PlayerService interface {
	LinkParticipant(ctx context.Context, playerID, participantID string) (*models.User, error)
}

type playerService struct {
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

func NewPlayerService(userRepo repositories.UserRepository, logger *slog.Logger) PlayerService {
	return &playerService{userRepo: userRepo, logger: logger}
}

func (s *playerService) LinkParticipant(ctx context.Context, playerID, participantID string) (*models.User, error) {
	participantID = strings.TrimSpace(participantID)
	if playerID == "" || participantID == "" {
		return nil, fmt.Errorf("%w: player id and participant id are required", ErrValidationFailed)
	}

	if err := s.userRepo.LinkParticipant(ctx, playerID, participantID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrPlayerNotFound
		case errors.Is(err, repositories.ErrParticipantLinkConflict):
			return nil, ErrParticipantLinkConflict
		default:
			return nil, fmt.Errorf("failed to link participant %s to player %s: %w", participantID, playerID, err)
		}
	}

	user, err := s.userRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload player %s: %w", playerID, err)
	}
	s.logger.InfoContext(ctx, "Participant linked to player", slog.String("player_id", playerID), slog.String("participant_id", participantID))
	return user, nil
}
