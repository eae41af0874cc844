package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound           = errors.New("requested resource not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrTournamentNotFound = errors.New("tournament not found")

	// Ошибки валидации
	ErrValidationFailed = errors.New("validation failed")

	// Ошибки конфликтов
	ErrParticipantLinkConflict = errors.New("participant is already linked to another player")

	// Ошибки рейтингового конвейера
	ErrUnresolvedParticipant = errors.New("participant is not linked to a player")
	ErrMalformedMatch        = errors.New("match has no clear winner and loser")
	ErrPersistenceConflict   = errors.New("ranking record update conflicted after retries")
	ErrUpstreamFetchFailed   = errors.New("failed to fetch matches from tournaments service")
	ErrAwardAlreadyApplied   = errors.New("placement already applied to the ranking")
)
