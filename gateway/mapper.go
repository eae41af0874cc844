package gateway

import "github.com/Dosada05/ranking-system/models"

// flattenBracket turns the round-grouped bracket into a flat match list. A match without
// its own round or tournament id inherits the enclosing one.
func flattenBracket(tournamentID string, payload bracketResponse) []models.Match {
	if payload.TournamentID != "" {
		tournamentID = payload.TournamentID
	}

	matches := make([]models.Match, 0)
	for _, round := range payload.Rounds {
		for _, m := range round.Matches {
			matches = append(matches, mapMatch(tournamentID, round.RoundNumber, m))
		}
	}
	return matches
}

func mapMatch(tournamentID string, roundNumber int, m matchDTO) models.Match {
	match := models.Match{
		ID:           m.ID,
		TournamentID: m.TournamentID,
		RoundNumber:  m.RoundNumber,
		CompletedAt:  m.CompletedAt,
		Participants: make([]models.MatchParticipant, 0, len(m.Participants)),
	}
	if match.TournamentID == "" {
		match.TournamentID = tournamentID
	}
	if match.RoundNumber == 0 {
		match.RoundNumber = roundNumber
	}
	for _, p := range m.Participants {
		match.Participants = append(match.Participants, models.MatchParticipant{
			ParticipantID: p.ParticipantID,
			DisplayName:   p.DisplayName,
			Score:         p.Score,
			Result:        mapResult(p.Result),
		})
	}
	return match
}

func mapResult(raw *string) models.MatchResult {
	if raw == nil {
		return models.ResultUndecided
	}
	switch r := models.MatchResult(*raw); r {
	case models.ResultWin, models.ResultLoss, models.ResultDraw:
		return r
	default:
		return models.ResultUndecided
	}
}
