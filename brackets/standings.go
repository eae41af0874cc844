// ranking-system/brackets/standings.go
package brackets

import (
	"sort"

	"github.com/Dosada05/ranking-system/models"
)

// ResolveStandings derives final placements of a completed single-elimination bracket.
//
// Only decided matches take part. The latest round is the final: its winner is placed 1st
// and its loser 2nd. A loser of an earlier round r is placed 2^(maxRound-r)+1, so every
// loser of the same round shares the position (both semifinal losers are 3rd).
// A participant keeps the first placement assigned to it. Matches without exactly one
// win and one loss are skipped. The function never fails; it omits what it cannot place.
func ResolveStandings(matches []models.Match) []models.Placement {
	byRound, maxRound := groupDecidedByRound(matches)
	if maxRound == 0 {
		return []models.Placement{}
	}

	placed := make(map[string]struct{})
	placements := make([]models.Placement, 0, 2*len(matches))
	assign := func(participantID string, position int) {
		if _, ok := placed[participantID]; ok {
			return
		}
		placed[participantID] = struct{}{}
		placements = append(placements, models.Placement{ParticipantID: participantID, Position: position})
	}

	for round := maxRound; round >= 1; round-- {
		for _, m := range byRound[round] {
			winner, loser, ok := outcome(m)
			if !ok {
				continue
			}
			if round == maxRound {
				assign(winner.ParticipantID, 1)
				assign(loser.ParticipantID, 2)
				continue
			}
			assign(loser.ParticipantID, LoserPosition(maxRound, round))
		}
	}

	sort.SliceStable(placements, func(i, j int) bool {
		if placements[i].Position != placements[j].Position {
			return placements[i].Position < placements[j].Position
		}
		return placements[i].ParticipantID < placements[j].ParticipantID
	})
	return placements
}

// LoserPosition is the position shared by everyone eliminated in the given round of a
// bracket whose final is maxRound. The final's loser is 2nd.
func LoserPosition(maxRound, round int) int {
	if round >= maxRound {
		return 2
	}
	return 1<<uint(maxRound-round) + 1
}

// MalformedMatches returns ids of decided matches that cannot produce a placement:
// a side count other than two, a non-positive round or no clear win/loss pair.
func MalformedMatches(matches []models.Match) []string {
	var ids []string
	for _, m := range matches {
		if !m.IsDecided() {
			continue
		}
		if m.RoundNumber < 1 {
			ids = append(ids, m.ID)
			continue
		}
		if _, _, ok := outcome(m); !ok {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// groupDecidedByRound keeps decided two-sided matches with a positive round, in input order.
func groupDecidedByRound(matches []models.Match) (map[int][]models.Match, int) {
	byRound := make(map[int][]models.Match)
	maxRound := 0
	for _, m := range matches {
		if !m.IsDecided() || m.RoundNumber < 1 || len(m.Participants) != 2 {
			continue
		}
		byRound[m.RoundNumber] = append(byRound[m.RoundNumber], m)
		if m.RoundNumber > maxRound {
			maxRound = m.RoundNumber
		}
	}
	return byRound, maxRound
}

func outcome(m models.Match) (winner, loser models.MatchParticipant, ok bool) {
	winner, loser, ok = m.Outcome()
	if !ok || winner.ParticipantID == "" || loser.ParticipantID == "" {
		return models.MatchParticipant{}, models.MatchParticipant{}, false
	}
	return winner, loser, true
}
