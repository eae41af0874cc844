package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/ranking-system/models"
)

// ErrInvalidBracket is wrapped by every BracketError.
var ErrInvalidBracket = errors.New("invalid single-elimination bracket")

// BracketError describes one violated bracket-shape precondition.
type BracketError struct {
	Round   int
	MatchID string
	Reason  string
}

func (e *BracketError) Error() string {
	switch {
	case e.MatchID != "":
		return fmt.Sprintf("round %d, match %s: %s", e.Round, e.MatchID, e.Reason)
	case e.Round > 0:
		return fmt.Sprintf("round %d: %s", e.Round, e.Reason)
	default:
		return e.Reason
	}
}

func (e *BracketError) Unwrap() error {
	return ErrInvalidBracket
}

// ValidateSingleElimination checks that the decided matches form a complete power-of-two
// single-elimination bracket, the only shape ResolveStandings places correctly.
//
// Round r must hold exactly 2^(maxRound-r) decided matches, round 1 must seat every
// participant once (no byes), and every winner below the final must play in the next round.
// All violations are returned joined; errors.Is(err, ErrInvalidBracket) holds for the result.
func ValidateSingleElimination(matches []models.Match) error {
	byRound, maxRound := groupDecidedByRound(matches)
	if maxRound == 0 {
		return &BracketError{Reason: "no decided matches"}
	}

	var errs []error
	for round := 1; round <= maxRound; round++ {
		want := 1 << uint(maxRound-round)
		if got := len(byRound[round]); got != want {
			errs = append(errs, &BracketError{
				Round:  round,
				Reason: fmt.Sprintf("has %d decided matches, expected %d", got, want),
			})
		}
	}

	seated := make(map[string]struct{})
	for _, m := range byRound[1] {
		for _, p := range m.Participants {
			if _, dup := seated[p.ParticipantID]; dup {
				errs = append(errs, &BracketError{
					Round:   1,
					MatchID: m.ID,
					Reason:  fmt.Sprintf("participant %s is seated more than once", p.ParticipantID),
				})
				continue
			}
			seated[p.ParticipantID] = struct{}{}
		}
	}

	for round := 1; round < maxRound; round++ {
		next := make(map[string]struct{})
		for _, m := range byRound[round+1] {
			for _, p := range m.Participants {
				next[p.ParticipantID] = struct{}{}
			}
		}
		for _, m := range byRound[round] {
			winner, _, ok := outcome(m)
			if !ok {
				continue
			}
			if _, advanced := next[winner.ParticipantID]; !advanced {
				errs = append(errs, &BracketError{
					Round:   round,
					MatchID: m.ID,
					Reason:  fmt.Sprintf("winner %s does not appear in round %d", winner.ParticipantID, round+1),
				})
			}
		}
	}

	return errors.Join(errs...)
}
