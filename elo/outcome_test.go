package elo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome_SingleGame(t *testing.T) {
	assert.Equal(t, 1.0, Outcome([]GameScore{{P1: 2, P2: 0}}))
	assert.Equal(t, 0.0, Outcome([]GameScore{{P1: 0, P2: 2}}))
	assert.Equal(t, 0.5, Outcome([]GameScore{{P1: 0, P2: 0}}))
	assert.InDelta(t, 0.6, Outcome([]GameScore{{P1: 3, P2: 2}}), 1e-9)
}

func TestOutcome_MultiGameCountsGames(t *testing.T) {
	// Side 1 wins two games of three; the point totals do not matter.
	games := []GameScore{{11, 9}, {2, 11}, {11, 7}}
	assert.InDelta(t, 2.0/3.0, Outcome(games), 1e-9)

	// Ties within every game of a set count for neither side.
	assert.Equal(t, 0.5, Outcome([]GameScore{{1, 1}, {2, 2}}))
}

func TestOutcome_FullSequenceNotJustFirstThree(t *testing.T) {
	// A five-game set where side 1 drops the first two games and takes the
	// last three. The full-sequence outcome and the historical
	// first-three-games outcome must disagree here.
	games := []GameScore{{0, 2}, {1, 2}, {2, 0}, {2, 1}, {2, 0}}

	assert.InDelta(t, 3.0/5.0, Outcome(games), 1e-9)
	assert.InDelta(t, 1.0/3.0, OutcomeFirstThreeGames(games), 1e-9)
}

func TestOutcomeFirstThreeGames_MatchesOutcomeForShortSets(t *testing.T) {
	games := []GameScore{{2, 0}, {0, 2}}
	assert.Equal(t, Outcome(games), OutcomeFirstThreeGames(games))
}
