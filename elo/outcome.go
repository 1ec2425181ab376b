package elo

// Outcome сводит разобранный счёт матча к исходу стороны 1 в диапазоне [0,1]:
// 1 — победа, 0 — поражение, 0.5 — ничья.
//
// For a single-game score the outcome is the share of points taken by side 1.
// For a multi-game set the outcome is the share of games won by side 1, a
// game being won by the side with the strictly greater tally.
func Outcome(games []GameScore) float64 {
	if len(games) == 1 {
		total := games[0].P1 + games[0].P2
		if total == 0 {
			return 0.5
		}
		return float64(games[0].P1) / float64(total)
	}
	return gamesWonOutcome(games)
}

// OutcomeFirstThreeGames воспроизводит историческое поведение multi-game
// ветки: учитываются только первые три игры сета, остальные игнорируются.
// Оставлено для проверок совместимости со старыми данными; для новых
// расчётов используется Outcome.
func OutcomeFirstThreeGames(games []GameScore) float64 {
	if len(games) == 1 {
		return Outcome(games)
	}
	if len(games) > 3 {
		games = games[:3]
	}
	return gamesWonOutcome(games)
}

func gamesWonOutcome(games []GameScore) float64 {
	var won1, won2 int
	for _, g := range games {
		switch {
		case g.P1 > g.P2:
			won1++
		case g.P2 > g.P1:
			won2++
		}
	}
	if won1+won2 == 0 {
		return 0.5
	}
	return float64(won1) / float64(won1+won2)
}
