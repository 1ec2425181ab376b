package elo

import (
	"strconv"
	"strings"
)

// GameScore — счёт одной игры внутри матча (сет из одной или нескольких игр).
type GameScore struct {
	P1 int `json:"p1"`
	P2 int `json:"p2"`
}

// ParseScore разбирает строку счёта вида "3-2,1-3,3-1" в список GameScore,
// по одному элементу на каждый сегмент, разделённый запятой.
//
// The per-segment rules mirror what the bracket provider actually sends:
//   - two pieces around "-": both parsed as integers, 0 on parse failure;
//   - three pieces: happens when one side's value carries a literal leading
//     minus, interpreted positionally (empty first piece → p1=0 and p2 is the
//     third piece, empty middle piece → p1 is the first piece and p2=0);
//   - anything else: both sides 0.
func ParseScore(raw string) []GameScore {
	segments := strings.Split(raw, ",")
	scores := make([]GameScore, 0, len(segments))

	for _, segment := range segments {
		pieces := strings.Split(segment, "-")

		var gs GameScore
		switch len(pieces) {
		case 2:
			gs.P1 = atoiOrZero(pieces[0])
			gs.P2 = atoiOrZero(pieces[1])
		case 3:
			if pieces[0] == "" {
				gs.P1 = 0
				gs.P2 = atoiOrZero(pieces[2])
			} else if pieces[1] == "" {
				gs.P1 = atoiOrZero(pieces[0])
				gs.P2 = 0
			}
		}
		scores = append(scores, gs)
	}

	return scores
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
