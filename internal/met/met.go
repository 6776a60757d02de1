// Package met supplies match equity tables: the probability of winning the
// match from a given score, used to convert game-winning chances into match
// equity for cube decisions in match play.
package met

// MaxAway is the largest points-away distance the table covers.
const MaxAway = 64

// Table holds pre- and post-Crawford match equities.
//
// Pre[i][j] is the chance that the player needing i+1 more points wins the
// match against an opponent needing j+1. Post[i] is the trailer's chance
// when the leader is on match point after the Crawford game and the trailer
// still needs i+1.
type Table struct {
	Name string
	Pre  [MaxAway][MaxAway]float32
	Post [MaxAway]float32
}

// Default builds an approximate table from the points-away ratio, with a
// Woolsey-Heinrich style post-Crawford column. It is close enough to the
// published tables for cube decisions at common match scores and needs no
// data files.
func Default() *Table {
	t := &Table{Name: "ratio"}
	for i := 0; i < MaxAway; i++ {
		for j := 0; j < MaxAway; j++ {
			pi := float64(i + 1)
			pj := float64(j + 1)
			t.Pre[i][j] = float32(pj / (pi + pj))
		}
		t.Post[i] = float32(1.0 / (1.0 + float64(i+1)*0.7))
	}
	return t
}

// WinProb returns player's chance of winning the match at the given score.
// matchTo == 0 means money play and always yields 0.5. crawford marks the
// Crawford game itself.
func (t *Table) WinProb(score0, score1, matchTo, player int, crawford bool) float32 {
	if matchTo == 0 {
		return 0.5
	}

	away0 := matchTo - score0 - 1
	away1 := matchTo - score1 - 1

	if away0 < 0 {
		if player == 0 {
			return 1
		}
		return 0
	}
	if away1 < 0 {
		if player == 1 {
			return 1
		}
		return 0
	}

	if away0 >= MaxAway {
		away0 = MaxAway - 1
	}
	if away1 >= MaxAway {
		away1 = MaxAway - 1
	}

	var eq float32
	switch {
	case crawford && away0 == 0 && away1 == 0:
		// Double match point: one game decides, symmetric by definition.
		eq = 0.5
	case crawford && away0 == 0:
		eq = 1 - t.Post[away1]
	case crawford && away1 == 0:
		eq = t.Post[away0]
	default:
		eq = t.Pre[away0][away1]
	}

	if player == 1 {
		eq = 1 - eq
	}
	return eq
}

// WinProbAfter returns player's match-winning chance after winner takes
// points (1, 2 for a gammon, 3 for a backgammon) at the given score. The
// Crawford game is entered when the result puts either side one point from
// the match.
func (t *Table) WinProbAfter(score0, score1, matchTo, player, points, winner int, crawford bool) float32 {
	if winner == 0 {
		score0 += points
	} else {
		score1 += points
	}

	next := false
	if !crawford && (score0 == matchTo-1 || score1 == matchTo-1) {
		next = true
	}
	return t.WinProb(score0, score1, matchTo, player, next)
}
