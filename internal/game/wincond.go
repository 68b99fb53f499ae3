package game

// Winner identifies the faction or player that ended the game.
type Winner string

const (
	WinnerNone       Winner = ""
	WinnerProwler    Winner = "prowler"
	WinnerLovers     Winner = "lovers"
	WinnerPeacemaker Winner = "peacemaker"
	WinnerVillage    Winner = "village"
	WinnerWerewolves Winner = "werewolves"
)

// Outcome describes a finished game.
type Outcome struct {
	Winner  Winner `json:"winner"`
	Message string `json:"message"`
}

// peaceDaysToWin ends the game for a living peacemaker after this many
// consecutive day increments without any death.
const peaceDaysToWin = 4

// CheckGameOver evaluates the win conditions in fixed priority order. It is
// re-run after every elimination; returning nil means play continues.
func (st *State) CheckGameOver() *Outcome {
	// Prowler: private target eliminated while the prowler survives.
	for _, p := range st.LivingWith(RoleProwler) {
		t := st.Trackers.ProwlerTarget
		if t >= 0 && t < len(st.Dead) && st.Dead[t] {
			return &Outcome{
				Winner:  WinnerProwler,
				Message: playerLabel(st, p) + " collected the bounty on " + playerLabel(st, t) + ".",
			}
		}
	}

	// Lovers: every living player is part of a lover pair.
	if st.allAliveAreLovers() {
		return &Outcome{Winner: WinnerLovers, Message: "Only lovers remain; love wins."}
	}

	// Peacemaker: a stretch of peaceful days with the peacemaker alive.
	if st.PeaceDays >= peaceDaysToWin && len(st.LivingWith(RolePeacemaker)) > 0 {
		return &Outcome{Winner: WinnerPeacemaker, Message: "The village has known lasting peace."}
	}

	antagonists, others := st.Counts()
	if antagonists == 0 {
		return &Outcome{Winner: WinnerVillage, Message: "The last werewolf is dead; the village wins."}
	}
	if antagonists >= others {
		return &Outcome{Winner: WinnerWerewolves, Message: "The werewolves outnumber the village."}
	}
	return nil
}

func (st *State) allAliveAreLovers() bool {
	if len(st.Lovers) == 0 {
		return false
	}
	any := false
	for i := range st.Players {
		if st.Dead[i] {
			continue
		}
		any = true
		if st.LoverOf(i) == -1 {
			return false
		}
	}
	return any
}
