package game

import "fmt"

// CommandKind tags an undoable mutation.
type CommandKind string

const (
	CmdKill             CommandKind = "kill"
	CmdRevive           CommandKind = "revive"
	CmdDesignateVictims CommandKind = "designate-victims"
	CmdHeal             CommandKind = "heal"
	CmdPoison           CommandKind = "poison"
	CmdProtect          CommandKind = "protect"
	CmdInspect          CommandKind = "inspect"
	CmdSetLovers        CommandKind = "set-lovers"
	CmdSetMayor         CommandKind = "set-mayor"
	CmdSilence          CommandKind = "silence"
	CmdAccuse           CommandKind = "accuse"
)

// Command is a data-only undo record: it holds exactly what the interpreter
// needs to run the mutation in either direction. Rollback across a restored
// snapshot replays commands without any captured state.
type Command struct {
	Kind    CommandKind `json:"kind"`
	Label   string      `json:"label"`
	Detail  string      `json:"detail,omitempty"`
	Step    StepID      `json:"step,omitempty"`
	Players []int       `json:"players,omitempty"`
	Cascade []int       `json:"cascade,omitempty"`
	Prev    []int       `json:"prev,omitempty"`
}

// apply is the single command interpreter. forward replays the mutation,
// !forward inverts it. Unknown kinds are ignored.
func (st *State) apply(cmd Command, forward bool) {
	switch cmd.Kind {
	case CmdKill:
		st.setDead(cmd.Players, forward)
		st.setDead(cmd.Cascade, forward)
		if forward {
			st.PeaceDays = 0
		} else {
			st.PeaceDays = prevOr(cmd.Prev, 0, st.PeaceDays)
		}
	case CmdRevive:
		st.setDead(cmd.Players, !forward)
		st.setDead(cmd.Cascade, !forward)
	case CmdDesignateVictims:
		if forward {
			st.Trackers.Victims = append(st.Trackers.Victims, cmd.Players...)
		} else {
			st.removeVictims(cmd.Players)
		}
	case CmdHeal:
		if forward {
			st.removeVictims(cmd.Players)
			st.Trackers.HealPotions--
		} else {
			st.Trackers.Victims = append(st.Trackers.Victims, cmd.Players...)
			st.Trackers.HealPotions++
		}
	case CmdPoison:
		if forward {
			st.Trackers.Victims = append(st.Trackers.Victims, cmd.Players...)
			st.Trackers.PoisonPotions--
		} else {
			st.removeVictims(cmd.Players)
			st.Trackers.PoisonPotions++
		}
	case CmdProtect:
		if forward {
			st.Trackers.GuardTarget = cmd.Players[0]
			st.Trackers.GuardNight = st.Night
		} else {
			st.Trackers.GuardTarget = prevOr(cmd.Prev, 0, -1)
			st.Trackers.GuardNight = prevOr(cmd.Prev, 1, 0)
		}
	case CmdInspect:
		if forward {
			target := cmd.Players[0]
			st.Trackers.SeerResults = append(st.Trackers.SeerResults, SeerResult{
				Night:      st.Night,
				Target:     target,
				IsWerewolf: st.Roles[target].Antagonist(),
			})
		} else if n := len(st.Trackers.SeerResults); n > 0 {
			st.Trackers.SeerResults = st.Trackers.SeerResults[:n-1]
		}
	case CmdSetLovers:
		if forward {
			st.Lovers = append(st.Lovers, [2]int{cmd.Players[0], cmd.Players[1]})
		} else if n := len(st.Lovers); n > 0 {
			st.Lovers = st.Lovers[:n-1]
		}
	case CmdSetMayor:
		if forward {
			st.Mayor = cmd.Players[0]
		} else {
			st.Mayor = prevOr(cmd.Prev, 0, -1)
		}
	case CmdSilence:
		if forward {
			st.Silenced = cmd.Players[0]
		} else {
			st.Silenced = prevOr(cmd.Prev, 0, -1)
		}
	case CmdAccuse:
		delta := 1
		if !forward {
			delta = -1
		}
		for _, p := range cmd.Players {
			if p >= 0 && p < len(st.Trackers.Accusations) {
				st.Trackers.Accusations[p] += delta
			}
		}
	}
}

func (st *State) setDead(players []int, dead bool) {
	for _, p := range players {
		if p >= 0 && p < len(st.Dead) {
			st.Dead[p] = dead
		}
	}
}

func (st *State) removeVictims(players []int) {
	for _, p := range players {
		for i := len(st.Trackers.Victims) - 1; i >= 0; i-- {
			if st.Trackers.Victims[i] == p {
				st.Trackers.Victims = append(st.Trackers.Victims[:i], st.Trackers.Victims[i+1:]...)
				break
			}
		}
	}
}

func prevOr(prev []int, idx, fallback int) int {
	if idx < len(prev) {
		return prev[idx]
	}
	return fallback
}

func playerLabel(st *State, i int) string {
	if i < 0 || i >= len(st.Players) {
		return fmt.Sprintf("#%d", i)
	}
	return st.Players[i]
}
