// Package game implements the night/day phase state machine: role and job
// bookkeeping, the per-night step sequence, the day accusation/vote/lynch
// flow and win-condition evaluation. It consults the event scheduler at
// night start and records checkpoints and undo commands around every
// transition.
package game

import "fmt"

// Role is a player's primary identity for the whole game.
type Role string

const (
	RoleVillager   Role = "villager"
	RoleWerewolf   Role = "werewolf"
	RoleSeer       Role = "seer"
	RoleWitch      Role = "witch"
	RoleHunter     Role = "hunter"
	RoleCupid      Role = "cupid"
	RoleGuard      Role = "guard"
	RoleScapegoat  Role = "scapegoat"
	RoleCrier      Role = "town-crier"
	RoleProwler    Role = "prowler"
	RolePeacemaker Role = "peacemaker"
)

// Antagonist reports whether the role counts toward the werewolf faction
// for parity win conditions.
func (r Role) Antagonist() bool {
	return r == RoleWerewolf
}

// Job is a secondary ability layered on top of a role. A player carries
// zero or more jobs.
type Job string

const (
	// JobMayor doubles the holder's vote in the day tally.
	JobMayor Job = "mayor"
	// JobShield absorbs the first death that would hit the holder; it
	// fires at most once in the whole game.
	JobShield Job = "shield"
)

var roleLabels = map[Role]string{
	RoleVillager:   "Villager",
	RoleWerewolf:   "Werewolf",
	RoleSeer:       "Seer",
	RoleWitch:      "Witch",
	RoleHunter:     "Hunter",
	RoleCupid:      "Cupid",
	RoleGuard:      "Guard",
	RoleScapegoat:  "Scapegoat",
	RoleCrier:      "Town Crier",
	RoleProwler:    "Prowler",
	RolePeacemaker: "Peacemaker",
}

// Label returns the display name for a role, falling back to the raw id.
// The core passes identifiers plus resolved text; localization happens in
// the display collaborator.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// ParseRole validates a raw role id coming from the API boundary.
func ParseRole(s string) (Role, error) {
	if _, ok := roleLabels[Role(s)]; !ok {
		return "", fmt.Errorf("game: unknown role %q", s)
	}
	return Role(s), nil
}

// ParseJob validates a raw job id coming from the API boundary.
func ParseJob(s string) (Job, error) {
	switch Job(s) {
	case JobMayor, JobShield:
		return Job(s), nil
	}
	return "", fmt.Errorf("game: unknown job %q", s)
}
