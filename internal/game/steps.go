package game

// StepID identifies one role's turn within the night sequence.
type StepID string

const (
	StepCupid      StepID = "cupid"
	StepGuard      StepID = "guard"
	StepSeer       StepID = "seer"
	StepWerewolves StepID = "werewolves"
	StepWitch      StepID = "witch"
)

type stepDef struct {
	id             StepID
	role           Role
	firstNightOnly bool
	prompt         string
}

// Night order. Werewolves act after the protective roles so the guard's
// choice is already set when victims are designated.
var nightOrder = []stepDef{
	{id: StepCupid, role: RoleCupid, firstNightOnly: true,
		prompt: "Cupid wakes and designates two lovers."},
	{id: StepGuard, role: RoleGuard,
		prompt: "The guard wakes and chooses one player to protect tonight."},
	{id: StepSeer, role: RoleSeer,
		prompt: "The seer wakes and inspects one player."},
	{id: StepWerewolves, role: RoleWerewolf,
		prompt: "The werewolves wake and designate their victim."},
	{id: StepWitch, role: RoleWitch,
		prompt: "The witch wakes and may use her potions."},
}

// BuildNightSteps computes the upcoming night's sequence from per-step
// conditions. A step whose role has no living holder is kept in the slice
// and skipped at advance time, so index-based navigation stays stable even
// when a mid-night death empties a later step.
func (st *State) BuildNightSteps(upcomingNight int) []StepID {
	var steps []StepID
	for _, def := range nightOrder {
		if def.firstNightOnly && upcomingNight != 1 {
			continue
		}
		if def.id == StepWitch && st.Trackers.HealPotions == 0 && st.Trackers.PoisonPotions == 0 {
			continue
		}
		steps = append(steps, def.id)
	}
	return steps
}

// StepEligible reports whether the step has at least one living actor.
func (st *State) StepEligible(id StepID) bool {
	role := stepRole(id)
	return role != "" && len(st.LivingWith(role)) > 0
}

// StepPrompt returns the narrator prompt text for a step.
func StepPrompt(id StepID) string {
	for _, def := range nightOrder {
		if def.id == id {
			return def.prompt
		}
	}
	return string(id)
}

func stepRole(id StepID) Role {
	for _, def := range nightOrder {
		if def.id == id {
			return def.role
		}
	}
	return ""
}
