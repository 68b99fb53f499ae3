package game

// SeerResult is one night's investigation, kept for narrator display.
type SeerResult struct {
	Night      int  `json:"night"`
	Target     int  `json:"target"`
	IsWerewolf bool `json:"isWerewolf"`
}

// Trackers holds per-role transient state: potion counts, one-shot flags,
// accusation tallies and tonight's victim designation.
type Trackers struct {
	HealPotions   int          `json:"healPotions"`
	PoisonPotions int          `json:"poisonPotions"`
	ShieldUsed    bool         `json:"shieldUsed"`
	ProwlerTarget int          `json:"prowlerTarget"`
	Accusations   []int        `json:"accusations"`
	GuardTarget   int          `json:"guardTarget"`
	GuardNight    int          `json:"guardNight"`
	Victims       []int        `json:"victims"`
	LastVictims   []int        `json:"lastVictims"`
	SeerResults   []SeerResult `json:"seerResults"`
}

// State is the single live game state owned by the controller. Players are
// tracked by position: duplicate names are legal and never deduplicated.
// A dead player keeps role and jobs for display but is excluded from
// action eligibility.
type State struct {
	Players   []string `json:"players"`
	Roles     []Role   `json:"roles"`
	Jobs      [][]Job  `json:"jobs"`
	Dead      []bool   `json:"dead"`
	Lovers    [][2]int `json:"lovers"`
	Mayor     int      `json:"mayor"`
	Silenced  int      `json:"silenced"`
	Night     int      `json:"night"`
	Day       int      `json:"day"`
	PeaceDays int      `json:"peaceDays"`
	Trackers  Trackers `json:"trackers"`
}

// NewState assigns roles and jobs by position. jobs may be nil or shorter
// than players; missing entries mean no jobs.
func NewState(players []string, roles []Role, jobs [][]Job) *State {
	st := &State{
		Players:  append([]string(nil), players...),
		Roles:    append([]Role(nil), roles...),
		Jobs:     make([][]Job, len(players)),
		Dead:     make([]bool, len(players)),
		Mayor:    -1,
		Silenced: -1,
		Trackers: Trackers{
			HealPotions:   1,
			PoisonPotions: 1,
			ProwlerTarget: -1,
			Accusations:   make([]int, len(players)),
			GuardTarget:   -1,
		},
	}
	for i := range st.Jobs {
		if i < len(jobs) && jobs[i] != nil {
			st.Jobs[i] = append([]Job(nil), jobs[i]...)
		}
		if st.hasJob(i, JobMayor) {
			st.Mayor = i
		}
	}
	return st
}

// Alive reports whether index i is a living player.
func (st *State) Alive(i int) bool {
	return i >= 0 && i < len(st.Players) && !st.Dead[i]
}

// AliveNames returns living player names in position order.
func (st *State) AliveNames() []string {
	var out []string
	for i, name := range st.Players {
		if !st.Dead[i] {
			out = append(out, name)
		}
	}
	return out
}

// LivingWith returns indexes of living players holding role.
func (st *State) LivingWith(role Role) []int {
	var out []int
	for i := range st.Players {
		if !st.Dead[i] && st.Roles[i] == role {
			out = append(out, i)
		}
	}
	return out
}

func (st *State) hasJob(i int, job Job) bool {
	for _, j := range st.Jobs[i] {
		if j == job {
			return true
		}
	}
	return false
}

// LoverOf returns the partner of player i, or -1.
func (st *State) LoverOf(i int) int {
	for _, pair := range st.Lovers {
		if pair[0] == i {
			return pair[1]
		}
		if pair[1] == i {
			return pair[0]
		}
	}
	return -1
}

// Counts returns living antagonists and living non-antagonists.
func (st *State) Counts() (antagonists, others int) {
	for i := range st.Players {
		if st.Dead[i] {
			continue
		}
		if st.Roles[i].Antagonist() {
			antagonists++
		} else {
			others++
		}
	}
	return
}

// Clone returns a deep copy suitable for checkpoints.
func (st *State) Clone() *State {
	if st == nil {
		return nil
	}
	cp := *st
	cp.Players = append([]string(nil), st.Players...)
	cp.Roles = append([]Role(nil), st.Roles...)
	cp.Dead = append([]bool(nil), st.Dead...)
	cp.Lovers = append([][2]int(nil), st.Lovers...)
	cp.Jobs = make([][]Job, len(st.Jobs))
	for i, jobs := range st.Jobs {
		if jobs != nil {
			cp.Jobs[i] = append([]Job(nil), jobs...)
		}
	}
	cp.Trackers.Accusations = append([]int(nil), st.Trackers.Accusations...)
	cp.Trackers.Victims = append([]int(nil), st.Trackers.Victims...)
	cp.Trackers.LastVictims = append([]int(nil), st.Trackers.LastVictims...)
	cp.Trackers.SeerResults = append([]SeerResult(nil), st.Trackers.SeerResults...)
	return &cp
}
