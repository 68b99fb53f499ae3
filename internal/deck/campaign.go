package deck

import (
	"fmt"
	"sort"
)

// CampaignEntry forces one card on one exact night, overriding the
// probabilistic pass. Each entry executes at most once per session.
type CampaignEntry struct {
	Night  int    `json:"night"`
	CardID string `json:"cardId"`
}

func (c CampaignEntry) key() string {
	return fmt.Sprintf("%d:%s", c.Night, c.CardID)
}

// Progress is the JSON-compatible snapshot of campaign execution, persisted
// alongside the scheduler state.
type Progress struct {
	Executed []string              `json:"executed"`
	Decks    map[string]DeckConfig `json:"decks"`
	Campaign []CampaignEntry       `json:"campaign"`
}

// Snapshot captures the executed set, deck gates and scripted entries.
func (e *Evaluator) Snapshot() Progress {
	p := Progress{
		Executed: make([]string, 0, len(e.executed)),
		Decks:    e.Decks(),
		Campaign: append([]CampaignEntry(nil), e.campaign...),
	}
	for k := range e.executed {
		p.Executed = append(p.Executed, k)
	}
	sort.Strings(p.Executed)
	return p
}

// Restore replaces campaign progress with a snapshot.
func (e *Evaluator) Restore(p Progress) {
	e.executed = make(map[string]struct{}, len(p.Executed))
	for _, k := range p.Executed {
		e.executed[k] = struct{}{}
	}
	if p.Decks != nil {
		e.decks = make(map[string]DeckConfig, len(p.Decks))
		for name, cfg := range p.Decks {
			e.decks[name] = cfg
		}
	}
	e.campaign = append([]CampaignEntry(nil), p.Campaign...)
}
