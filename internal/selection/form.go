package selection

import (
	"fmt"

	"github.com/abrezinsky/pairsync/internal/errors"
)

// Kind names a form that has paired controls
type Kind string

const (
	// KindMatch picks two teams of the same tournament group
	KindMatch Kind = "match"
	// KindTeam picks two players, prefilling the second with the first's previous partner
	KindTeam Kind = "team"
)

// Control keys as used by the host admin forms
const (
	KeyTournament = "tournament"
	KeyTeam1      = "team1"
	KeyTeam2      = "team2"
	KeyPlayer1    = "player1"
	KeyPlayer2    = "player2"
)

// Kinds lists the supported form kinds
func Kinds() []Kind {
	return []Kind{KindMatch, KindTeam}
}

// ParseKind validates a form kind taken from a URL
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.NotFoundf("unknown form kind %q", s)
}

// Snapshot is what a form publishes after a change
type Snapshot struct {
	Kind       Kind           `json:"kind"`
	Phase      string         `json:"phase"`
	Generation uint64         `json:"generation"`
	Controls   []ControlState `json:"controls"`
}

// Control returns the state of the control with key, if present
func (s Snapshot) Control(key string) (ControlState, bool) {
	for _, c := range s.Controls {
		if c.Key == key {
			return c, true
		}
	}
	return ControlState{}, false
}

// Form is a value-typed state machine. Reduce never mutates the receiver.
type Form interface {
	Kind() Kind
	Reduce(ev Event) (Form, []Effect)
	Snapshot() Snapshot
}

// NewForm creates an empty form of the given kind
func NewForm(kind Kind, policy StalePolicy) (Form, error) {
	switch kind {
	case KindMatch:
		return NewMatchForm(policy), nil
	case KindTeam:
		return NewTeamForm(policy), nil
	default:
		return nil, fmt.Errorf("unknown form kind %q", kind)
	}
}

func unknownControl(key string) Effect {
	return ReportFailure{Op: "change", Err: errors.InvalidInputf("unknown control %q", key)}
}

func invalidValue(c *Control, ev Changed) Effect {
	return ReportFailure{Op: "change", Err: errors.InvalidInputf("%q is not an option of %s", ev.Value, c.Key())}
}
