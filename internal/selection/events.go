package selection

import (
	"fmt"
	"strings"

	"github.com/abrezinsky/pairsync/internal/models"
)

// Event is an input to a form: a user change or the outcome of a fetch
type Event interface {
	event()
}

// Init is the one-shot page-load check. Values holds the controls' initial
// values and Options the options the host page rendered for upstream controls.
type Init struct {
	Values  map[string]models.EntityID
	Options map[string][]models.Entity
}

// Changed is a change notification from one control
type Changed struct {
	Control string
	Value   models.EntityID
}

// GroupsLoaded carries a successful team-group query back to the form
type GroupsLoaded struct {
	Generation uint64
	Groups     []models.Group
	Preserved1 models.EntityID
	Preserved2 models.EntityID
}

// GroupsFailed carries a failed team-group query back to the form
type GroupsFailed struct {
	Generation uint64
	Err        error
}

// PartnerLoaded carries a previous-partner answer back to the form
type PartnerLoaded struct {
	Generation uint64
	PlayerID   models.EntityID
	PartnerID  models.EntityID
}

// PartnerFailed carries a failed previous-partner query back to the form
type PartnerFailed struct {
	Generation uint64
	Err        error
}

func (Init) event()          {}
func (Changed) event()       {}
func (GroupsLoaded) event()  {}
func (GroupsFailed) event()  {}
func (PartnerLoaded) event() {}
func (PartnerFailed) event() {}

// Effect is work a form asks its runtime to perform
type Effect interface {
	effect()
}

// FetchGroups asks for the team groups of a tournament. The preserved values
// are echoed back in GroupsLoaded.
type FetchGroups struct {
	Generation   uint64
	TournamentID models.EntityID
	Preserved1   models.EntityID
	Preserved2   models.EntityID
}

// FetchPartner asks for the previous partner of a player
type FetchPartner struct {
	Generation uint64
	PlayerID   models.EntityID
}

// ReportFailure sends a non-blocking failure to the diagnostic channel
type ReportFailure struct {
	Op  string
	Err error
}

// ReportStale notes that a fetch result was dropped because a newer request exists
type ReportStale struct {
	Op         string
	Generation uint64
}

// Render asks the runtime to publish the form's current snapshot
type Render struct{}

func (FetchGroups) effect()   {}
func (FetchPartner) effect()  {}
func (ReportFailure) effect() {}
func (ReportStale) effect()   {}
func (Render) effect()        {}

// Phase is the fetch state of a control pair
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseLoading
	PhasePopulated
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhasePopulated:
		return "populated"
	default:
		return "empty"
	}
}

// StalePolicy decides what happens to a fetch result that is not the latest issued
type StalePolicy int

const (
	// DiscardStale drops results of superseded requests
	DiscardStale StalePolicy = iota
	// ApplyStale applies every result in arrival order (last write wins)
	ApplyStale
)

func (p StalePolicy) String() string {
	if p == ApplyStale {
		return "apply"
	}
	return "discard"
}

// ParseStalePolicy accepts "discard" or "apply" (case-insensitive)
func ParseStalePolicy(s string) (StalePolicy, error) {
	switch strings.ToLower(s) {
	case "discard", "":
		return DiscardStale, nil
	case "apply":
		return ApplyStale, nil
	default:
		return DiscardStale, fmt.Errorf("unknown stale policy %q (want discard or apply)", s)
	}
}

// accepts reports whether a result of generation gen should be applied
func (p StalePolicy) accepts(gen, latest uint64) bool {
	return gen == latest || p == ApplyStale
}
