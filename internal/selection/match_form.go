package selection

import "github.com/abrezinsky/pairsync/internal/models"

// MatchForm picks two teams. Choosing a tournament fetches its teams grouped by
// tournament group into team1 and team2; choosing team1 narrows team2 to team1's group.
type MatchForm struct {
	tournament *Control
	team1      *Control
	team2      *Control
	phase      Phase
	generation uint64
	policy     StalePolicy
}

// NewMatchForm creates a match form with all controls cleared
func NewMatchForm(policy StalePolicy) MatchForm {
	return MatchForm{
		tournament: NewExternalControl(KeyTournament),
		team1:      NewControl(KeyTeam1),
		team2:      NewControl(KeyTeam2),
		policy:     policy,
	}
}

func (f MatchForm) Kind() Kind           { return KindMatch }
func (f MatchForm) Phase() Phase         { return f.phase }
func (f MatchForm) Generation() uint64   { return f.generation }
func (f MatchForm) Tournament() *Control { return f.tournament.clone() }
func (f MatchForm) Team1() *Control      { return f.team1.clone() }
func (f MatchForm) Team2() *Control      { return f.team2.clone() }

// Reduce implements Form
func (f MatchForm) Reduce(ev Event) (Form, []Effect) {
	return f.Handle(ev)
}

// Snapshot implements Form
func (f MatchForm) Snapshot() Snapshot {
	return Snapshot{
		Kind:       KindMatch,
		Phase:      f.phase.String(),
		Generation: f.generation,
		Controls:   []ControlState{f.tournament.State(), f.team1.State(), f.team2.State()},
	}
}

func (f MatchForm) clone() MatchForm {
	f.tournament = f.tournament.clone()
	f.team1 = f.team1.clone()
	f.team2 = f.team2.clone()
	return f
}

func (f MatchForm) sync() *Synchronizer {
	return NewSynchronizer(f.tournament, f.team1, f.team2)
}

// Handle returns the form after ev and the effects the runtime must perform
func (f MatchForm) Handle(ev Event) (MatchForm, []Effect) {
	next := f.clone()

	switch ev := ev.(type) {
	case Init:
		return next.init(ev)
	case Changed:
		return next.changed(ev)
	case GroupsLoaded:
		return next.groupsLoaded(ev)
	case GroupsFailed:
		return next.groupsFailed(ev)
	default:
		return f, nil
	}
}

func (f MatchForm) init(ev Init) (MatchForm, []Effect) {
	if options, ok := ev.Options[KeyTournament]; ok {
		f.tournament.Clear()
		f.tournament.AppendOptions(options)
	}
	f.sync().Clear()

	if !f.tournament.Select(ev.Values[KeyTournament]) {
		return f, []Effect{invalidValue(f.tournament, Changed{Control: KeyTournament, Value: ev.Values[KeyTournament]}), Render{}}
	}
	return f.load(ev.Values[KeyTeam1], ev.Values[KeyTeam2])
}

func (f MatchForm) changed(ev Changed) (MatchForm, []Effect) {
	switch ev.Control {
	case KeyTournament:
		if !f.tournament.Select(ev.Value) {
			return f, []Effect{invalidValue(f.tournament, ev)}
		}
		preserved1, preserved2 := f.sync().Clear()
		return f.load(preserved1, preserved2)

	case KeyTeam1:
		if !f.team1.Select(ev.Value) {
			return f, []Effect{invalidValue(f.team1, ev)}
		}
		f.sync().SyncVisibility()
		return f, []Effect{Render{}}

	case KeyTeam2:
		if !f.team2.Select(ev.Value) {
			return f, []Effect{invalidValue(f.team2, ev)}
		}
		return f, []Effect{Render{}}

	default:
		return f, []Effect{unknownControl(ev.Control)}
	}
}

// load starts a new generation for the current tournament. Earlier in-flight
// requests become stale even when the tournament was cleared.
func (f MatchForm) load(preserved1, preserved2 models.EntityID) (MatchForm, []Effect) {
	f.generation++

	tournament := f.tournament.Value()
	if tournament.IsEmpty() {
		f.phase = PhaseEmpty
		return f, []Effect{Render{}}
	}

	f.phase = PhaseLoading
	return f, []Effect{
		FetchGroups{
			Generation:   f.generation,
			TournamentID: tournament,
			Preserved1:   preserved1,
			Preserved2:   preserved2,
		},
		Render{},
	}
}

func (f MatchForm) groupsLoaded(ev GroupsLoaded) (MatchForm, []Effect) {
	if !f.policy.accepts(ev.Generation, f.generation) {
		return f, []Effect{ReportStale{Op: "teams", Generation: ev.Generation}}
	}

	s := f.sync()
	s.Rebuild(ev.Groups, ev.Preserved1, ev.Preserved2)
	s.SyncVisibility()

	if f.tournament.Value().IsEmpty() {
		f.phase = PhaseEmpty
	} else if ev.Generation == f.generation || f.phase != PhaseLoading {
		f.phase = PhasePopulated
	}
	return f, []Effect{Render{}}
}

func (f MatchForm) groupsFailed(ev GroupsFailed) (MatchForm, []Effect) {
	if !f.policy.accepts(ev.Generation, f.generation) {
		return f, []Effect{ReportStale{Op: "teams", Generation: ev.Generation}}
	}

	effects := []Effect{ReportFailure{Op: "teams", Err: ev.Err}}
	if ev.Generation == f.generation && f.phase == PhaseLoading {
		f.phase = PhaseEmpty
		effects = append(effects, Render{})
	}
	return f, effects
}
