package selection

// TeamForm picks two players. Choosing player1 while player2 is empty asks for
// player1's previous partner and preselects it.
type TeamForm struct {
	player1    *Control
	player2    *Control
	phase      Phase
	generation uint64
	policy     StalePolicy
}

// NewTeamForm creates a team form with no player options
func NewTeamForm(policy StalePolicy) TeamForm {
	return TeamForm{
		player1: NewExternalControl(KeyPlayer1),
		player2: NewExternalControl(KeyPlayer2),
		policy:  policy,
	}
}

func (f TeamForm) Kind() Kind         { return KindTeam }
func (f TeamForm) Phase() Phase       { return f.phase }
func (f TeamForm) Generation() uint64 { return f.generation }
func (f TeamForm) Player1() *Control  { return f.player1.clone() }
func (f TeamForm) Player2() *Control  { return f.player2.clone() }

// Reduce implements Form
func (f TeamForm) Reduce(ev Event) (Form, []Effect) {
	return f.Handle(ev)
}

// Snapshot implements Form
func (f TeamForm) Snapshot() Snapshot {
	return Snapshot{
		Kind:       KindTeam,
		Phase:      f.phase.String(),
		Generation: f.generation,
		Controls:   []ControlState{f.player1.State(), f.player2.State()},
	}
}

func (f TeamForm) clone() TeamForm {
	f.player1 = f.player1.clone()
	f.player2 = f.player2.clone()
	return f
}

func (f TeamForm) fill() *PartnerFill {
	return NewPartnerFill(f.player1, f.player2)
}

// Handle returns the form after ev and the effects the runtime must perform
func (f TeamForm) Handle(ev Event) (TeamForm, []Effect) {
	next := f.clone()

	switch ev := ev.(type) {
	case Init:
		return next.init(ev)
	case Changed:
		return next.changed(ev)
	case PartnerLoaded:
		return next.partnerLoaded(ev)
	case PartnerFailed:
		return next.partnerFailed(ev)
	default:
		return f, nil
	}
}

// init loads the page's player options and values. The original page never
// autofills on load, so no lookup is issued here.
func (f TeamForm) init(ev Init) (TeamForm, []Effect) {
	players1, ok1 := ev.Options[KeyPlayer1]
	players2, ok2 := ev.Options[KeyPlayer2]
	if !ok2 {
		players2, ok2 = players1, ok1
	}
	if ok1 {
		f.player1.Clear()
		f.player1.AppendOptions(players1)
	}
	if ok2 {
		f.player2.Clear()
		f.player2.AppendOptions(players2)
	}

	var effects []Effect
	for _, c := range []*Control{f.player1, f.player2} {
		value := ev.Values[c.Key()]
		if !c.Select(value) {
			effects = append(effects, invalidValue(c, Changed{Control: c.Key(), Value: value}))
		}
	}

	f.phase = PhaseEmpty
	if !f.player1.Value().IsEmpty() {
		f.phase = PhasePopulated
	}
	return f, append(effects, Render{})
}

func (f TeamForm) changed(ev Changed) (TeamForm, []Effect) {
	switch ev.Control {
	case KeyPlayer1:
		if !f.player1.Select(ev.Value) {
			return f, []Effect{invalidValue(f.player1, ev)}
		}
		f.generation++
		if ev.Value.IsEmpty() {
			f.phase = PhaseEmpty
			return f, []Effect{Render{}}
		}

		player, ok := f.fill().Lookup()
		if !ok {
			f.phase = PhasePopulated
			return f, []Effect{Render{}}
		}
		f.phase = PhaseLoading
		return f, []Effect{FetchPartner{Generation: f.generation, PlayerID: player}, Render{}}

	case KeyPlayer2:
		if !f.player2.Select(ev.Value) {
			return f, []Effect{invalidValue(f.player2, ev)}
		}
		return f, []Effect{Render{}}

	default:
		return f, []Effect{unknownControl(ev.Control)}
	}
}

func (f TeamForm) partnerLoaded(ev PartnerLoaded) (TeamForm, []Effect) {
	if !f.policy.accepts(ev.Generation, f.generation) {
		return f, []Effect{ReportStale{Op: "partner", Generation: ev.Generation}}
	}
	if ev.Generation == f.generation {
		f.phase = PhasePopulated
	}

	var effects []Effect
	if _, err := f.fill().Apply(ev.PartnerID); err != nil {
		effects = append(effects, ReportFailure{Op: "partner", Err: err})
	}
	return f, append(effects, Render{})
}

func (f TeamForm) partnerFailed(ev PartnerFailed) (TeamForm, []Effect) {
	if !f.policy.accepts(ev.Generation, f.generation) {
		return f, []Effect{ReportStale{Op: "partner", Generation: ev.Generation}}
	}

	effects := []Effect{ReportFailure{Op: "partner", Err: ev.Err}}
	if ev.Generation == f.generation && f.phase == PhaseLoading {
		f.phase = PhaseEmpty
		effects = append(effects, Render{})
	}
	return f, effects
}
