package selection

import (
	"github.com/abrezinsky/pairsync/internal/errors"
	"github.com/abrezinsky/pairsync/internal/models"
)

// Synchronizer keeps two paired controls consistent with each other and with
// the grouped options behind the upstream control.
type Synchronizer struct {
	upstream Selector
	first    Selector
	second   Selector
}

// NewSynchronizer wires the upstream selector and the two paired selectors
func NewSynchronizer(upstream, first, second Selector) *Synchronizer {
	return &Synchronizer{upstream: upstream, first: first, second: second}
}

// Clear resets both paired controls to the placeholder and returns the values
// they held, so they can be restored after the next rebuild.
func (s *Synchronizer) Clear() (preserved1, preserved2 models.EntityID) {
	return s.first.Clear(), s.second.Clear()
}

// Rebuild repopulates both paired controls from groups in order and restores
// the preserved selections that are still present. With no upstream value
// both controls are left cleared.
func (s *Synchronizer) Rebuild(groups []models.Group, preserved1, preserved2 models.EntityID) {
	s.Clear()
	if s.upstream.Value().IsEmpty() {
		return
	}

	for _, g := range groups {
		s.first.AppendGroup(g.Name, g.Members)
		s.second.AppendGroup(g.Name, g.Members)
	}
	s.first.Select(preserved1)
	s.second.Select(preserved2)
}

// SyncVisibility shows only the second control's options that share a group with
// the first control's selection, or every option when nothing is selected.
// The second control's selection is never changed.
func (s *Synchronizer) SyncVisibility() {
	group, ok := selectedGroup(s.first)

	for i, o := range s.second.Options() {
		if !ok {
			s.second.SetHidden(i, false)
			continue
		}
		if o.Group != "" {
			s.second.SetHidden(i, o.Group != group)
		}
	}
}

// selectedGroup returns the group of the selected option when it is grouped
func selectedGroup(sel Selector) (string, bool) {
	value := sel.Value()
	if value.IsEmpty() {
		return "", false
	}
	for _, o := range sel.Options() {
		if o.Value == value && o.Group != "" {
			return o.Group, true
		}
	}
	return "", false
}

// PartnerFill fills the partner control with the upstream player's previous partner
type PartnerFill struct {
	upstream Selector
	partner  Selector
}

// NewPartnerFill wires the upstream player selector and the partner selector
func NewPartnerFill(upstream, partner Selector) *PartnerFill {
	return &PartnerFill{upstream: upstream, partner: partner}
}

// Lookup returns the player whose previous partner should be queried. It reports
// false when no player is chosen or a partner is already selected.
func (p *PartnerFill) Lookup() (models.EntityID, bool) {
	player := p.upstream.Value()
	if player.IsEmpty() || !p.partner.Value().IsEmpty() {
		return models.NoSelection, false
	}
	return player, true
}

// Apply selects partnerID unless the partner control already holds a choice.
// It returns whether the selection changed.
func (p *PartnerFill) Apply(partnerID models.EntityID) (bool, error) {
	if partnerID.IsEmpty() || !p.partner.Value().IsEmpty() {
		return false, nil
	}
	if !p.partner.Select(partnerID) {
		return false, errors.NotFoundf("partner %s is not an option of %s", partnerID, p.partner.Key())
	}
	return true, nil
}
