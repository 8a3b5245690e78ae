package selection

import "github.com/abrezinsky/pairsync/internal/models"

// PlaceholderLabel is the text of the "no selection" sentinel option
const PlaceholderLabel = "---------"

// Option is one entry of a selection control. Group is empty for plain options.
type Option struct {
	Value  models.EntityID `json:"value"`
	Label  string          `json:"label"`
	Group  string          `json:"group,omitempty"`
	Hidden bool            `json:"hidden,omitempty"`
}

// IsPlaceholder reports whether the option is the "no selection" sentinel
func (o Option) IsPlaceholder() bool {
	return o.Value.IsEmpty()
}

// Selector is the surface of a single select element that the synchronizer drives
type Selector interface {
	Key() string
	Value() models.EntityID
	Select(id models.EntityID) bool
	Clear() models.EntityID
	AppendGroup(name string, members []models.Entity)
	AppendOptions(members []models.Entity)
	Options() []Option
	SetHidden(index int, hidden bool)
}

// ControlState is the serializable view of a control
type ControlState struct {
	Key     string          `json:"key"`
	Value   models.EntityID `json:"value"`
	Options []Option        `json:"options"`
}

// Control is an in-memory select element: ordered options, at most one selected
// value, and a hidden flag per option. Hidden options stay selectable.
type Control struct {
	key      string
	options  []Option
	selected models.EntityID
	// external controls have their options rendered by the host page. Until
	// options are supplied they accept any value.
	external bool
}

// NewControl creates a cleared control
func NewControl(key string) *Control {
	c := &Control{key: key}
	c.Clear()
	return c
}

// NewExternalControl creates a cleared upstream control whose options may be owned by the host page
func NewExternalControl(key string) *Control {
	c := NewControl(key)
	c.external = true
	return c
}

// Key returns the control's stable key, e.g. "team1"
func (c *Control) Key() string {
	return c.key
}

// Value returns the selected entity id, or NoSelection
func (c *Control) Value() models.EntityID {
	return c.selected
}

// Select makes id the logical selection. Selecting NoSelection always succeeds.
// It returns false and leaves the selection unchanged if id is not an option.
func (c *Control) Select(id models.EntityID) bool {
	if id.IsEmpty() {
		c.selected = models.NoSelection
		return true
	}
	if c.external && len(c.options) == 1 {
		c.selected = id
		return true
	}
	if c.indexOf(id) < 0 {
		return false
	}
	c.selected = id
	return true
}

// Clear drops every option except the placeholder and returns the value that was selected
func (c *Control) Clear() models.EntityID {
	previous := c.selected
	c.options = []Option{{Value: models.NoSelection, Label: PlaceholderLabel}}
	c.selected = models.NoSelection
	return previous
}

// AppendGroup adds one option per member under a group label, in member order
func (c *Control) AppendGroup(name string, members []models.Entity) {
	for _, m := range members {
		c.options = append(c.options, Option{Value: m.ID, Label: m.Name, Group: name})
	}
}

// AppendOptions adds ungrouped options in order
func (c *Control) AppendOptions(members []models.Entity) {
	c.AppendGroup("", members)
}

// Options returns a copy of all options, placeholder first
func (c *Control) Options() []Option {
	return append([]Option(nil), c.options...)
}

// Visible returns the options presented to the user
func (c *Control) Visible() []Option {
	var visible []Option
	for _, o := range c.options {
		if !o.Hidden {
			visible = append(visible, o)
		}
	}
	return visible
}

// SetHidden toggles the hidden flag of the option at index; out-of-range indexes are ignored
func (c *Control) SetHidden(index int, hidden bool) {
	if index < 0 || index >= len(c.options) {
		return
	}
	c.options[index].Hidden = hidden
}

// GroupOf returns the group label of the option with the given value
func (c *Control) GroupOf(id models.EntityID) (string, bool) {
	i := c.indexOf(id)
	if i < 0 {
		return "", false
	}
	return c.options[i].Group, true
}

// Groups returns the distinct group labels in order of first appearance
func (c *Control) Groups() []string {
	var names []string
	seen := make(map[string]bool)
	for _, o := range c.options {
		if o.Group == "" || seen[o.Group] {
			continue
		}
		seen[o.Group] = true
		names = append(names, o.Group)
	}
	return names
}

// State returns a serializable copy of the control
func (c *Control) State() ControlState {
	return ControlState{Key: c.key, Value: c.selected, Options: c.Options()}
}

func (c *Control) indexOf(id models.EntityID) int {
	for i, o := range c.options {
		if o.Value == id {
			return i
		}
	}
	return -1
}

func (c *Control) clone() *Control {
	cp := *c
	cp.options = append([]Option(nil), c.options...)
	return &cp
}

var _ Selector = (*Control)(nil)
