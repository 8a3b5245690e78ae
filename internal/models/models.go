package models

// EntityID identifies a selectable team or player. The empty value means "no selection".
type EntityID string

// NoSelection is the value of a control showing its placeholder option
const NoSelection EntityID = ""

// IsEmpty reports whether id is the no-selection value
func (id EntityID) IsEmpty() bool {
	return id == NoSelection
}

// Entity is a selectable domain object (team or player)
type Entity struct {
	ID   EntityID `json:"id"`
	Name string   `json:"name"`
}

// Group is a named partition of entities, e.g. a tournament pool
type Group struct {
	Name    string   `json:"name"`
	Members []Entity `json:"members"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
