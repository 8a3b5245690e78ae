package websocket

import (
	"context"
	"encoding/json"
	"html/template"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/pairsync/internal/errors"
	"github.com/abrezinsky/pairsync/internal/formloop"
	"github.com/abrezinsky/pairsync/internal/logger"
	"github.com/abrezinsky/pairsync/internal/models"
	"github.com/abrezinsky/pairsync/internal/render"
	"github.com/abrezinsky/pairsync/internal/selection"
	"github.com/abrezinsky/pairsync/pkg/tournamentapi"
)

// Message types exchanged with the host page
const (
	MsgInit       = "init"
	MsgChange     = "change"
	MsgControls   = "controls"
	MsgDiagnostic = "diagnostic"
)

// ControlsPayload is pushed after every render
type ControlsPayload struct {
	Session    string                    `json:"session"`
	Kind       selection.Kind            `json:"kind"`
	Phase      string                    `json:"phase"`
	Generation uint64                    `json:"generation"`
	Controls   []selection.ControlState  `json:"controls"`
	HTML       map[string]template.HTML `json:"html"`
}

// Inbound is an unparsed message from the host page
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// InitPayload carries the values and options the page was rendered with
type InitPayload struct {
	Values  map[string]tournamentapi.FlexID `json:"values"`
	Options map[string][]EntityPayload      `json:"options"`
}

// EntityPayload is one option supplied by the host page
type EntityPayload struct {
	ID   tournamentapi.FlexID `json:"id"`
	Name string               `json:"name"`
}

// ChangePayload reports a user's choice in one control
type ChangePayload struct {
	Control string               `json:"control"`
	Value   tournamentapi.FlexID `json:"value"`
}

// Session is one connected form: a websocket plus the loop that owns the form state
type Session struct {
	hub    *Hub
	id     string
	kind   selection.Kind
	log    logger.Logger
	conn   *websocket.Conn
	send   chan models.WSMessage
	loop   *formloop.Loop
	cancel context.CancelFunc
	// closed when the send buffer overflows; readPump then tears the session down
	overflow sync.Once
}

// ID returns the session's unique id
func (s *Session) ID() string {
	return s.id
}

// PublishSnapshot implements formloop.Publisher
func (s *Session) PublishSnapshot(snapshot selection.Snapshot) {
	html, err := render.Snapshot(snapshot)
	if err != nil {
		s.log.Error("Failed to render controls", "error", err)
		s.PublishDiagnostic(formloop.Diagnostic{Op: "render", Kind: errors.ErrInternal.String(), Error: err.Error()})
		return
	}
	s.enqueue(models.WSMessage{
		Type: MsgControls,
		Payload: ControlsPayload{
			Session:    s.id,
			Kind:       snapshot.Kind,
			Phase:      snapshot.Phase,
			Generation: snapshot.Generation,
			Controls:   snapshot.Controls,
			HTML:       html,
		},
	})
}

// PublishDiagnostic implements formloop.Publisher
func (s *Session) PublishDiagnostic(d formloop.Diagnostic) {
	s.enqueue(models.WSMessage{Type: MsgDiagnostic, Payload: d})
}

// enqueue never blocks. A session that cannot keep up is disconnected rather than
// left showing an outdated snapshot; the page reconnects and receives a fresh one.
func (s *Session) enqueue(msg models.WSMessage) {
	select {
	case s.send <- msg:
	default:
		s.overflow.Do(func() {
			s.log.Warn("Send buffer full, closing slow session", "type", msg.Type)
			s.conn.Close()
		})
	}
}

// decode turns an inbound message into a form event
func decode(in Inbound) (selection.Event, error) {
	switch in.Type {
	case MsgInit:
		var p InitPayload
		if len(in.Payload) > 0 {
			if err := json.Unmarshal(in.Payload, &p); err != nil {
				return nil, errors.Wrap(err, errors.ErrInvalidInput, "malformed init payload")
			}
		}
		ev := selection.Init{
			Values:  make(map[string]models.EntityID, len(p.Values)),
			Options: make(map[string][]models.Entity, len(p.Options)),
		}
		for key, v := range p.Values {
			ev.Values[key] = v.EntityID()
		}
		for key, entries := range p.Options {
			entities := make([]models.Entity, 0, len(entries))
			for _, e := range entries {
				entities = append(entities, models.Entity{ID: e.ID.EntityID(), Name: e.Name})
			}
			ev.Options[key] = entities
		}
		return ev, nil

	case MsgChange:
		var p ChangePayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, errors.Wrap(err, errors.ErrInvalidInput, "malformed change payload")
		}
		if p.Control == "" {
			return nil, errors.InvalidInput("change without control")
		}
		return selection.Changed{Control: p.Control, Value: p.Value.EntityID()}, nil

	default:
		return nil, errors.NotFoundf("unknown message type %q", in.Type)
	}
}

// readPump feeds messages from the websocket connection to the session's loop
func (s *Session) readPump() {
	defer func() {
		s.cancel()
		<-s.loop.Done()
		select {
		case s.hub.unregister <- s:
		case <-s.hub.quit:
		}
		s.conn.Close()
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		var in Inbound
		if err := json.Unmarshal(message, &in); err != nil {
			s.reject(errors.Wrap(err, errors.ErrInvalidInput, "malformed message"))
			continue
		}

		ev, err := decode(in)
		if errors.KindOf(err) == errors.ErrNotFound {
			s.log.Debug("Ignoring message", "type", in.Type)
			continue
		}
		if err != nil {
			s.reject(err)
			continue
		}

		s.log.Debug("Received message", "type", in.Type)
		if !s.loop.Dispatch(ev) {
			break
		}
	}
}

func (s *Session) reject(err error) {
	s.log.Warn("Rejected message", "error", err)
	s.PublishDiagnostic(formloop.Diagnostic{Op: "message", Kind: errors.KindOf(err).String(), Error: err.Error()})
}

// writePump pumps messages from the session to the websocket connection
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := s.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			msgBytes, err := json.Marshal(message)
			if err != nil {
				s.log.Error("Failed to encode message", "type", message.Type, "error", err)
				w.Close()
				continue
			}
			w.Write(msgBytes)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
