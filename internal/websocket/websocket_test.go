package websocket

import (
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/pairsync/internal/formloop"
	"github.com/abrezinsky/pairsync/internal/logger"
	"github.com/abrezinsky/pairsync/internal/models"
	"github.com/abrezinsky/pairsync/internal/selection"
	"github.com/abrezinsky/pairsync/internal/testutil"
	"github.com/abrezinsky/pairsync/pkg/tournamentapi"
)

// received mirrors models.WSMessage with the payload left raw
type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func startHub(t *testing.T, client tournamentapi.Client, kind selection.Kind, opts ...Option) (*Hub, string) {
	t.Helper()
	hub := New(logger.Discard(), client, opts...)
	hub.Start()

	server := httptest.NewServer(hub.ServeWs(kind))
	t.Cleanup(func() {
		server.Close()
		hub.Close()
	})
	return hub, testutil.WSURL(server, "")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()
	if err := ws.WriteJSON(models.WSMessage{Type: msgType, Payload: payload}); err != nil {
		t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

// readUntil reads messages until match accepts one or the deadline passes
func readUntil(t *testing.T, ws *websocket.Conn, match func(received) bool) received {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("failed to read message: %v", err)
		}
		var msg received
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func controls(t *testing.T, msg received) ControlsPayload {
	t.Helper()
	var p ControlsPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		t.Fatalf("failed to decode controls payload: %v", err)
	}
	return p
}

func controlsInPhase(t *testing.T, phase selection.Phase) func(received) bool {
	return func(msg received) bool {
		return msg.Type == MsgControls && controls(t, msg).Phase == phase.String()
	}
}

func isType(msgType string) func(received) bool {
	return func(msg received) bool { return msg.Type == msgType }
}

func TestNew_Defaults(t *testing.T) {
	hub := New(logger.Discard(), tournamentapi.NewMockClient())

	if hub.policy != selection.DiscardStale {
		t.Errorf("expected discard policy by default, got %v", hub.policy)
	}
	if hub.sessions == nil {
		t.Error("expected sessions map to be initialized")
	}
	if hub.Sessions() != 0 {
		t.Errorf("expected no sessions, got %d", hub.Sessions())
	}
}

func TestNew_Options(t *testing.T) {
	hub := New(logger.Discard(), tournamentapi.NewMockClient(),
		WithStalePolicy(selection.ApplyStale),
		WithRequestTimeout(3*time.Second))

	if hub.policy != selection.ApplyStale {
		t.Errorf("expected apply policy, got %v", hub.policy)
	}
	if hub.timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", hub.timeout)
	}
}

func TestServeWs_InitialSnapshot(t *testing.T) {
	hub, url := startHub(t, tournamentapi.NewMockClient(), selection.KindMatch)
	ws := dial(t, url)

	p := controls(t, readUntil(t, ws, isType(MsgControls)))
	if p.Session == "" {
		t.Error("expected a session id")
	}
	if p.Kind != selection.KindMatch || p.Phase != "empty" {
		t.Errorf("unexpected initial state %s/%s", p.Kind, p.Phase)
	}
	if !strings.Contains(string(p.HTML[selection.KeyTeam1]), `id="id_team1"`) {
		t.Errorf("expected team1 markup, got %q", p.HTML[selection.KeyTeam1])
	}

	testutil.Eventually(t, func() bool { return hub.Sessions() == 1 })
}

func TestServeWs_InitLoadsTeams(t *testing.T) {
	_, url := startHub(t, tournamentapi.NewMockClient(), selection.KindMatch)
	ws := dial(t, url)
	readUntil(t, ws, isType(MsgControls))

	send(t, ws, MsgInit, map[string]interface{}{
		"values":  map[string]interface{}{"tournament": 1, "team1": "2", "team2": nil},
		"options": map[string]interface{}{"tournament": tournamentapi.DefaultMockTournaments()},
	})

	p := controls(t, readUntil(t, ws, controlsInPhase(t, selection.PhasePopulated)))
	var team1 selection.ControlState
	for _, c := range p.Controls {
		if c.Key == selection.KeyTeam1 {
			team1 = c
		}
	}
	if team1.Value != "2" {
		t.Errorf("expected the page's team1 value to survive, got %q", team1.Value)
	}
	// team 2 sits in Gruppe A, so Gruppe B is hidden
	for _, o := range team1.Options {
		if o.Group == "Gruppe B" && !o.Hidden {
			t.Errorf("expected %s to be hidden", o.Label)
		}
	}
}

func TestServeWs_MalformedChangeReportsDiagnostic(t *testing.T) {
	_, url := startHub(t, tournamentapi.NewMockClient(), selection.KindMatch)
	ws := dial(t, url)
	readUntil(t, ws, isType(MsgControls))

	send(t, ws, MsgChange, map[string]interface{}{"value": "1"})

	msg := readUntil(t, ws, isType(MsgDiagnostic))
	var d formloop.Diagnostic
	if err := json.Unmarshal(msg.Payload, &d); err != nil {
		t.Fatalf("failed to decode diagnostic: %v", err)
	}
	if d.Kind != "invalid_input" {
		t.Errorf("expected invalid_input, got %q", d.Kind)
	}
}

func TestServeWs_UnknownTypeIgnored(t *testing.T) {
	_, url := startHub(t, tournamentapi.NewMockClient(), selection.KindMatch)
	ws := dial(t, url)
	readUntil(t, ws, isType(MsgControls))

	send(t, ws, "hello", nil)
	send(t, ws, MsgChange, ChangePayload{Control: selection.KeyTournament, Value: "2"})

	msg := readUntil(t, ws, func(received) bool { return true })
	if msg.Type != MsgControls {
		t.Errorf("expected the change to answer first, got %s", msg.Type)
	}
}

func TestServeWs_PartnerAutofill(t *testing.T) {
	client := tournamentapi.NewMockClient(tournamentapi.WithPartner("42", "9"))
	_, url := startHub(t, client, selection.KindTeam)
	ws := dial(t, url)
	readUntil(t, ws, isType(MsgControls))

	send(t, ws, MsgInit, map[string]interface{}{
		"options": map[string]interface{}{
			"player1": []map[string]interface{}{{"id": 7, "name": "Max"}, {"id": 9, "name": "Mia"}, {"id": 42, "name": "Anna"}},
		},
	})
	send(t, ws, MsgChange, map[string]interface{}{"control": "player1", "value": 42})

	readUntil(t, ws, func(msg received) bool {
		if msg.Type != MsgControls {
			return false
		}
		for _, c := range controls(t, msg).Controls {
			if c.Key == selection.KeyPlayer2 && c.Value == "9" {
				return true
			}
		}
		return false
	})
}

func TestServeWs_UnknownKind(t *testing.T) {
	hub := New(logger.Discard(), tournamentapi.NewMockClient())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ws/player", nil)

	hub.ServeWs(selection.Kind("player"))(rec, req)

	if rec.Code != 404 {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t, tournamentapi.NewMockClient(), selection.KindMatch)
	ws := dial(t, url)
	readUntil(t, ws, isType(MsgControls))

	ws.Close()

	testutil.Eventually(t, func() bool { return hub.Sessions() == 0 })
}

func TestHub_CloseDisconnectsSessions(t *testing.T) {
	hub, url := startHub(t, tournamentapi.NewMockClient(), selection.KindMatch)
	ws := dial(t, url)
	readUntil(t, ws, isType(MsgControls))

	hub.Close()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			var netErr net.Error
			if stderrors.As(err, &netErr) && netErr.Timeout() {
				t.Fatalf("expected the connection to drop, got %v", err)
			}
			return
		}
	}
}

func TestSession_FullBufferClosesConnection(t *testing.T) {
	conns := make(chan *websocket.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		conns <- conn
	}))
	defer server.Close()

	ws := dial(t, testutil.WSURL(server, ""))
	serverConn := <-conns

	s := &Session{
		id:   "slow",
		log:  logger.Discard(),
		conn: serverConn,
		send: make(chan models.WSMessage, 1),
	}
	s.PublishDiagnostic(formloop.Diagnostic{Op: "teams", Kind: "network", Error: "first"})
	s.PublishDiagnostic(formloop.Diagnostic{Op: "teams", Kind: "network", Error: "second"})
	s.PublishDiagnostic(formloop.Diagnostic{Op: "teams", Kind: "network", Error: "third"})

	if n := len(s.send); n != 1 {
		t.Errorf("expected the first message queued, got %d", n)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := ws.ReadMessage()
	if err == nil {
		t.Fatal("expected the connection to drop")
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		t.Fatalf("expected the connection to drop, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      Inbound
		wantErr bool
		check   func(t *testing.T, ev selection.Event)
	}{
		{
			name: "change with numeric value",
			in:   Inbound{Type: MsgChange, Payload: json.RawMessage(`{"control":"team1","value":5}`)},
			check: func(t *testing.T, ev selection.Event) {
				if ev != (selection.Changed{Control: "team1", Value: "5"}) {
					t.Errorf("unexpected event %+v", ev)
				}
			},
		},
		{
			name: "change to placeholder",
			in:   Inbound{Type: MsgChange, Payload: json.RawMessage(`{"control":"team1","value":null}`)},
			check: func(t *testing.T, ev selection.Event) {
				if ev.(selection.Changed).Value != models.NoSelection {
					t.Errorf("expected no selection, got %+v", ev)
				}
			},
		},
		{
			name:    "change without control",
			in:      Inbound{Type: MsgChange, Payload: json.RawMessage(`{"value":"1"}`)},
			wantErr: true,
		},
		{
			name:    "change with object value",
			in:      Inbound{Type: MsgChange, Payload: json.RawMessage(`{"control":"team1","value":{}}`)},
			wantErr: true,
		},
		{
			name: "init without payload",
			in:   Inbound{Type: MsgInit},
			check: func(t *testing.T, ev selection.Event) {
				init := ev.(selection.Init)
				if len(init.Values) != 0 || len(init.Options) != 0 {
					t.Errorf("expected empty init, got %+v", init)
				}
			},
		},
		{
			name: "init with options",
			in: Inbound{Type: MsgInit, Payload: json.RawMessage(
				`{"values":{"tournament":"1"},"options":{"tournament":[{"id":1,"name":"Sommer Cup"}]}}`)},
			check: func(t *testing.T, ev selection.Event) {
				init := ev.(selection.Init)
				if init.Values["tournament"] != "1" {
					t.Errorf("unexpected values %+v", init.Values)
				}
				if got := init.Options["tournament"]; len(got) != 1 || got[0].ID != "1" || got[0].Name != "Sommer Cup" {
					t.Errorf("unexpected options %+v", got)
				}
			},
		},
		{
			name:    "unknown type",
			in:      Inbound{Type: "hello"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := decode(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got event %+v", ev)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, ev)
		})
	}
}
