package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/cardstudio/cardstudio/internal/auth"
	"github.com/cardstudio/cardstudio/internal/protocol"
)

type tokens map[string]string

func (t tokens) ValidateToken(token string) (string, error) {
	if user, ok := t[token]; ok {
		return user, nil
	}
	return "", auth.ErrInvalidToken
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub, *memStorage) {
	t.Helper()
	store := newMemStorage()
	store.designs["card_a"] = []byte(twoRects)
	hub := NewHub(discard)
	h := NewHandler(hub, tokens{"tok": "u1"}, func(string) Storage { return store }, nil, Options{Logger: discard})
	r := mux.NewRouter()
	h.Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		shutdown(t, hub)
		srv.Close()
	})
	return srv, hub, store
}

func dial(t *testing.T, ctx context.Context, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
	if err != nil {
		t.Fatalf("Dial %s: %v", path, err)
	}
	return conn
}

func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, seq int64) *protocol.Message {
	t.Helper()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Read waiting for %s: %v", typ, err)
		}
		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if msg.Type == typ && msg.Seq == seq {
			return &msg
		}
	}
}

func TestHandlerRejectsBeforeUpgrade(t *testing.T) {
	srv, _, _ := newTestServer(t)

	cases := []struct {
		name   string
		path   string
		status int
	}{
		{"no token", "/ws/cards/card_a", http.StatusUnauthorized},
		{"bad token", "/ws/cards/card_a?token=nope", http.StatusUnauthorized},
		{"missing card", "/ws/cards/card_missing?token=tok", http.StatusNotFound},
		{"not owner", "/ws/cards/card_theirs?token=tok", http.StatusForbidden},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + c.path)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != c.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, c.status)
			}
		})
	}
}

func TestHandlerEditSession(t *testing.T) {
	srv, hub, store := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, srv, "/ws/cards/card_a?token=tok")
	welcome := readUntil(t, ctx, conn, protocol.TypeWelcome, 0)
	var wp protocol.WelcomePayload
	json.Unmarshal(welcome.Payload, &wp)
	if wp.CardID != "card_a" || wp.SessionID == "" {
		t.Fatalf("welcome = %+v", wp)
	}

	resp, err := http.Get(srv.URL + "/ws/cards/card_a?token=tok")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second open status = %d", resp.StatusCode)
	}

	frames := []string{
		`{"type":"selection.set","seq":1,"payload":{"ids":["a"]}}`,
		`{"type":"element.delete","seq":2}`,
	}
	for _, f := range frames {
		if err := conn.Write(ctx, websocket.MessageText, []byte(f)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	state := readUntil(t, ctx, conn, protocol.TypeState, 2)
	var v struct {
		Selection []string `json:"selection"`
		Dirty     bool     `json:"dirty"`
	}
	json.Unmarshal(state.Payload, &v)
	if len(v.Selection) != 0 || !v.Dirty {
		t.Fatalf("after delete: %+v", v)
	}

	conn.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(waitTimeout)
	for {
		_, updates := store.counts()
		if updates == 1 && !hub.Busy("card_a") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("close did not flush and release: updates %d busy %v", updates, hub.Busy("card_a"))
		}
		time.Sleep(5 * time.Millisecond)
	}
	if doc := store.doc(t, "card_a"); len(doc.Elements) != 1 || doc.Elements[0].ID != "b" {
		t.Fatalf("flushed elements = %+v", doc.Elements)
	}
}

func TestHandlerNewCard(t *testing.T) {
	srv, _, store := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, srv, "/ws/cards/"+NewCardID+"?token=tok")
	defer conn.Close(websocket.StatusNormalClosure, "")
	readUntil(t, ctx, conn, protocol.TypeWelcome, 0)

	for i, f := range []string{
		`{"type":"doc.load","seq":%d,"payload":{"template":"bold"}}`,
		`{"type":"element.add","seq":%d,"payload":{"shape":"ellipse"}}`,
		`{"type":"save","seq":%d}`,
	} {
		conn.Write(ctx, websocket.MessageText, []byte(fmt.Sprintf(f, i+1)))
	}
	ok := readUntil(t, ctx, conn, protocol.TypeSaveOK, 0)
	var p protocol.SaveOKPayload
	json.Unmarshal(ok.Payload, &p)
	if p.CardID != "card_1" {
		t.Fatalf("created card = %q", p.CardID)
	}
	if creates, _ := store.counts(); creates != 1 {
		t.Fatalf("creates = %d", creates)
	}
}
