package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func TestWSClient_Connect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer conn.Close()

		// Keep connection open
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if client.closed.Load() {
		t.Error("client should not be closed")
	}
}

func TestWSClient_SubscribeProgram(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer c.Close()

		// Read subscribe request
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}

		if req.Method != "programSubscribe" {
			t.Errorf("expected programSubscribe, got %s", req.Method)
		}
		if len(req.Params) < 1 {
			t.Errorf("expected program id param")
			return
		}
		if got := req.Params[0]; got != "EydBxtu5e4mNEEnCYAxNdzFmRjN2wUTiWuHfkYDRfABA" {
			t.Errorf("expected program id param, got %v", got)
		}

		// Send subscription confirmation
		resp := wsSubscribeResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  12345, // subscription ID
		}
		if err := c.WriteJSON(resp); err != nil {
			t.Errorf("write response: %v", err)
			return
		}

		// Send an account notification
		time.Sleep(50 * time.Millisecond)
		value := wsAccountValue{Pubkey: "5Ybqn2iTzqt6MLzAxG9QpRZeJP2EQxqkYzGsYoZNe6wA"}
		value.Account.Lamports = 2039280
		value.Account.Owner = "EydBxtu5e4mNEEnCYAxNdzFmRjN2wUTiWuHfkYDRfABA"
		value.Account.Data = []string{"dGVzdGRhdGE=", "base64"}

		notif := wsNotification{
			JSONRPC: "2.0",
			Method:  "programNotification",
			Params: &wsNotificationParams{
				Subscription: 12345,
				Result: wsNotificationResult{
					Context: &wsContext{Slot: 100},
					Value:   value,
				},
			},
		}
		if err := c.WriteJSON(notif); err != nil {
			t.Errorf("write notification: %v", err)
			return
		}

		// Keep connection open
		for {
			_, _, err := c.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	ctx := context.Background()
	client, err := NewWSClient(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeProgram(ctx, ProgramFilter{
		ProgramID: "EydBxtu5e4mNEEnCYAxNdzFmRjN2wUTiWuHfkYDRfABA",
	})
	if err != nil {
		t.Fatalf("SubscribeProgram: %v", err)
	}

	select {
	case n := <-ch:
		if n.Pubkey != "5Ybqn2iTzqt6MLzAxG9QpRZeJP2EQxqkYzGsYoZNe6wA" {
			t.Errorf("unexpected pubkey %q", n.Pubkey)
		}
		if n.Lamports != 2039280 {
			t.Errorf("unexpected lamports %d", n.Lamports)
		}
		if n.Owner != "EydBxtu5e4mNEEnCYAxNdzFmRjN2wUTiWuHfkYDRfABA" {
			t.Errorf("unexpected owner %q", n.Owner)
		}
		if n.Data != "dGVzdGRhdGE=" {
			t.Errorf("unexpected data %q", n.Data)
		}
		if n.Slot != 100 {
			t.Errorf("unexpected slot %d", n.Slot)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notification")
	}
}

func TestWSClient_SubscribeProgramRequiresProgramID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer conn.Close()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	client, err := NewWSClient(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if _, err := client.SubscribeProgram(context.Background(), ProgramFilter{}); err == nil {
		t.Error("expected error for empty program id")
	}
}

func TestWSClient_CloseIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer conn.Close()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	client, err := NewWSClient(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := client.SubscribeProgram(context.Background(), ProgramFilter{
		ProgramID: "EydBxtu5e4mNEEnCYAxNdzFmRjN2wUTiWuHfkYDRfABA",
	}); err == nil {
		t.Error("expected error subscribing on closed client")
	}
}

func TestWSClient_ConnectFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewWSClient(ctx, "ws://127.0.0.1:1", nil); err == nil {
		t.Error("expected dial error")
	}
}
