//go:build integration

package integration

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const (
	ServerKey = "defaultkey"
	Host      = "127.0.0.1:7350"
)

func serverHost() string {
	if h := os.Getenv("TNTTAG_NAKAMA_HOST"); h != "" {
		return h
	}
	return Host
}

// MatchData is one realtime match message received from the server.
type MatchData struct {
	OpCode int64
	Data   []byte
}

type TestClient struct {
	Token string
	Conn  *websocket.Conn

	cid      int
	incoming chan MatchData
	replies  chan map[string]json.RawMessage
}

type sessionResponse struct {
	Token   string `json:"token"`
	Created bool   `json:"created"`
}

func NewTestClient(t *testing.T) *TestClient {
	t.Helper()

	deviceID := fmt.Sprintf("test_device_%d", time.Now().UnixNano())
	var session sessionResponse
	body, _ := json.Marshal(map[string]string{"id": deviceID})
	req, err := http.NewRequest(http.MethodPost, "http://"+serverHost()+"/v2/account/authenticate/device?create=true", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build authenticate request: %v", err)
	}
	req.SetBasicAuth(ServerKey, "")
	doJSON(t, req, &session)
	if !session.Created {
		t.Fatalf("expected a freshly created account for %s", deviceID)
	}

	u := url.URL{Scheme: "ws", Host: serverHost(), Path: "/ws", RawQuery: url.Values{
		"token":  {session.Token},
		"format": {"json"},
	}.Encode()}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("Failed to connect socket: %v", err)
	}

	tc := &TestClient{
		Token:    session.Token,
		Conn:     conn,
		incoming: make(chan MatchData, 256),
		replies:  make(chan map[string]json.RawMessage, 16),
	}
	go tc.readLoop(conn)
	t.Cleanup(tc.Close)
	return tc
}

func doJSON(t *testing.T, req *http.Request, out interface{}) {
	t.Helper()
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s %s: status %s", req.Method, req.URL.Path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("%s %s: decode: %v", req.Method, req.URL.Path, err)
	}
}

func (tc *TestClient) Close() {
	if tc.Conn == nil {
		return
	}
	tc.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	tc.Conn.Close()
	tc.Conn = nil
}

func (tc *TestClient) readLoop(conn *websocket.Conn) {
	defer close(tc.incoming)
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(payload, &envelope); err != nil {
			continue
		}
		raw, ok := envelope["match_data"]
		if !ok {
			if _, hasCid := envelope["cid"]; hasCid {
				tc.replies <- envelope
			}
			continue
		}
		var md struct {
			OpCode json.RawMessage `json:"op_code"`
			Data   string          `json:"data"`
		}
		if err := json.Unmarshal(raw, &md); err != nil {
			continue
		}
		// int64 fields arrive as JSON strings.
		op, err := strconv.ParseInt(strings.Trim(string(md.OpCode), `"`), 10, 64)
		if err != nil {
			continue
		}
		data, _ := base64.StdEncoding.DecodeString(md.Data)
		tc.incoming <- MatchData{OpCode: op, Data: data}
	}
}

// Rpc calls a server RPC over HTTP and returns its payload.
func (tc *TestClient) Rpc(t *testing.T, id, payload string) string {
	t.Helper()
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, "http://"+serverHost()+"/v2/rpc/"+id, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build rpc request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+tc.Token)
	var out struct {
		Payload string `json:"payload"`
	}
	doJSON(t, req, &out)
	return out.Payload
}

// JoinMatch joins the match over the realtime socket and waits for the ack.
func (tc *TestClient) JoinMatch(t *testing.T, matchID string) {
	t.Helper()
	tc.cid++
	msg := map[string]interface{}{
		"cid":        strconv.Itoa(tc.cid),
		"match_join": map[string]string{"match_id": matchID},
	}
	if err := tc.Conn.WriteJSON(msg); err != nil {
		t.Fatalf("Failed to join match %s: %v", matchID, err)
	}
	select {
	case reply := <-tc.replies:
		if errRaw, ok := reply["error"]; ok {
			t.Fatalf("Failed to join match %s: %s", matchID, errRaw)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Timeout joining match %s", matchID)
	}
}

// WaitForMatchData waits for a message with the given op code that satisfies match.
func (tc *TestClient) WaitForMatchData(t *testing.T, opCode int64, timeout time.Duration, match func([]byte) bool) []byte {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case md, ok := <-tc.incoming:
			if !ok {
				t.Fatalf("Socket closed waiting for OpCode %d", opCode)
			}
			if md.OpCode == opCode && (match == nil || match(md.Data)) {
				return md.Data
			}
		case <-deadline:
			t.Fatalf("Timeout waiting for OpCode %d", opCode)
			return nil
		}
	}
}
