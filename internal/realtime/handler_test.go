package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, h *Hub, origins []string) string {
	t.Helper()
	e := echo.New()
	NewHandler(h, origins).RegisterRoutes(e)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func readFrame(t *testing.T, ws *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func sendSetup(t *testing.T, ws *websocket.Conn, payload string) {
	t.Helper()
	msg := `{"type":"setup","data":` + payload + `}`
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func TestHandler_SetupAndDisconnectOverWebsocket(t *testing.T) {
	h := startHub(t)
	url := dialHub(t, h, nil)

	bob, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer bob.Close()
	sendSetup(t, bob, `{"_id":"bob"}`)
	assert.Equal(t, EventConnected, readFrame(t, bob).Type)
	assert.Equal(t, EventOnlineUsers, readFrame(t, bob).Type)
	assert.Equal(t, UserStatus{UserID: "bob", Status: StatusOnline}, status(t, readFrame(t, bob)))

	alice, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	sendSetup(t, alice, `{"userId":"alice"}`)
	assert.Equal(t, EventConnected, readFrame(t, alice).Type)

	snapshot := readFrame(t, alice)
	var users []string
	require.NoError(t, json.Unmarshal(snapshot.Data, &users))
	assert.Equal(t, []string{"alice", "bob"}, users)

	assert.Equal(t, UserStatus{UserID: "alice", Status: StatusOnline}, status(t, readFrame(t, bob)))

	require.NoError(t, alice.Close())
	assert.Equal(t, UserStatus{UserID: "alice", Status: StatusOffline}, status(t, readFrame(t, bob)))
}

func TestHandler_RejectsForeignOrigin(t *testing.T) {
	h := startHub(t)
	url := dialHub(t, h, []string{"http://localhost:3000"})

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://localhost:3000/")
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	ws.Close()
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	wildcard := originChecker([]string{"*"})
	assert.True(t, wildcard(req("http://x")))

	none := originChecker(nil)
	assert.True(t, none(req("http://x")))

	some := originChecker([]string{"https://app.example", " "})
	assert.True(t, some(req("https://app.example")))
	assert.True(t, some(req("")))
	assert.False(t, some(req("https://other.example")))
}
