package notify

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/realtime"
)

type wireFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func startLiveHub(t *testing.T) (*realtime.Hub, string) {
	t.Helper()
	hub := realtime.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	e := echo.New()
	realtime.NewHandler(hub, nil).RegisterRoutes(e)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return hub, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func connectAs(t *testing.T, url, user string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"setup","data":{"_id":"`+user+`"}}`)))
	return ws
}

func readWire(t *testing.T, ws *websocket.Conn, wait time.Duration) (wireFrame, error) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(wait)))
	_, data, err := ws.ReadMessage()
	if err != nil {
		return wireFrame{}, err
	}
	var f wireFrame
	require.NoError(t, json.Unmarshal(data, &f))
	return f, nil
}

func expectType(t *testing.T, ws *websocket.Conn, want string) wireFrame {
	t.Helper()
	f, err := readWire(t, ws, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, want, f.Type)
	return f
}

func TestOfflineRecipientGetsNoBacklogPush(t *testing.T) {
	hub, url := startLiveHub(t)
	store := &memoryStore{}
	svc := NewService(store, hub, nil, 0)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		_, err := svc.UpsertMessageNotification(ctx, "r", "s", "Sam", text, "c1")
		require.NoError(t, err)
	}
	// Queries share the hub's task queue, so the pushes above have been handled.
	_, err := hub.OnlineUsers(ctx)
	require.NoError(t, err)

	docs := store.forRecipient("r")
	require.Len(t, docs, 1)
	assert.Equal(t, "third", docs[0].Body)
	assert.False(t, docs[0].Read)

	ws := connectAs(t, url, "r")
	expectType(t, ws, realtime.EventConnected)
	snapshot := expectType(t, ws, realtime.EventOnlineUsers)
	var users []string
	require.NoError(t, json.Unmarshal(snapshot.Data, &users))
	assert.Equal(t, []string{"r"}, users)
	expectType(t, ws, realtime.EventUserStatus)

	_, err = readWire(t, ws, 200*time.Millisecond)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestOnlineRecipientReceivesNotification(t *testing.T) {
	hub, url := startLiveHub(t)
	svc := NewService(&memoryStore{}, hub, staticDirectory{"s": {ID: "s", DisplayName: "Sam"}}, 0)

	ws := connectAs(t, url, "r")
	expectType(t, ws, realtime.EventConnected)
	expectType(t, ws, realtime.EventOnlineUsers)
	expectType(t, ws, realtime.EventUserStatus)

	stored, err := svc.UpsertMessageNotification(context.Background(), "r", "s", "Sam", "hi", "c1")
	require.NoError(t, err)

	f := expectType(t, ws, realtime.EventNotification)
	var view models.NotificationView
	require.NoError(t, json.Unmarshal(f.Data, &view))
	assert.Equal(t, stored.ID.Hex(), view.ID)
	assert.Equal(t, "hi", view.Body)
	require.NotNil(t, view.Sender)
	assert.Equal(t, "Sam", view.Sender.DisplayName)
}
