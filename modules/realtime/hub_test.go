package realtime

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-studio-server/modules/common/model"
	"anime-studio-server/modules/studio"
)

type staticSource struct {
	snap studio.Snapshot
}

func (s staticSource) Snapshot() studio.Snapshot { return s.snap }

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	r := mux.NewRouter()
	hub.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_SendsStateOnConnect(t *testing.T) {
	hub := NewHub(staticSource{snap: studio.Snapshot{Status: model.StatusReady, Mode: model.ModeImage}})
	conn := dial(t, hub)

	msg := readMessage(t, conn)
	assert.Equal(t, TypeState, msg.Type)
	require.NotNil(t, msg.State)
	assert.Equal(t, model.StatusReady, msg.State.Status)
	assert.Equal(t, 1, hub.TotalConnections())
}

func TestHub_BroadcastsChanges(t *testing.T) {
	hub := NewHub(staticSource{snap: studio.Snapshot{Status: model.StatusReady}})
	conn := dial(t, hub)
	readMessage(t, conn)

	hub.Broadcast(studio.Snapshot{Status: model.StatusLoading, LoadingMessage: "Sketching with AI magic..."})

	msg := readMessage(t, conn)
	require.NotNil(t, msg.State)
	assert.Equal(t, model.StatusLoading, msg.State.Status)
	assert.Equal(t, "Sketching with AI magic...", msg.State.LoadingMessage)
}

func TestHub_RequestState(t *testing.T) {
	hub := NewHub(staticSource{snap: studio.Snapshot{Status: model.StatusAPIKeyMissing}})
	conn := dial(t, hub)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Type: TypeRequestState}))
	msg := readMessage(t, conn)
	assert.Equal(t, model.StatusAPIKeyMissing, msg.State.Status)
}

func TestHub_RemovesClosedClients(t *testing.T) {
	hub := NewHub(staticSource{})
	conn := dial(t, hub)
	readMessage(t, conn)
	require.Equal(t, 1, hub.ClientCount())

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
