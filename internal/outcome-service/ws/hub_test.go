package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/spin-wager-platform/pkg/contracts/events"
)

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func allowAll(*http.Request) bool { return true }

func TestPingPong(t *testing.T) {
	hub := NewHub(zap.NewNop(), allowAll)
	conn := dial(t, hub)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "ping"}))
	var resp map[string]string
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "pong", resp["type"])
}

func TestBroadcastReachesClients(t *testing.T) {
	hub := NewHub(zap.NewNop(), allowAll)
	conn := dial(t, hub)

	hub.Broadcast(events.OutcomeTableUpdated{Reason: "update", Count: 3})

	var got TableUpdate
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "outcomes_updated", got.Type)
	assert.Equal(t, 3, got.Payload.Count)
}

func TestDisconnectRemovesClient(t *testing.T) {
	hub := NewHub(zap.NewNop(), allowAll)
	conn := dial(t, hub)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRedisSubscriberForwardsToHub(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	hub := NewHub(zap.NewNop(), allowAll)
	conn := dial(t, hub)

	ctx, cancel := context.WithCancel(context.Background())
	done := StartRedisSubscriber(ctx, zap.NewNop(), rdb, "outcome_table_updates", hub)

	// aguarda a inscrição antes de publicar
	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("outcome_table_updates")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	mr.Publish("outcome_table_updates", `{"reason":"seed","count":8}`)

	var got TableUpdate
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "seed", got.Payload.Reason)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}
