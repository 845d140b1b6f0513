package rpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"htlcvault/native/htlc"
)

func TestWebsocketEventStream(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, env.server.URL+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// The handler registers its subscription asynchronously; keep creating
	// escrows until the first event lands on the stream.
	lock := htlc.LockHash([]byte("ws-secret"))
	createBody, err := json.Marshal(map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  "htlc_create",
		"params": []interface{}{htlcCreateParams{
			Sender:      env.sender.String(),
			Recipient:   env.recipient.String(),
			Amount:      "1000",
			BlocksAhead: 10,
			HashLock:    hex.EncodeToString(lock[:]),
		}},
	})
	require.NoError(t, err)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			resp, err := http.Post(env.server.URL, "application/json", bytes.NewReader(createBody))
			if err == nil {
				resp.Body.Close()
			}
			time.Sleep(50 * time.Millisecond)
		}
	}()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var payload struct {
		Type       string            `json:"type"`
		Attributes map[string]string `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Equal(t, htlc.EventTypeCreated, payload.Type)
	require.NotEmpty(t, payload.Attributes["id"])
	require.Equal(t, "1000", payload.Attributes["amount"])
}
