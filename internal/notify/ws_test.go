package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/require"

	"orbitlend-backend/internal/domain/event"
	"orbitlend-backend/internal/domain/user"
)

type tokenAuth map[string]*user.User

func (a tokenAuth) Authenticate(_ context.Context, tok string) (*user.User, error) {
	if u, ok := a[tok]; ok {
		return u, nil
	}
	return nil, errors.New("bad token")
}

func TestHandler_StreamsRoomEvents(t *testing.T) {
	hub := NewHub()
	auth := tokenAuth{"t-user": {UserID: "U-1", Role: user.RoleUser}}
	srv := httptest.NewServer(NewHandler(hub, auth, nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=t-user"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var hello map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &hello))
	require.Equal(t, "connected", hello["type"])
	require.Equal(t, "U-1", hello["userId"])

	hub.Publish(ctx, event.New(event.KYCStatusChanged, "U-2", nil))
	hub.Publish(ctx, event.New(event.LoanStatusChanged, "U-1", map[string]string{"status": "approved"}))

	var got event.Event
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	require.Equal(t, event.LoanStatusChanged, got.Type)
	require.Equal(t, "U-1", got.UserID)
}

func TestHandler_HeaderToken(t *testing.T) {
	hub := NewHub()
	auth := tokenAuth{"t-admin": {UserID: "A-1", Role: user.RoleAdmin}}
	srv := httptest.NewServer(NewHandler(hub, auth, nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer t-admin"}},
	})
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var hello map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &hello))
	require.Equal(t, 1, hub.Count(RoomAdmin))

	hub.Publish(ctx, event.New(event.LoanSubmitted, "U-7", nil))
	var got event.Event
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	require.Equal(t, event.LoanSubmitted, got.Type)
}

func TestHandler_RejectsMissingOrBadToken(t *testing.T) {
	srv := httptest.NewServer(NewHandler(NewHub(), tokenAuth{}, nil))
	defer srv.Close()

	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, err = http.Get(srv.URL + "/?token=nope")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
