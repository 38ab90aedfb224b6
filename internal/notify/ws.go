package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"orbitlend-backend/internal/domain/user"
	"orbitlend-backend/internal/infrastructure/logger"
)

const writeTimeout = 5 * time.Second

// Authenticator resolves the handshake token once per connection.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.User, error)
}

type Handler struct {
	hub     *Hub
	auth    Authenticator
	origins []string
}

func NewHandler(hub *Hub, auth Authenticator, origins []string) *Handler {
	return &Handler{hub: hub, auth: auth, origins: origins}
}

func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	tok := bearer(r)
	if tok == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	u, err := h.auth.Authenticate(r.Context(), tok)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	opts := &websocket.AcceptOptions{}
	if len(h.origins) > 0 {
		opts.OriginPatterns = h.origins
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		log.Warn("websocket accept failed", "err", err)
		return
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := h.hub.Subscribe(u.UserID, u.IsAdmin(), 64)
	defer h.hub.Unsubscribe(sub)
	log.Info("notification stream opened", "user_id", u.UserID)

	_ = wsjson.Write(ctx, conn, map[string]any{"type": "connected", "userId": u.UserID, "role": u.Role})

	// clients only listen; CloseRead handles control frames
	ctx = conn.CloseRead(ctx)
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case evt, ok := <-sub.C:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "closed")
				return
			}
			wctx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, evt)
			cancelWrite()
			if err != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
				return
			}
		}
	}
}
