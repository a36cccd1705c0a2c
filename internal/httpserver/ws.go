package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"riskcalc/internal/calculator"
	"riskcalc/internal/httputil"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const wsIdleTimeout = 2 * time.Minute

// CalculateWSHandler recalculates every payload a client sends over one
// websocket, so a form can update on each keystroke without a request per
// edit. Messages on a connection are processed in order.
type CalculateWSHandler struct {
	svc      *calculator.Service
	origin   string
	upgrader websocket.Upgrader
}

func NewCalculateWSHandler(svc *calculator.Service, origin string) *CalculateWSHandler {
	return &CalculateWSHandler{
		svc:    svc,
		origin: origin,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return allowOrigin(r, origin) },
		},
	}
}

func allowOrigin(r *http.Request, origin string) bool {
	if origin == "*" {
		return true
	}
	reqOrigin := r.Header.Get("Origin")
	if reqOrigin == "" {
		return true
	}
	// Allow both localhost and 127.0.0.1 variants for development
	if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
		if strings.Contains(reqOrigin, "localhost") || strings.Contains(reqOrigin, "127.0.0.1") {
			return true
		}
	}
	return strings.EqualFold(reqOrigin, origin)
}

func (h *CalculateWSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	conn.SetReadLimit(httputil.MaxBodyBytes)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug().Err(err).Msg("calculate ws closed")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		reply := h.reply(ctx, payload)
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (h *CalculateWSHandler) reply(ctx context.Context, payload []byte) any {
	req, err := calculator.DecodeRequest(payload)
	if err != nil {
		return httputil.ErrorResponse{Error: err.Error()}
	}
	pos, err := h.svc.Calculate(ctx, req)
	if err != nil {
		return httputil.ErrorResponse{Error: err.Error()}
	}
	return calculator.ResponseBody(req, pos)
}
