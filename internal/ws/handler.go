package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"realtime-service/internal/auth"
	"realtime-service/internal/observability"
	"realtime-service/internal/rabbitmq"
	"realtime-service/internal/repositories"
	"realtime-service/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RelayHandler authenticates websocket connections, registers them with the
// hub, and dispatches their events.
type RelayHandler struct {
	hub           *Hub
	verifier      *auth.Verifier
	messages      *services.MessageService
	calls         *services.CallService
	notifications *services.NotificationService
	users         repositories.UserDirectory
	publisher     rabbitmq.Publisher
}

// NewRelayHandler constructs a RelayHandler.
func NewRelayHandler(hub *Hub, verifier *auth.Verifier, messages *services.MessageService, calls *services.CallService, notifications *services.NotificationService, users repositories.UserDirectory, publisher rabbitmq.Publisher) *RelayHandler {
	return &RelayHandler{
		hub:           hub,
		verifier:      verifier,
		messages:      messages,
		calls:         calls,
		notifications: notifications,
		users:         users,
		publisher:     publisher,
	}
}

// Handle upgrades the connection after the credential checks out. No event is
// processed, and no room joined, before authentication succeeds.
func (h *RelayHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("realtime-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	identity, err := h.verifier.Verify(auth.TokenFromRequest(c.Request))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(uuid.NewString(), identity.UserID, identity.Role, conn)
	meta := observability.MetaFromRequest(c.Request)

	h.hub.Register(client)
	h.publishLifecycle(ctx, "ws_connect", client, meta, "")

	go client.writePump()
	go func() {
		var closeReason string
		defer func() {
			h.hub.Unregister(client)
			client.shutdown()
			_ = conn.Close()
			h.publishLifecycle(context.Background(), "ws_disconnect", client, meta, closeReason)
		}()

		err := client.readPump(h.dispatch)
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.publishLifecycle(context.Background(), "ws_error", client, meta, closeReason)
			}
		}
	}()
}

func (h *RelayHandler) publishLifecycle(ctx context.Context, name string, client *Client, meta observability.RequestMeta, reason string) {
	observability.IncWSEvent(name)
	err := h.publisher.Publish(ctx, "ws_events.relay", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload: observability.WSLifecyclePayload{
			ConnID:     client.ID,
			UserID:     client.UserID,
			DeviceID:   meta.DeviceID,
			RequestID:  meta.RequestID,
			IP:         meta.IP,
			DurationMS: time.Since(client.ConnectedAt).Milliseconds(),
			Reason:     reason,
		},
	})
	if err != nil {
		log.Debug().Err(err).Str("event", name).Msg("ws lifecycle publish failed")
	}
}
