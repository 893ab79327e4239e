package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"skillswap/internal/domain"
	"skillswap/internal/logger"
	"skillswap/internal/service"
)

// Authenticator resolves a bearer token to the signed-in user.
type Authenticator func(ctx context.Context, token string) (*domain.User, error)

type wsAuthError struct {
	status int
	msg    string
}

func (e wsAuthError) Error() string {
	return e.msg
}

// inbound is a client-to-server event.
type inbound struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	ReceiverID     string `json:"receiverId"`
	Content        string `json:"content"`
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}
	if _, wildcard := allowed["*"]; wildcard {
		return func(r *http.Request) bool {
			return true
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

func extractTokenFromWSRequest(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token != "" {
			return token, nil
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			token := parts[1]
			if token != "" {
				return token, nil
			}
		}
	}

	return "", wsAuthError{status: http.StatusUnauthorized, msg: "missing bearer token"}
}

// MakeHandler returns an HTTP handler for the /ws endpoint.
// Authenticates via Bearer token (Authorization header or Sec-WebSocket-Protocol),
// registers the connection for server-pushed events, then dispatches client events:
//   - message   -> send a chat message to receiverId
//   - mark_read -> mark a conversation read
//   - typing    -> forward a typing indicator to the other participant
//   - ping      -> pong
//
// The token is resolved again for every client event; once the session has
// ended the connection is told so and closed. Replies go to the requesting
// connection only.
func MakeHandler(
	hub *Hub,
	authenticate Authenticator,
	messages *service.MessageService,
	allowedOrigins []string,
	log *zap.Logger,
) http.HandlerFunc {
	log = logger.OrNop(log)
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
		Subprotocols: []string{
			"bearer",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		tokenStr, err := extractTokenFromWSRequest(r)
		if err != nil {
			var authErr wsAuthError
			if errors.As(err, &authErr) {
				http.Error(w, authErr.msg, authErr.status)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := authenticate(r.Context(), tokenStr)
		if err != nil || user == nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		base := context.WithoutCancel(r.Context())

		hub.Register(user.ID, conn)
		defer func() {
			hub.Unregister(user.ID, conn)
			if !hub.IsOnline(user.ID) {
				hub.PublishAll("presence", map[string]any{"userId": user.ID, "online": false})
			}
		}()
		hub.PublishAll("presence", map[string]any{"userId": user.ID, "online": true})

		reply := func(eventType string, payload any) {
			hub.SendTo(user.ID, conn, eventType, payload)
		}

		for {
			var in inbound
			if err := conn.ReadJSON(&in); err != nil {
				break
			}

			// The session may have ended or changed since the handshake.
			current, err := authenticate(base, tokenStr)
			if err != nil || current == nil || current.ID != user.ID {
				log.Info("ws: session ended, closing connection", zap.String("user_id", user.ID))
				reply("error", "session ended")
				break
			}
			ctx := domain.WithViewer(base, current)

			switch in.Type {
			case "message":
				if _, err := messages.Send(ctx, in.ReceiverID, in.Content); err != nil {
					log.Info("ws: send message", zap.String("user_id", user.ID), zap.Error(err))
					reply("error", err.Error())
				}

			case "mark_read":
				if err := messages.MarkAsRead(ctx, in.ConversationID); err != nil {
					log.Info("ws: mark read", zap.String("user_id", user.ID), zap.Error(err))
					reply("error", err.Error())
				}

			case "typing":
				conv, err := messages.Conversation(ctx, in.ConversationID)
				if err != nil {
					reply("error", "not allowed for this conversation")
					continue
				}
				var others []string
				for _, pid := range conv.Participants {
					if pid != user.ID {
						others = append(others, pid)
					}
				}
				hub.PublishToUsers(others, "typing", map[string]string{
					"conversationId": conv.ID,
					"userId":         user.ID,
				})

			case "ping":
				reply("pong", nil)

			default:
				log.Debug("ws: unknown event type", zap.String("type", in.Type), zap.String("user_id", user.ID))
			}
		}
	}
}
