package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/T4snimul/owlery/auth"
	"github.com/T4snimul/owlery/domain/event"
	"github.com/T4snimul/owlery/errors"
	"github.com/T4snimul/owlery/observability"
	"github.com/T4snimul/owlery/services"
)

const (
	maxInboundBytes = 16 * 1024
	pongTimeout     = 60 * time.Second
	pingInterval    = 25 * time.Second
)

// Server upgrades HTTP requests to chat sessions. One socket is one
// session; the verified token supplies the identity and the payload is
// never trusted for it.
type Server struct {
	log          *slog.Logger
	service      services.IOwleryService
	verifier     *auth.Verifier
	stats        *observability.StatsManager
	upgrader     websocket.Upgrader
	queueSize    int
	writeTimeout time.Duration
}

func NewServer(log *slog.Logger, service services.IOwleryService,
	verifier *auth.Verifier, stats *observability.StatsManager,
	queueSize int, writeTimeout time.Duration) *Server {
	return &Server{
		log:      log,
		service:  service,
		verifier: verifier,
		stats:    stats,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The front end is served from its own origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		queueSize:    queueSize,
		writeTimeout: writeTimeout,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/owlery", s.handleSession)
	return mux
}

// handleSession owns the whole connection lifecycle: authenticate, upgrade,
// pump, and unregister. It blocks until the client disconnects or the
// overflow policy forces the socket closed.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	claims, err := s.authenticate(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "error", err)
		return
	}

	sessionID := uuid.NewString()
	sink := NewSessionSink(sessionID, s.queueSize, func() {
		// Slow consumer: degrade this session only. The reader unblocks
		// with an error and Leave runs below; the client resyncs through
		// history replay on reconnect.
		s.stats.QueueDrops.Add(1)
		s.stats.ForcedDisconnects.Add(1)
		s.log.Warn("Outbound queue overflow, disconnecting session",
			"session_id", sessionID, "user_id", claims.UserID)
		_ = conn.Close()
	})

	ctx, cancel := context.WithCancel(r.Context())
	go s.writePump(ctx, conn, sink)

	s.readPump(ctx, conn, sessionID, claims, sink)

	cancel()
	s.service.Leave(sessionID)
	_ = conn.Close()
	s.log.Debug("Session closed", "session_id", sessionID, "user_id", claims.UserID)
}

func (s *Server) authenticate(r *http.Request) (*auth.IdentityClaims, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		return nil, errors.ErrInvalidToken
	}
	return s.verifier.Verify(token)
}

func (s *Server) readPump(ctx context.Context, conn *websocket.Conn,
	sessionID string, claims *auth.IdentityClaims, sink *SessionSink) {
	conn.SetReadLimit(maxInboundBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("Unexpected close", "session_id", sessionID, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.reportError(ctx, sink, sessionID, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err))
			continue
		}
		if err := s.dispatch(ctx, sessionID, claims, env, sink); err != nil {
			s.reportError(ctx, sink, sessionID, err)
		}
	}
}

// dispatch routes one inbound envelope. The sender identity always comes
// from the verified claims; payload identity fields only fill display gaps.
func (s *Server) dispatch(ctx context.Context, sessionID string,
	claims *auth.IdentityClaims, env Envelope, sink *SessionSink) error {
	switch env.Event {
	case EventJoinGroup:
		var p JoinGroupPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
		}
		return s.service.JoinGroup(ctx, services.JoinGroupRequest{
			SessionID: sessionID,
			UserID:    claims.UserID,
			UserName:  lo.CoalesceOrEmpty(claims.Name, p.UserName),
			Roll:      lo.CoalesceOrEmpty(claims.Roll, p.Roll),
			Avatar:    lo.CoalesceOrEmpty(claims.Avatar, p.UserAvatar),
		}, sink)

	case EventSendGroupMessage:
		var p SendGroupMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
		}
		return s.service.PostGroupMessage(ctx, services.GroupMessageRequest{
			SenderID:     claims.UserID,
			SenderName:   lo.CoalesceOrEmpty(claims.Name, p.UserName),
			SenderAvatar: lo.CoalesceOrEmpty(claims.Avatar, p.UserAvatar),
			Text:         p.Text,
		})

	case EventSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
		}
		return s.service.PostDirectMessage(ctx, services.DirectMessageRequest{
			SessionID:    sessionID,
			SenderID:     claims.UserID,
			SenderName:   claims.Name,
			SenderAvatar: claims.Avatar,
			RecipientID:  p.To,
			Text:         p.Text,
		})

	case EventGetMessageHistory:
		var p GetMessageHistoryPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
		}
		return s.service.ReplayDirectHistory(ctx, services.DirectHistoryRequest{
			SessionID: sessionID,
			UserID:    claims.UserID,
			With:      p.With,
		})

	default:
		return fmt.Errorf("%w: unknown event %q", errors.ErrInvalidRequest, env.Event)
	}
}

// reportError turns a failed request into an error event for the
// originating session only. Other sessions never observe it.
func (s *Server) reportError(ctx context.Context, sink *SessionSink, sessionID string, err error) {
	code := errors.Classify(err)
	s.log.Debug("Request failed", "session_id", sessionID, "code", code, "error", err)
	_ = sink.Consume(ctx, event.ErrorRaised{
		SessionID: sessionID,
		Code:      string(code),
		Reason:    err.Error(),
	})
}

// writePump serializes all writes to the socket: queued events plus
// keepalive pings. It exits when the context is canceled or a write fails;
// the read side then unblocks and tears the session down.
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, sink *SessionSink) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-sink.Events():
			env, ok := encodeEvent(evt)
			if !ok {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteJSON(env); err != nil {
				s.log.Debug("Write failed", "session_id", sink.sessionID, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
