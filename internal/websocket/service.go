package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"edumanage/internal/config"
	"edumanage/pkg/interfaces"
	"edumanage/pkg/types"
)

var upgrader = websocket.Upgrader{
	// The dashboard is served from arbitrary school domains; origin policy is
	// enforced upstream if at all.
	CheckOrigin:      func(r *http.Request) bool { return true },
	HandshakeTimeout: 10 * time.Second,
}

// MetricsSource is the slice of the persistence gateway the realtime layer
// consumes: the on-demand dashboard metrics pull. Everything else stays in
// the route layer.
type MetricsSource interface {
	GetDashboardMetrics(ctx context.Context) (*types.DashboardMetrics, error)
}

// Service is the realtime layer: it admits sockets, routes inbound frames,
// fans out event notifications, and prunes dead peers. Delivery is
// at-most-once with no backlog or replay; a client connecting after an event
// has no way to retrieve it.
type Service struct {
	registry *Registry
	storage  MetricsSource
	cfg      config.WebSocketConfig
	limiter  *frameLimiter

	sweepCancel context.CancelFunc
}

var _ interfaces.Broadcaster = (*Service)(nil)

// NewService creates the realtime service.
func NewService(storage MetricsSource, cfg config.WebSocketConfig) *Service {
	return &Service{
		registry: NewRegistry(),
		storage:  storage,
		cfg:      cfg,
		limiter:  newFrameLimiter(defaultFrameLimit),
	}
}

// Registry exposes the connection registry for inspection.
func (s *Service) Registry() *Registry {
	return s.registry
}

// HandleWebSocket upgrades the request and admits the socket unauthenticated.
// Identity arrives later on an authenticate frame, if ever.
func (s *Service) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	conn := NewConnection(wsConn, s.cfg.BufferSize, s.cfg.WriteTimeout)
	connID := s.registry.Register(conn)

	// A pong counts as activity so a probed-live peer is not re-probed.
	wsConn.SetPongHandler(func(string) error {
		s.registry.Touch(connID)
		return nil
	})

	if err := conn.WriteJSON(types.ConnectedFrame{
		Type:     types.FrameConnected,
		ClientID: connID,
		Message:  "Connected to EduManage school system",
	}); err != nil {
		log.Printf("failed to send welcome frame to %s: %v", connID, err)
	}

	log.Printf("client %s connected", connID)

	go s.readLoop(conn)
}

// readLoop handles one connection's inbound frames to completion, one at a
// time. Per-connection FIFO holds because no frame is handled concurrently
// with another from the same connection.
func (s *Service) readLoop(conn *Connection) {
	defer func() {
		s.registry.Remove(conn.ID())
		s.limiter.Forget(conn.ID())
		_ = conn.Close()
		log.Printf("client %s disconnected", conn.ID())
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error on %s: %v", conn.ID(), err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		s.registry.Touch(conn.ID())

		if !s.limiter.Allow(conn.ID()) {
			s.sendError(conn, "Rate limit exceeded")
			continue
		}

		s.handleFrame(conn, data)
	}
}

// handleFrame classifies one inbound frame and dispatches to exactly one
// handler. Failures degrade to an error frame on this connection only; the
// connection stays open and no other connection is affected.
func (s *Service) handleFrame(conn *Connection, data []byte) {
	var frame types.InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.sendError(conn, "Invalid message format")
		return
	}

	switch frame.Type {
	case types.FrameAuthenticate:
		s.handleAuthenticate(conn, &frame)
	case types.FrameSubscribe:
		s.handleSubscribe(conn, &frame)
	case types.FramePing:
		if err := conn.WriteJSON(types.PongFrame{Type: types.FramePong}); err != nil {
			log.Printf("failed to send pong to %s: %v", conn.ID(), err)
		}
	case types.FrameDashboardMetricsRequest:
		s.sendDashboardMetrics(conn)
	default:
		s.sendError(conn, "Unknown message type")
	}
}

// handleAuthenticate records the claimed identity and answers with an echo
// plus an initial metrics push. The claim is trusted as-is: no token or
// session verification happens at this layer.
func (s *Service) handleAuthenticate(conn *Connection, frame *types.InboundFrame) {
	s.registry.RecordIdentity(conn.ID(), frame.UserID, frame.Role)

	if err := conn.WriteJSON(types.AuthenticatedFrame{
		Type:   types.FrameAuthenticated,
		UserID: frame.UserID,
		Role:   frame.Role,
	}); err != nil {
		log.Printf("failed to send authenticated frame to %s: %v", conn.ID(), err)
		return
	}

	s.sendDashboardMetrics(conn)
}

// handleSubscribe stores the requested channels and echoes them. No
// channel-scoped filtering exists; subscriptions are accepted but broadcasts
// remain unscoped.
func (s *Service) handleSubscribe(conn *Connection, frame *types.InboundFrame) {
	conn.SetChannels(frame.Channels)

	if err := conn.WriteJSON(types.SubscribedFrame{
		Type:     types.FrameSubscribed,
		Channels: frame.Channels,
	}); err != nil {
		log.Printf("failed to send subscribed frame to %s: %v", conn.ID(), err)
	}
}

func (s *Service) sendDashboardMetrics(conn *Connection) {
	metrics, err := s.storage.GetDashboardMetrics(context.Background())
	if err != nil {
		// Gateway failures are connection-scoped: logged, no push, socket
		// stays open. Clients apply their own request timeout.
		log.Printf("failed to load dashboard metrics for %s: %v", conn.ID(), err)
		return
	}

	n := types.NewEventNotification(types.EventDashboardMetrics, metrics)
	if err := conn.WriteJSON(n); err != nil {
		log.Printf("failed to send dashboard metrics to %s: %v", conn.ID(), err)
	}
}

func (s *Service) sendError(conn *Connection, message string) {
	if err := conn.WriteJSON(types.ErrorFrame{Type: types.FrameError, Message: message}); err != nil {
		log.Printf("failed to send error frame to %s: %v", conn.ID(), err)
	}
}

// Broadcast delivers n to every connection in the registry snapshot,
// identity or not. A closed or errored socket is skipped silently and does
// not abort delivery to the rest.
func (s *Service) Broadcast(n *types.EventNotification) error {
	return s.deliver(n, func(*Connection) bool { return true })
}

// BroadcastToRoles delivers n only to connections whose claimed role is in
// roles. Connections with no claimed role never receive role-filtered
// broadcasts.
func (s *Service) BroadcastToRoles(n *types.EventNotification, roles []string) error {
	return s.deliver(n, func(conn *Connection) bool {
		role := conn.Role()
		if role == "" {
			return false
		}
		for _, r := range roles {
			if role == r {
				return true
			}
		}
		return false
	})
}

// SendToUser delivers n to every connection claiming userID. The same
// identity may hold multiple sockets; zero matches is not an error.
func (s *Service) SendToUser(userID string, n *types.EventNotification) error {
	return s.deliver(n, func(conn *Connection) bool {
		return conn.UserID() == userID
	})
}

// deliver serializes n once and writes the identical bytes to every
// connection the filter admits.
func (s *Service) deliver(n *types.EventNotification, include func(*Connection) bool) error {
	if !types.IsValidEventType(n.Type) {
		return ErrUnknownEventType
	}

	data, err := json.Marshal(n)
	if err != nil {
		return ErrInvalidJSON
	}

	for _, conn := range s.registry.All() {
		if !include(conn) {
			continue
		}
		if err := conn.Write(data); err != nil {
			// Best-effort: this socket misses the event, the rest do not.
			continue
		}
	}
	return nil
}

// BroadcastAttendanceUpdate pushes an attendance mutation to all clients.
func (s *Service) BroadcastAttendanceUpdate(data interface{}) error {
	return s.Broadcast(types.NewEventNotification(types.EventAttendanceUpdate, data))
}

// BroadcastFeeUpdate pushes a fee mutation to all clients.
func (s *Service) BroadcastFeeUpdate(data interface{}) error {
	return s.Broadcast(types.NewEventNotification(types.EventFeeUpdate, data))
}

// BroadcastTimetableUpdate pushes a timetable mutation to all clients.
func (s *Service) BroadcastTimetableUpdate(data interface{}) error {
	return s.Broadcast(types.NewEventNotification(types.EventTimetableUpdate, data))
}

// BroadcastInvigilationUpdate pushes an invigilation assignment to all clients.
func (s *Service) BroadcastInvigilationUpdate(data interface{}) error {
	return s.Broadcast(types.NewEventNotification(types.EventInvigilationUpdate, data))
}

// BroadcastSubstitutionUpdate pushes a substitution assignment to all clients.
func (s *Service) BroadcastSubstitutionUpdate(data interface{}) error {
	return s.Broadcast(types.NewEventNotification(types.EventSubstitutionUpdate, data))
}

// BroadcastBehaviorUpdate pushes a behavior record to all clients.
func (s *Service) BroadcastBehaviorUpdate(data interface{}) error {
	return s.Broadcast(types.NewEventNotification(types.EventBehaviorUpdate, data))
}

// BroadcastWhatsAppUpdate pushes an outbound-message-channel update to all clients.
func (s *Service) BroadcastWhatsAppUpdate(data interface{}) error {
	return s.Broadcast(types.NewEventNotification(types.EventWhatsAppUpdate, data))
}

// StartLivenessMonitor begins the periodic stale-connection sweep. Stop it
// via StopLivenessMonitor or by cancelling ctx.
func (s *Service) StartLivenessMonitor(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.sweepCancel = cancel

	go func() {
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// StopLivenessMonitor halts the sweep goroutine.
func (s *Service) StopLivenessMonitor() {
	if s.sweepCancel != nil {
		s.sweepCancel()
	}
}

// sweep prunes connections whose socket reports closed and probes idle ones.
// The probe is a courtesy, not a deadline: a peer that never answers is only
// removed once its socket transitions to closed and a later sweep sees that.
func (s *Service) sweep() {
	now := time.Now()
	for _, conn := range s.registry.All() {
		if conn.Closed() {
			s.registry.Remove(conn.ID())
			continue
		}
		if now.Sub(conn.LastActivity()) > s.cfg.StaleTimeout {
			if err := conn.Ping(); err != nil {
				log.Printf("liveness probe failed for %s: %v", conn.ID(), err)
			}
		}
	}
}
