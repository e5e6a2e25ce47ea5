package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"edumanage/internal/config"
	"edumanage/pkg/types"
)

var testUpgrader = gorillaws.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		SweepInterval: 15 * time.Second,
		StaleTimeout:  30 * time.Second,
		WriteTimeout:  2 * time.Second,
		BufferSize:    16,
	}
}

type stubMetrics struct {
	metrics *types.DashboardMetrics
	err     error
}

func (s *stubMetrics) GetDashboardMetrics(ctx context.Context) (*types.DashboardMetrics, error) {
	return s.metrics, s.err
}

func defaultStubMetrics() *stubMetrics {
	return &stubMetrics{
		metrics: &types.DashboardMetrics{
			TotalStudents:  420,
			AttendanceRate: "93.5",
			FeeCollection:  125000,
			PendingTasks:   7,
		},
	}
}

// newTestSocketPair returns a service-side Connection wrapper and the client
// side of a real WebSocket. The upgrade handler hands the server conn off and
// returns; gorilla owns the hijacked connection from then on.
func newTestSocketPair(t *testing.T) (*Connection, *gorillaws.Conn) {
	t.Helper()

	serverCh := make(chan *gorillaws.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade connection: %v", err)
			return
		}
		serverCh <- c
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial test server: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	serverConn := <-serverCh
	conn := NewConnection(serverConn, 16, 2*time.Second)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, client
}

// dialService connects a client to a running Service websocket endpoint.
func dialService(t *testing.T, svc *Service) *gorillaws.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(svc.HandleWebSocket))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial service: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client
}

// readFrame reads the next text frame into a generic map.
func readFrame(t *testing.T, client *gorillaws.Conn) map[string]interface{} {
	t.Helper()

	if err := client.SetReadDeadline(time.Now().Add(3 * time.Second)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}

	var frame map[string]interface{}
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("failed to parse frame %q: %v", data, err)
	}
	return frame
}

func sendFrame(t *testing.T, client *gorillaws.Conn, v interface{}) {
	t.Helper()
	if err := client.WriteJSON(v); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}
}

func TestHandleWebSocket_WelcomeFrame(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())
	client := dialService(t, svc)

	frame := readFrame(t, client)
	if frame["type"] != types.FrameConnected {
		t.Errorf("expected connected frame, got %v", frame["type"])
	}
	if frame["clientId"] == "" || frame["clientId"] == nil {
		t.Error("expected non-empty clientId in welcome frame")
	}
}

func TestPingAlwaysYieldsPong(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())
	client := dialService(t, svc)
	readFrame(t, client) // welcome

	sendFrame(t, client, map[string]string{"type": "ping"})

	frame := readFrame(t, client)
	if frame["type"] != types.FramePong {
		t.Errorf("expected pong, got %v", frame["type"])
	}
}

func TestUnknownTypeYieldsError(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())
	client := dialService(t, svc)
	readFrame(t, client) // welcome

	sendFrame(t, client, map[string]string{"type": "bogus"})

	frame := readFrame(t, client)
	if frame["type"] != types.FrameError {
		t.Fatalf("expected error frame, got %v", frame["type"])
	}
	if frame["message"] != "Unknown message type" {
		t.Errorf("unexpected error message: %v", frame["message"])
	}

	// The connection survives the bad frame.
	sendFrame(t, client, map[string]string{"type": "ping"})
	if frame := readFrame(t, client); frame["type"] != types.FramePong {
		t.Errorf("expected pong after error, got %v", frame["type"])
	}
}

func TestMalformedJSONYieldsError(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())
	client := dialService(t, svc)
	readFrame(t, client) // welcome

	if err := client.WriteMessage(gorillaws.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("failed to send malformed frame: %v", err)
	}

	frame := readFrame(t, client)
	if frame["type"] != types.FrameError {
		t.Fatalf("expected error frame, got %v", frame["type"])
	}
	if frame["message"] != "Invalid message format" {
		t.Errorf("unexpected error message: %v", frame["message"])
	}
}

func TestAuthenticateEchoesAndPushesMetrics(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())
	client := dialService(t, svc)
	readFrame(t, client) // welcome

	sendFrame(t, client, map[string]string{"type": "authenticate", "userId": "u1", "role": "teacher"})

	echo := readFrame(t, client)
	if echo["type"] != types.FrameAuthenticated {
		t.Fatalf("expected authenticated echo, got %v", echo["type"])
	}
	if echo["userId"] != "u1" || echo["role"] != "teacher" {
		t.Errorf("authenticated echo mismatch: %v", echo)
	}

	metrics := readFrame(t, client)
	if metrics["type"] != types.EventDashboardMetrics {
		t.Fatalf("expected dashboard_metrics push, got %v", metrics["type"])
	}
	data, ok := metrics["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected metrics data object, got %T", metrics["data"])
	}
	if data["totalStudents"] != float64(420) {
		t.Errorf("unexpected totalStudents: %v", data["totalStudents"])
	}
	if metrics["timestamp"] == nil {
		t.Error("expected timestamp on metrics push")
	}

	// Identity is recorded on the registry side as well.
	conns := svc.Registry().All()
	if len(conns) != 1 {
		t.Fatalf("expected 1 registered connection, got %d", len(conns))
	}
	if conns[0].UserID() != "u1" || conns[0].Role() != "teacher" {
		t.Errorf("registry identity mismatch: %s/%s", conns[0].UserID(), conns[0].Role())
	}
}

func TestSubscribeEchoesChannels(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())
	client := dialService(t, svc)
	readFrame(t, client) // welcome

	sendFrame(t, client, map[string]interface{}{
		"type":     "subscribe",
		"channels": []string{"attendance", "fees"},
	})

	frame := readFrame(t, client)
	if frame["type"] != types.FrameSubscribed {
		t.Fatalf("expected subscribed echo, got %v", frame["type"])
	}
	channels, ok := frame["channels"].([]interface{})
	if !ok || len(channels) != 2 {
		t.Fatalf("expected 2 echoed channels, got %v", frame["channels"])
	}

	conns := svc.Registry().All()
	if len(conns) != 1 || len(conns[0].Channels()) != 2 {
		t.Error("expected channels stored on the connection")
	}
}

func TestDashboardMetricsRequest(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())
	client := dialService(t, svc)
	readFrame(t, client) // welcome

	sendFrame(t, client, map[string]string{"type": "dashboard_metrics_request"})

	frame := readFrame(t, client)
	if frame["type"] != types.EventDashboardMetrics {
		t.Errorf("expected dashboard_metrics, got %v", frame["type"])
	}
}

func TestMetricsFailureIsConnectionScopedAndSilent(t *testing.T) {
	svc := NewService(&stubMetrics{err: errors.New("gateway down")}, testWSConfig())
	client := dialService(t, svc)
	readFrame(t, client) // welcome

	sendFrame(t, client, map[string]string{"type": "dashboard_metrics_request"})
	sendFrame(t, client, map[string]string{"type": "ping"})

	// No metrics frame and no error frame: the next frame is the pong.
	frame := readFrame(t, client)
	if frame["type"] != types.FramePong {
		t.Errorf("expected pong directly after failed metrics pull, got %v", frame["type"])
	}
}

func TestBroadcastReachesAllRegisteredConnections(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())
	clientA := dialService(t, svc)
	clientB := dialService(t, svc)
	readFrame(t, clientA) // welcome
	readFrame(t, clientB) // welcome

	if err := svc.BroadcastAttendanceUpdate(map[string]string{"studentId": "42"}); err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}

	for _, client := range []*gorillaws.Conn{clientA, clientB} {
		frame := readFrame(t, client)
		if frame["type"] != types.EventAttendanceUpdate {
			t.Errorf("expected attendance_update, got %v", frame["type"])
		}
	}
}

// End-to-end delivery contract: a role-scoped broadcast must skip both an
// authenticated connection with a different role and an anonymous one, while
// a subsequent unscoped broadcast reaches both. Per-connection FIFO makes the
// order observable: if the scoped event had leaked, it would arrive first.
func TestRoleScopedBroadcastFiltering(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())

	clientA := dialService(t, svc) // will authenticate as teacher
	clientB := dialService(t, svc) // stays anonymous
	readFrame(t, clientA)
	readFrame(t, clientB)

	sendFrame(t, clientA, map[string]string{"type": "authenticate", "userId": "u1", "role": "teacher"})
	readFrame(t, clientA) // authenticated echo
	readFrame(t, clientA) // metrics push

	n := types.NewEventNotification(types.EventFeeUpdate, map[string]string{"feeId": "9"})
	if err := svc.BroadcastToRoles(n, []string{"admin"}); err != nil {
		t.Fatalf("role broadcast failed: %v", err)
	}

	if err := svc.BroadcastAttendanceUpdate(map[string]string{"studentId": "1"}); err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}

	for name, client := range map[string]*gorillaws.Conn{"teacher": clientA, "anonymous": clientB} {
		frame := readFrame(t, client)
		if frame["type"] != types.EventAttendanceUpdate {
			t.Errorf("%s client: expected attendance_update first, got %v (role filter leaked)", name, frame["type"])
		}
	}
}

func TestRoleScopedBroadcastDeliversToMatchingRole(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())
	client := dialService(t, svc)
	readFrame(t, client)

	sendFrame(t, client, map[string]string{"type": "authenticate", "userId": "u1", "role": "admin"})
	readFrame(t, client) // authenticated echo
	readFrame(t, client) // metrics push

	n := types.NewEventNotification(types.EventFeeUpdate, map[string]string{"feeId": "9"})
	if err := svc.BroadcastToRoles(n, []string{"admin"}); err != nil {
		t.Fatalf("role broadcast failed: %v", err)
	}

	frame := readFrame(t, client)
	if frame["type"] != types.EventFeeUpdate {
		t.Errorf("expected fee_update for matching role, got %v", frame["type"])
	}
}

func TestSendToUserTargetsClaimedIdentityOnly(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())

	clientA := dialService(t, svc)
	clientB := dialService(t, svc)
	readFrame(t, clientA)
	readFrame(t, clientB)

	sendFrame(t, clientA, map[string]string{"type": "authenticate", "userId": "u1", "role": "teacher"})
	readFrame(t, clientA)
	readFrame(t, clientA)
	sendFrame(t, clientB, map[string]string{"type": "authenticate", "userId": "u2", "role": "teacher"})
	readFrame(t, clientB)
	readFrame(t, clientB)

	n := types.NewEventNotification(types.EventBehaviorUpdate, map[string]string{"note": "direct"})
	if err := svc.SendToUser("u1", n); err != nil {
		t.Fatalf("sendToUser failed: %v", err)
	}

	// u1 gets it; u2's next frame is a later broadcast, not the direct send.
	if err := svc.BroadcastTimetableUpdate(map[string]string{"entry": "x"}); err != nil {
		t.Fatalf("broadcast failed: %v", err)
	}

	frameA := readFrame(t, clientA)
	if frameA["type"] != types.EventBehaviorUpdate {
		t.Errorf("u1: expected behavior_update, got %v", frameA["type"])
	}
	frameB := readFrame(t, clientB)
	if frameB["type"] != types.EventTimetableUpdate {
		t.Errorf("u2: expected timetable_update only, got %v", frameB["type"])
	}
}

func TestBroadcastRejectsUnknownEventType(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())

	err := svc.Broadcast(&types.EventNotification{Type: "nonsense", Timestamp: time.Now()})
	if err != ErrUnknownEventType {
		t.Errorf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestSweepRemovesClosedConnections(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())

	closed, _ := newTestSocketPair(t)
	open, _ := newTestSocketPair(t)
	svc.registry.Register(closed)
	svc.registry.Register(open)

	_ = closed.Close()
	svc.sweep()

	if svc.registry.Count() != 1 {
		t.Fatalf("expected 1 connection after sweep, got %d", svc.registry.Count())
	}
	if _, ok := svc.registry.Get(open.ID()); !ok {
		t.Error("open connection should survive the sweep")
	}
}

func TestSweepProbesStaleWithoutRemoving(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())

	conn, client := newTestSocketPair(t)
	svc.registry.Register(conn)

	pinged := make(chan struct{}, 1)
	client.SetPingHandler(func(string) error {
		pinged <- struct{}{}
		return nil
	})
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Backdate activity past the stale threshold.
	conn.mu.Lock()
	conn.lastActivity = time.Now().Add(-time.Minute)
	conn.mu.Unlock()

	svc.sweep()

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a liveness probe for the stale connection")
	}

	if svc.registry.Count() != 1 {
		t.Error("stale-but-open connection must not be removed in the probing sweep")
	}
}

func TestReadLoopRemovesConnectionOnClientClose(t *testing.T) {
	svc := NewService(defaultStubMetrics(), testWSConfig())
	client := dialService(t, svc)
	readFrame(t, client) // welcome

	if svc.registry.Count() != 1 {
		t.Fatalf("expected 1 registered connection, got %d", svc.registry.Count())
	}

	_ = client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for svc.registry.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection was not removed after client close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
