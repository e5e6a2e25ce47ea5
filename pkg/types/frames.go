package types

// Inbound frame types accepted by the socket router.
const (
	FrameAuthenticate            = "authenticate"
	FrameSubscribe               = "subscribe"
	FramePing                    = "ping"
	FrameDashboardMetricsRequest = "dashboard_metrics_request"
)

// Outbound frame types.
const (
	FrameConnected     = "connected"
	FrameAuthenticated = "authenticated"
	FrameSubscribed    = "subscribed"
	FramePong          = "pong"
	FrameError         = "error"
)

// InboundFrame is one client-to-server JSON message. A single loose struct
// covers all inbound shapes; fields irrelevant to a given type are ignored.
type InboundFrame struct {
	Type     string   `json:"type"`
	UserID   string   `json:"userId,omitempty"`
	Role     string   `json:"role,omitempty"`
	Channels []string `json:"channels,omitempty"`
}

// ConnectedFrame is the welcome message sent on socket accept.
type ConnectedFrame struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId"`
	Message  string `json:"message"`
}

// AuthenticatedFrame echoes the identity recorded for the connection.
type AuthenticatedFrame struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// SubscribedFrame echoes the channels a client asked for. Channel names are
// stored on the connection but broadcasts are not scoped by them.
type SubscribedFrame struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels"`
}

// PongFrame answers an application-level ping.
type PongFrame struct {
	Type string `json:"type"`
}

// ErrorFrame reports a connection-scoped failure. The connection stays open.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
