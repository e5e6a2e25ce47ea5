package interfaces

import "edumanage/pkg/types"

// Broadcaster is the realtime fan-out surface the route layer pushes
// notifications through after a mutation commits. Delivery is best-effort and
// at-most-once: a closed or errored socket is skipped, nothing is buffered or
// replayed.
type Broadcaster interface {
	// Broadcast delivers to every registered connection, identity or not.
	Broadcast(n *types.EventNotification) error
	// BroadcastToRoles delivers only to connections whose claimed role is in
	// roles. Connections with no claimed role never receive these.
	BroadcastToRoles(n *types.EventNotification, roles []string) error
	// SendToUser delivers to every connection claiming userID; zero matches
	// is not an error.
	SendToUser(userID string, n *types.EventNotification) error
}
