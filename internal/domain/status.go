package domain

// Status is an order's lifecycle state as reported by the server.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transitions are expected.
// DELIVERED and CANCELLED are terminal for the viewers.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Known reports whether s is one of the five lifecycle states.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Next returns the legal forward successor of s, used by the kitchen
// viewer to decide which action to offer. The server remains the sole
// arbiter; this never blocks a request.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusPending:
		return StatusPreparing, true
	case StatusPreparing:
		return StatusReady, true
	case StatusReady:
		return StatusDelivered, true
	}
	return "", false
}
