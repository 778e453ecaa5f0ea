package supervisor

// State is the lifecycle state of a supervised connection.
//
//	Absent -> Creating -> Live -> Degraded -> Creating -> Live
//
// A failed Creating returns to Absent. Close always returns to Absent.
type State int32

const (
	// StateAbsent means no handle is held.
	StateAbsent State = iota
	// StateCreating means an establishment sequence is running.
	StateCreating
	// StateLive means a verified handle is held.
	StateLive
	// StateDegraded means the held handle failed its ping and is being discarded.
	StateDegraded
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateCreating:
		return "creating"
	case StateLive:
		return "live"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}
