package bridge

// Status is a point-in-time snapshot of the bridge. It may be stale as soon
// as it is returned.
type Status struct {
	Running           bool   `json:"running"`
	BackendRegistered bool   `json:"backend_registered"`
	Backend           string `json:"backend,omitempty"`
	Subscribers       int    `json:"subscribers"`
	PendingCommands   int    `json:"pending_commands"`
	PendingResponses  int    `json:"pending_responses"`
	DroppedCommands   uint64 `json:"dropped_commands"`
	DroppedResponses  uint64 `json:"dropped_responses"`
	SubscriberFaults  uint64 `json:"subscriber_faults"`
}

// Status returns the current snapshot. It has no side effects.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	st := Status{
		Running:           b.running,
		BackendRegistered: b.backend != nil,
		Subscribers:       len(b.subscribers),
	}
	if b.backend != nil {
		st.Backend = b.backend.Name()
	}
	b.mu.Unlock()

	st.PendingCommands = b.commands.Len()
	st.PendingResponses = b.responses.Len()
	st.DroppedCommands = b.commands.Dropped()
	st.DroppedResponses = b.responses.Dropped()
	st.SubscriberFaults = b.faults.Load()
	return st
}
