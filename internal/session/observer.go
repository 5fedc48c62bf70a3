package session

// Info describes an open session for observers.
type Info struct {
	ID    string
	Title string
	URL   string
	Path  string
}

// Observer receives session lifecycle notifications. Calls come from the
// session loop, so implementations must not block.
type Observer interface {
	SessionOpened(info Info)
	SessionClosed(id string, err error)
	SnapshotSent(id string)
	RequestApplied(id string)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) SessionOpened(Info)          {}
func (NopObserver) SessionClosed(string, error) {}
func (NopObserver) SnapshotSent(string)         {}
func (NopObserver) RequestApplied(string)       {}
