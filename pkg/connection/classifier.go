package connection

import "strings"

// Status is the state of a tenant session.
type Status string

const (
	StatusConnecting   Status = "Connecting"
	StatusConnected    Status = "Connected"
	StatusDisconnected Status = "Disconnected"
	StatusRealmClosed  Status = "RealmClosed"
	StatusRealmCrashed Status = "RealmCrashed"
	StatusKicked       Status = "Kicked"
	StatusError        Status = "Error"
)

// Terminal reports whether the status ends the session.
func (s Status) Terminal() bool {
	switch s {
	case StatusConnecting, StatusConnected:
		return false
	}
	return true
}

// Classification is why a session ended.
type Classification string

const (
	NormalClose          Classification = "NormalClose"
	RealmClosedRemotely  Classification = "RealmClosedRemotely"
	RealmCrashed         Classification = "RealmCrashed"
	KickedAdministrative Classification = "KickedAdministrative"
)

// TerminalKind is the kind of signal that ended a session.
type TerminalKind string

const (
	KindClose      TerminalKind = "close"
	KindError      TerminalKind = "error"
	KindKick       TerminalKind = "kick"
	KindDisconnect TerminalKind = "disconnect"
)

// Decision is the classifier result.
type Decision struct {
	Classification Classification
	Status         Status
}

var (
	// Realm-specific wording only: transport errors such as "connection
	// closed by peer" must stay on the crash path.
	closingPhrases = []string{
		"realm closed",
		"realm is closed",
		"realm has been closed",
		"realm was closed",
		"world closed",
		"world has been closed",
		"closed by the owner",
		"closed by the realm owner",
		"realm is offline",
		"realm offline",
		"realm is no longer available",
		"realm expired",
		"realm has expired",
	}
	crashPhrases = []string{
		"crash",
		"timed out",
		"timeout",
		"econnreset",
		"connection reset",
		"socket hang up",
		"broken pipe",
		"unexpected",
		"internal server error",
	}
	shutdownPhrases = []string{
		"shutdown",
		"shutting down",
		"server stopping",
		"server stopped",
		"restarting",
	}
)

// Classify decides why a session ended. treatUnexpectedAsCrash makes any
// close or error on a connected session without closing phrasing a crash.
func Classify(status Status, kind TerminalKind, reason string, treatUnexpectedAsCrash bool) Decision {
	if kind == KindDisconnect {
		return Decision{Classification: NormalClose, Status: StatusDisconnected}
	}

	text := strings.ToLower(reason)
	closing := containsAny(text, closingPhrases)
	unexpected := kind == KindClose || kind == KindError

	if treatUnexpectedAsCrash && status == StatusConnected && unexpected && !closing {
		return Decision{Classification: RealmCrashed, Status: StatusRealmCrashed}
	}

	switch {
	case closing:
		return Decision{Classification: RealmClosedRemotely, Status: StatusRealmClosed}
	case containsAny(text, crashPhrases):
		return Decision{Classification: RealmCrashed, Status: StatusRealmCrashed}
	case containsAny(text, shutdownPhrases):
		return Decision{Classification: NormalClose, Status: StatusDisconnected}
	}

	switch kind {
	case KindKick:
		return Decision{Classification: KickedAdministrative, Status: StatusKicked}
	case KindError:
		return Decision{Classification: NormalClose, Status: StatusError}
	}
	return Decision{Classification: NormalClose, Status: StatusDisconnected}
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
