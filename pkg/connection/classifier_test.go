package connection

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		kind   TerminalKind
		reason string
		toggle bool
		want   Decision
	}{
		{
			name:   "requested disconnect is always normal",
			status: StatusConnected,
			kind:   KindDisconnect,
			reason: "server crashed",
			toggle: true,
			want:   Decision{NormalClose, StatusDisconnected},
		},
		{
			name:   "unexpected close while connected is a crash",
			status: StatusConnected,
			kind:   KindClose,
			reason: "",
			toggle: true,
			want:   Decision{RealmCrashed, StatusRealmCrashed},
		},
		{
			name:   "unexpected error while connected is a crash",
			status: StatusConnected,
			kind:   KindError,
			reason: "read tcp: use of closed network connection",
			toggle: true,
			want:   Decision{RealmCrashed, StatusRealmCrashed},
		},
		{
			name:   "closing phrase wins over the toggle",
			status: StatusConnected,
			kind:   KindClose,
			reason: "The Realm has been closed by the owner",
			toggle: true,
			want:   Decision{RealmClosedRemotely, StatusRealmClosed},
		},
		{
			name:   "peer close is a crash",
			status: StatusConnected,
			kind:   KindClose,
			reason: "connection closed by peer",
			toggle: true,
			want:   Decision{RealmCrashed, StatusRealmCrashed},
		},
		{
			name:   "remote host close is a crash",
			status: StatusConnected,
			kind:   KindError,
			reason: "socket closed by remote host",
			toggle: true,
			want:   Decision{RealmCrashed, StatusRealmCrashed},
		},
		{
			name:   "transport server close is a crash",
			status: StatusConnected,
			kind:   KindClose,
			reason: "raknet: server closed connection",
			toggle: true,
			want:   Decision{RealmCrashed, StatusRealmCrashed},
		},
		{
			name:   "offline realm is closed remotely",
			status: StatusConnected,
			kind:   KindClose,
			reason: "This realm is offline",
			toggle: true,
			want:   Decision{RealmClosedRemotely, StatusRealmClosed},
		},
		{
			name:   "close before spawn is not a crash",
			status: StatusConnecting,
			kind:   KindClose,
			reason: "",
			toggle: true,
			want:   Decision{NormalClose, StatusDisconnected},
		},
		{
			name:   "crash phrase without the toggle",
			status: StatusConnected,
			kind:   KindClose,
			reason: "ECONNRESET",
			toggle: false,
			want:   Decision{RealmCrashed, StatusRealmCrashed},
		},
		{
			name:   "shutdown phrase without the toggle",
			status: StatusConnected,
			kind:   KindClose,
			reason: "Server is shutting down",
			toggle: false,
			want:   Decision{NormalClose, StatusDisconnected},
		},
		{
			name:   "kick with no phrase",
			status: StatusConnected,
			kind:   KindKick,
			reason: "You were kicked by an operator",
			toggle: true,
			want:   Decision{KickedAdministrative, StatusKicked},
		},
		{
			name:   "kick with closing phrase",
			status: StatusConnected,
			kind:   KindKick,
			reason: "realm closed",
			toggle: true,
			want:   Decision{RealmClosedRemotely, StatusRealmClosed},
		},
		{
			name:   "error without the toggle",
			status: StatusConnected,
			kind:   KindError,
			reason: "protocol mismatch",
			toggle: false,
			want:   Decision{NormalClose, StatusError},
		},
		{
			name:   "plain close without the toggle",
			status: StatusConnected,
			kind:   KindClose,
			reason: "bye",
			toggle: false,
			want:   Decision{NormalClose, StatusDisconnected},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.status, tt.kind, tt.reason, tt.toggle)
			if got != tt.want {
				t.Errorf("Classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusConnecting, StatusConnected} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []Status{StatusDisconnected, StatusRealmClosed, StatusRealmCrashed, StatusKicked, StatusError} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}
