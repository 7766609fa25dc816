package websocket

// State 连接生命周期
//
//	Idle -> Connecting -> Live -> Reconnecting -> Connecting ...
//	any  -> Closed (Disconnect)，Closed 之后可以再次 Connect
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateLive
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateLive:
		return "live"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
