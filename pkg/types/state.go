package types

// HandleState DriveHandle 的状态
//
//	Created ──ready──▶ Idle ◀──▶ Swarming
//	                     │           │
//	                     └──▶ Closed ◀┘
type HandleState int

const (
	// StateCreated 已构造，尚未就绪
	StateCreated HandleState = iota
	// StateIdle 已就绪，不在网络中
	StateIdle
	// StateSwarming 已加入网络
	StateSwarming
	// StateClosed 已关闭（终态）
	StateClosed
)

// String 返回状态名称
func (s HandleState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateIdle:
		return "idle"
	case StateSwarming:
		return "swarming"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// HandleEvent DriveHandle 发出的事件
type HandleEvent int

const (
	// EventJoin 加入网络
	EventJoin HandleEvent = iota
	// EventLeave 离开网络
	EventLeave
	// EventClose 已关闭
	EventClose
)

// String 返回事件名称
func (e HandleEvent) String() string {
	switch e {
	case EventJoin:
		return "join"
	case EventLeave:
		return "leave"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}
