package types

// ============================================================================
//                              事件
// ============================================================================

// 所有事件都是值类型，可通过事件总线按类型订阅。

// DatRef 事件中携带的句柄引用
//
// 订阅者需要完整功能时可断言为 *dat.Handle。
type DatRef interface {
	Address() Address
	IsOpen() bool
	IsSwarming() bool
}

// EvtDatLoaded 从存储或网络加载了一个新的 dat
type EvtDatLoaded struct {
	Address Address
	Handle  DatRef
}

// EvtDatUsed 命中注册表中已有的 dat
type EvtDatUsed struct {
	Address Address
	Handle  DatRef
}

// EvtDatCreated 创建了一个新的 dat
type EvtDatCreated struct {
	Address Address
	Handle  DatRef
}

// EvtDatClosed dat 已关闭并从注册表移除
type EvtDatClosed struct {
	Address Address
}

// EvtDatDeleted 删除了 dat 的本地数据，Err 为删除结果
type EvtDatDeleted struct {
	Address Address
	Err     error
}

// EvtSwarmJoined 句柄加入网络
type EvtSwarmJoined struct {
	Address Address
}

// EvtSwarmLeft 句柄离开网络
type EvtSwarmLeft struct {
	Address Address
}

// EvtHandleClosed 句柄已关闭
type EvtHandleClosed struct {
	Address Address
}

// EvtPeerConnected 两个 swarm 在同一话题上建立了连接
type EvtPeerConnected struct {
	Topic  DiscoveryKey
	Local  string
	Remote string
}

// EvtPeerDisconnected 连接断开
type EvtPeerDisconnected struct {
	Topic  DiscoveryKey
	Local  string
	Remote string
}
