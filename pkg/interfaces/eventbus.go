package interfaces

// EventBus 类型安全的进程内事件总线
//
// 事件类型以指针形式传入，如 bus.Subscribe(new(types.EvtDatLoaded))。
type EventBus interface {
	// Subscribe 订阅事件类型
	Subscribe(eventType interface{}, opts ...SubscriptionOpt) (Subscription, error)

	// Emitter 获取事件类型的发射器
	Emitter(eventType interface{}, opts ...EmitterOpt) (Emitter, error)

	// GetAllEventTypes 返回已注册的事件类型
	GetAllEventTypes() []interface{}
}

// Subscription 事件订阅
type Subscription interface {
	Out() <-chan interface{}
	Close() error
}

// Emitter 事件发射器
type Emitter interface {
	Emit(event interface{}) error
	Close() error
}

// SubscriptionOpt 订阅选项
type SubscriptionOpt func(*SubscriptionSettings)

// EmitterOpt 发射器选项
type EmitterOpt func(*EmitterSettings)

// SubscriptionSettings 订阅设置
type SubscriptionSettings struct {
	Buffer int

	// Lossless 缓冲区满时发射方等待而不是丢弃
	Lossless bool
}

// EmitterSettings 发射器设置
type EmitterSettings struct {
	Stateful bool
}

// BufSize 设置订阅缓冲区大小
func BufSize(size int) SubscriptionOpt {
	return func(s *SubscriptionSettings) {
		s.Buffer = size
	}
}

// Lossless 订阅不丢事件，慢消费者会阻塞发射方
func Lossless() SubscriptionOpt {
	return func(s *SubscriptionSettings) {
		s.Lossless = true
	}
}

// Stateful 新订阅者立即收到最后一个事件
func Stateful() EmitterOpt {
	return func(s *EmitterSettings) {
		s.Stateful = true
	}
}
