// Package eventbus 实现进程内事件总线
//
// Manager、Handle 与 Swarm 通过总线发布类型化事件，订阅方按类型接收：
//
//	sub, _ := bus.Subscribe(new(types.EvtDatLoaded))
//	defer sub.Close()
//
//	for evt := range sub.Out() {
//	    e := evt.(types.EvtDatLoaded)
//	    // ...
//	}
//
// 默认订阅在缓冲区满时丢弃事件并告警；需要完整事件序列的订阅方
// 使用 interfaces.Lossless()，此时慢消费者会阻塞发射方。
package eventbus
