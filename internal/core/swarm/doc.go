// Package swarm 提供进程内的驱动器网络
//
// Network 是多个 Swarm 共享的集线器，每个 Loader 持有一个 Swarm。
// 不同 Swarm 中发现密钥相同的驱动器，在一方公告（announce）而另一方
// 查找（lookup）时建立连接；连接上由上传方（upload）向下载方
// （download）复制块，复制只在下载方需要块（Wanted）时开始。
//
//	net := swarm.NewNetwork()
//	a, _ := swarm.NewSwarm("node-a", swarm.WithNetwork(net))
//	b, _ := swarm.NewSwarm("node-b", swarm.WithNetwork(net))
//	a.Add(ownerDrive, types.SwarmOptions{})
//	b.Add(replicaDrive, types.SwarmOptions{})
//
// 加入的驱动器必须实现 interfaces.Replicator。连接建立与断开时在
// Swarm 的事件总线上发布 EvtPeerConnected 与 EvtPeerDisconnected。
//
// Close 之后 Add 返回 ErrSwarmClosed，Remove 不做任何事。
package swarm
