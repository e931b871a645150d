// Package dat 提供 dat 驱动器的生命周期管理与网络协调
//
// Node 组装存储、加载器、管理器、名称解析与 HTTP 网关，
// 对外提供按地址加载、创建、删除 dat 的入口。
//
// 快速开始：
//
//	node, err := dat.Start(ctx,
//	    dat.WithDataDir("./data"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close(ctx)
//
//	h, err := node.CreateDat(ctx, nil)
//	fmt.Println(h.Address().URL())
//
// 同一进程中的多个 Node 通过 WithNetwork 共享网络后即可相互复制：
//
//	net := swarm.NewNetwork()
//	a, _ := dat.Start(ctx, dat.WithNetwork(net))
//	b, _ := dat.Start(ctx, dat.WithNetwork(net))
//
// 选项合并顺序：库默认值 ← WithDefaults（或配置中的 defaults）← 调用选项。
package dat
