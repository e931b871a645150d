// Package archive 在 dat 句柄之上提供面向应用的文件 API
//
// Archive 的读写直接作用于驱动器的文件树，Checkout 返回指定版本的
// 只读 Archive。所有阻塞操作接受 ctx，超时由调用方设置。
//
//	a, err := archive.New(handle)
//	text, err := a.ReadFileString(ctx, "/index.html", archive.UTF8)
//	err = a.WriteFileString(ctx, "/logo.bin", "89504e47", archive.Hex)
//
// 标题、描述等元信息保存在 dat.json 中，通过 GetInfo 与 Configure 读写。
package archive
