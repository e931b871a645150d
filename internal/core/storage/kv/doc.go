// Package kv 在存储引擎上提供带前缀隔离的键值视图
//
// 每个 dat 的持久数据位于独立前缀下（dat/<hex>/），
// 删除 dat 即删除整个前缀。
package kv
