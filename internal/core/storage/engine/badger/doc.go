// Package badger 基于 BadgerDB v4 的存储引擎实现
package badger
