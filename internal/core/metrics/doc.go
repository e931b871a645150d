// Package metrics 提供驱动器生命周期指标
//
// 指标基于 prometheus client_golang：
//
//	dat_drives_open                 已注册的句柄数
//	dat_drives_swarming             在网络中的句柄数
//	dat_manager_events_total{event} 管理器事件计数
//	dat_load_duration_seconds       加载耗时（含失败）
//	dat_load_errors_total           加载失败次数
//
// # Fx 模块
//
//	app := fx.New(
//	    metrics.Module,
//	    fx.Invoke(func(r metrics.Reporter) {
//	        r.DriveOpened()
//	    }),
//	)
//
// 未注入 *prometheus.Registry 时模块创建私有注册表，并以
// prometheus.Gatherer 输出供网关暴露 /metrics。
//
// # 并发安全
//
// 所有方法都是并发安全的。
package metrics
