package eventbus

import (
	"go.uber.org/fx"

	pkgif "github.com/dep2p/go-dat/pkg/interfaces"
)

// Result fx 输出
type Result struct {
	fx.Out

	EventBus pkgif.EventBus
}

// Module 返回事件总线 fx 模块
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(ProvideEventBus),
	)
}

// ProvideEventBus 提供事件总线
func ProvideEventBus() Result {
	return Result{EventBus: NewBus()}
}
