package metrics

import "time"

// Reporter 指标上报
type Reporter interface {
	// DriveOpened 句柄进入注册表
	DriveOpened()
	// DriveClosed 句柄离开注册表
	DriveClosed()
	// SwarmJoined 句柄加入网络
	SwarmJoined()
	// SwarmLeft 句柄离开网络
	SwarmLeft()
	// Event 管理器事件
	Event(name string)
	// ObserveLoad 记录一次加载
	ObserveLoad(d time.Duration, err error)
}

// Nop 返回不做任何事的 Reporter
func Nop() Reporter { return nopReporter{} }

type nopReporter struct{}

func (nopReporter) DriveOpened()                      {}
func (nopReporter) DriveClosed()                      {}
func (nopReporter) SwarmJoined()                      {}
func (nopReporter) SwarmLeft()                        {}
func (nopReporter) Event(string)                      {}
func (nopReporter) ObserveLoad(time.Duration, error) {}
