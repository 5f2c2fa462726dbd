package domain

import "errors"

// ErrUnavailable 厂家 API 不可达 / 非 2xx / 响应解析失败
// 与"窗口内确实没有数据"（空序列 + nil error）区分开，
// 展示层可以据此决定降级渲染，而不是把故障当成零数据。
var ErrUnavailable = errors.New("vendor api unavailable")

// ErrNoSensor 车辆没有所需类型的传感器
var ErrNoSensor = errors.New("no sensor of requested type")

// IsUnavailable 判断错误是否为厂家 API 不可用
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
