package domain

import "time"

// TemperatureUnit 展示单位
type TemperatureUnit string

const (
	UnitCelsius    TemperatureUnit = "celsius"
	UnitFahrenheit TemperatureUnit = "fahrenheit"
)

// CelsiusToFahrenheit 摄氏转华氏：F = C × 9/5 + 32
// nil 传播：缺失读数换算后仍是缺失，绝不能变成 0。
func CelsiusToFahrenheit(c *float64) *float64 {
	if c == nil {
		return nil
	}
	f := *c*9/5 + 32
	return &f
}

// FahrenheitToCelsius 华氏转摄氏：C = (F − 32) × 5/9
func FahrenheitToCelsius(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := (*f - 32) * 5 / 9
	return &c
}

// MilliCelsius 厂家线协议毫摄氏度 → 摄氏度（25000 → 25.0）
func MilliCelsius(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v / 1000.0
	return &c
}

// MsToTime Unix 毫秒时间戳 → time.Time
func MsToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// TimeToMs time.Time → Unix 毫秒时间戳（毫秒精度往返无损）
func TimeToMs(t time.Time) int64 {
	return t.UnixMilli()
}

// TimeRangePreset 时间范围预设（侧边栏固定选项）
type TimeRangePreset string

const (
	RangeLast24Hours TimeRangePreset = "24h"
	RangeLast7Days   TimeRangePreset = "7d"
	RangeLast30Days  TimeRangePreset = "30d"
)

// PresetRange 计算预设对应的 [startMs, endMs]，end 为 now
func PresetRange(preset TimeRangePreset, now time.Time) (int64, int64) {
	end := now
	var start time.Time
	switch preset {
	case RangeLast7Days:
		start = end.Add(-7 * 24 * time.Hour)
	case RangeLast30Days:
		start = end.Add(-30 * 24 * time.Hour)
	default:
		// 未知预设按 24 小时处理
		start = end.Add(-24 * time.Hour)
	}
	return TimeToMs(start), TimeToMs(end)
}
