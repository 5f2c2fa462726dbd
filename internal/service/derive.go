package service

import (
	"math"
	"sort"

	"reefer-monitor/internal/domain"
)

// DetectDoorOpenEvents 门打开事件检测（closed→open 的上升沿）
// 对相邻样本对 (prev, curr)：prev 已关 且 curr 已开 时，记 curr 的时间戳为事件。
// 首个样本没有前驱，永远不构成事件；值未知（nil）的样本不参与边沿判定。
// 输入应当按时间升序，这里仍做防御性排序。
func DetectDoorOpenEvents(points []domain.DoorPoint) []int64 {
	if len(points) < 2 {
		return nil
	}
	sorted := make([]domain.DoorPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TimeMs < sorted[j].TimeMs })

	var events []int64
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		if prev.Closed == nil || curr.Closed == nil {
			continue
		}
		if *prev.Closed && !*curr.Closed {
			events = append(events, curr.TimeMs)
		}
	}
	return events
}

// ComputeStatistics 温度序列统计 + 阈值违规计数
// 只统计非空值；严格低于 min 或严格高于 max 记为违规。
// 单位换算必须在调用本函数之前完成（阈值与序列须同一单位）。
func ComputeStatistics(points []domain.TimePoint, minThreshold, maxThreshold float64) domain.Statistics {
	stats := domain.Statistics{Violations: []domain.TimePoint{}}

	var sum float64
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		v := *p.Value
		if stats.SampleCount == 0 {
			stats.Min = v
			stats.Max = v
		} else {
			if v < stats.Min {
				stats.Min = v
			}
			if v > stats.Max {
				stats.Max = v
			}
		}
		stats.SampleCount++
		sum += v

		if v < minThreshold || v > maxThreshold {
			stats.ViolationCount++
			stats.Violations = append(stats.Violations, p)
		}
	}
	if stats.SampleCount > 0 {
		stats.Mean = sum / float64(stats.SampleCount)
	}
	return stats
}

// NearestSample 找时间上最接近 targetMs 的非空样本
// 用于把开门事件投影到温度曲线上做标记；|Δt| 相同取序列中先遇到的（稳定）。
func NearestSample(points []domain.TimePoint, targetMs int64) *domain.TimePoint {
	var best *domain.TimePoint
	bestDiff := int64(math.MaxInt64)
	for i := range points {
		p := &points[i]
		if p.Value == nil {
			continue
		}
		diff := p.TimeMs - targetMs
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			bestDiff = diff
			best = p
		}
	}
	return best
}

// ConvertTemperatureSeries 把毫摄氏度原始序列换算为展示单位
// nil 传播：缺失值换算后仍然缺失。
func ConvertTemperatureSeries(points []domain.TimePoint, unit domain.TemperatureUnit) []domain.TimePoint {
	out := make([]domain.TimePoint, len(points))
	for i, p := range points {
		celsius := domain.MilliCelsius(p.Value)
		if unit == domain.UnitFahrenheit {
			out[i] = domain.TimePoint{TimeMs: p.TimeMs, Value: domain.CelsiusToFahrenheit(celsius)}
		} else {
			out[i] = domain.TimePoint{TimeMs: p.TimeMs, Value: celsius}
		}
	}
	return out
}

// DropMissing 去掉空值样本（画图和统计前的收尾）
func DropMissing(points []domain.TimePoint) []domain.TimePoint {
	out := make([]domain.TimePoint, 0, len(points))
	for _, p := range points {
		if p.Value != nil {
			out = append(out, p)
		}
	}
	return out
}
