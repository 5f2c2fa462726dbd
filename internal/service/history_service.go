package service

import (
	"context"
	"encoding/json"
	"sort"

	"reefer-monitor/internal/domain"

	"go.uber.org/zap"
)

// HistoryService 历史序列查询：单指标范围查询 + series[0] 解包
// 错误策略：传输失败/非 2xx/解包失败返回空序列 + ErrUnavailable 包装的错误；
// 查询成功但窗口内无数据返回空序列 + nil——两者对渲染层同样是"空"，
// 但想区分故障和零数据的调用方可以按错误种类判断。
type HistoryService struct {
	client *SamsaraClient
	logger *zap.Logger
}

func NewHistoryService(client *SamsaraClient, logger *zap.Logger) *HistoryService {
	return &HistoryService{client: client, logger: logger}
}

// FetchTemperatureHistory 温度历史（毫摄氏度原始值）
// fillMissing=withNull：缺失样本保持空，避免把冷链断档插值成正常曲线。
func (s *HistoryService) FetchTemperatureHistory(ctx context.Context, sensorID, startMs, endMs, stepMs int64) ([]domain.TimePoint, error) {
	return s.fetchNumericHistory(ctx, fieldAmbientTemperature, sensorID, startMs, endMs, stepMs, fillWithNull)
}

// FetchHumidityHistory 湿度历史（百分比）
// fillMissing=withPrevious：湿度是缓变量，继承上一已知值。
func (s *HistoryService) FetchHumidityHistory(ctx context.Context, sensorID, startMs, endMs, stepMs int64) ([]domain.TimePoint, error) {
	return s.fetchNumericHistory(ctx, fieldHumidity, sensorID, startMs, endMs, stepMs, fillWithPrevious)
}

func (s *HistoryService) fetchNumericHistory(ctx context.Context, field string, sensorID, startMs, endMs, stepMs int64, fillMissing string) ([]domain.TimePoint, error) {
	results, err := s.client.GetSensorHistory(ctx, field, sensorID, startMs, endMs, stepMs, fillMissing)
	if err != nil {
		return []domain.TimePoint{}, err
	}
	if len(results) == 0 {
		// 窗口内确实没有数据：空序列，不是一串 null
		return []domain.TimePoint{}, nil
	}

	points := make([]domain.TimePoint, 0, len(results))
	for _, r := range results {
		points = append(points, domain.TimePoint{
			TimeMs: r.TimeMs,
			Value:  unwrapNumber(r.Series),
		})
	}
	sortTimePoints(points)
	return points, nil
}

// FetchDoorHistory 门状态历史
// fillMissing=withPrevious：门是持续性状态，缺失样本继承上一已知状态。
// 步长默认比温度细得多（5s vs 60s），便于捕捉开门沿。
func (s *HistoryService) FetchDoorHistory(ctx context.Context, sensorID, startMs, endMs, stepMs int64) ([]domain.DoorPoint, error) {
	results, err := s.client.GetSensorHistory(ctx, fieldDoorClosed, sensorID, startMs, endMs, stepMs, fillWithPrevious)
	if err != nil {
		return []domain.DoorPoint{}, err
	}
	if len(results) == 0 {
		return []domain.DoorPoint{}, nil
	}

	points := make([]domain.DoorPoint, 0, len(results))
	for _, r := range results {
		points = append(points, domain.DoorPoint{
			TimeMs: r.TimeMs,
			Closed: unwrapBool(r.Series),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].TimeMs < points[j].TimeMs })
	return points, nil
}

// CurrentTemperature 实时路径：当前温度快照（绕过历史查询）
func (s *HistoryService) CurrentTemperature(ctx context.Context, sensorID int64) (*domain.TemperatureSnapshot, error) {
	return s.client.GetCurrentTemperature(ctx, sensorID)
}

// CurrentDoorStatus 实时路径：当前门状态快照
func (s *HistoryService) CurrentDoorStatus(ctx context.Context, sensorID int64) (*domain.DoorSnapshot, error) {
	return s.client.GetCurrentDoorStatus(ctx, sensorID)
}

// unwrapNumber 从单元素 series 容器里取出数值（null/缺失 → nil）
func unwrapNumber(series []json.RawMessage) *float64 {
	if len(series) == 0 || series[0] == nil {
		return nil
	}
	var v *float64
	if err := json.Unmarshal(series[0], &v); err != nil {
		return nil
	}
	return v
}

// unwrapBool 从单元素 series 容器里取出布尔值
func unwrapBool(series []json.RawMessage) *bool {
	if len(series) == 0 || series[0] == nil {
		return nil
	}
	var v *bool
	if err := json.Unmarshal(series[0], &v); err != nil {
		return nil
	}
	return v
}

// sortTimePoints 按时间升序（API 应当有序，这里做防御性排序）
func sortTimePoints(points []domain.TimePoint) {
	sort.Slice(points, func(i, j int) bool { return points[i].TimeMs < points[j].TimeMs })
}
