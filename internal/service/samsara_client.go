package service

import (
	"context"
	"fmt"
	"time"

	"reefer-monitor/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// 历史查询缺失填充策略（厂家线协议取值）
const (
	fillWithNull     = "withNull"     // 缺失保持空，避免把断链误读成平稳曲线
	fillWithPrevious = "withPrevious" // 缺失继承上一已知值，适合持续性状态
)

// 历史查询指标字段名
const (
	fieldAmbientTemperature = "ambientTemperature"
	fieldHumidity           = "humidity"
	fieldDoorClosed         = "doorClosed"
)

// SamsaraClient 车队云端（Samsara）API 客户端
// Bearer token 由外部下发；不做重试（原型没有重试语义，限流档位也不允许）。
type SamsaraClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewSamsaraClient 创建 Samsara 客户端
func NewSamsaraClient(baseURL, apiToken string, timeout time.Duration, logger *zap.Logger) *SamsaraClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &SamsaraClient{
		httpClient: client,
		logger:     logger,
	}
}

// GetOrgDetails 获取组织信息（GET /me）
func (c *SamsaraClient) GetOrgDetails(ctx context.Context) (*domain.OrgDetails, error) {
	var response orgResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&response).
		Get("/me")
	if err != nil {
		c.logger.Error("Samsara API call failed: /me", zap.Error(err))
		return nil, fmt.Errorf("failed to call /me: %w: %v", domain.ErrUnavailable, err)
	}
	if resp.IsError() {
		c.logger.Error("Samsara API returned error: /me",
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("/me returned status %d: %w", resp.StatusCode(), domain.ErrUnavailable)
	}

	return &domain.OrgDetails{
		ID:   response.Data.ID.String(),
		Name: response.Data.Name,
	}, nil
}

// ListVehiclesPage 获取车辆列表的一页（GET /fleet/vehicles）
// after 为上一页返回的 endCursor，空串表示第一页。
func (c *SamsaraClient) ListVehiclesPage(ctx context.Context, after string) (*vehiclesPage, error) {
	req := c.httpClient.R().
		SetContext(ctx)
	if after != "" {
		req.SetQueryParam("after", after)
	}

	var page vehiclesPage
	resp, err := req.SetResult(&page).Get("/fleet/vehicles")
	if err != nil {
		c.logger.Error("Samsara API call failed: /fleet/vehicles",
			zap.Error(err),
			zap.String("after", after),
		)
		return nil, fmt.Errorf("failed to call /fleet/vehicles: %w: %v", domain.ErrUnavailable, err)
	}
	if resp.IsError() {
		c.logger.Error("Samsara API returned error: /fleet/vehicles",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("after", after),
		)
		return nil, fmt.Errorf("/fleet/vehicles returned status %d: %w", resp.StatusCode(), domain.ErrUnavailable)
	}
	return &page, nil
}

// GetSensorHistory 范围查询某一指标的历史序列（POST /v1/sensors/history）
// 返回未解包的 results，由调用方按指标类型解包 series[0]。
func (c *SamsaraClient) GetSensorHistory(ctx context.Context, field string, widgetID int64, startMs, endMs, stepMs int64, fillMissing string) ([]historyResult, error) {
	payload := historyRequest{
		FillMissing: fillMissing,
		Series: []historySeries{
			{Field: field, WidgetID: widgetID},
		},
		StartMs: startMs,
		EndMs:   endMs,
		StepMs:  stepMs,
	}

	c.logger.Debug("Calling Samsara API: sensors/history",
		zap.String("field", field),
		zap.Int64("widget_id", widgetID),
		zap.Int64("start_ms", startMs),
		zap.Int64("end_ms", endMs),
		zap.Int64("step_ms", stepMs),
	)

	var response historyResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&response).
		Post("/v1/sensors/history")
	if err != nil {
		c.logger.Error("Samsara API call failed: sensors/history",
			zap.Error(err),
			zap.String("field", field),
		)
		return nil, fmt.Errorf("failed to call sensors/history: %w: %v", domain.ErrUnavailable, err)
	}
	if resp.IsError() {
		c.logger.Error("Samsara API returned error: sensors/history",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("field", field),
		)
		return nil, fmt.Errorf("sensors/history returned status %d: %w", resp.StatusCode(), domain.ErrUnavailable)
	}

	return response.Results, nil
}

// GetCurrentTemperature 获取传感器当前温度（POST /v1/sensors/temperature）
// 快照不存在时返回 (nil, nil)，与"查询失败"区分。
func (c *SamsaraClient) GetCurrentTemperature(ctx context.Context, sensorID int64) (*domain.TemperatureSnapshot, error) {
	var response currentTemperatureResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(currentSensorsRequest{Sensors: []int64{sensorID}}).
		SetResult(&response).
		Post("/v1/sensors/temperature")
	if err != nil {
		c.logger.Error("Samsara API call failed: sensors/temperature",
			zap.Error(err),
			zap.Int64("sensor_id", sensorID),
		)
		return nil, fmt.Errorf("failed to call sensors/temperature: %w: %v", domain.ErrUnavailable, err)
	}
	if resp.IsError() {
		c.logger.Error("Samsara API returned error: sensors/temperature",
			zap.Int("status_code", resp.StatusCode()),
			zap.Int64("sensor_id", sensorID),
		)
		return nil, fmt.Errorf("sensors/temperature returned status %d: %w", resp.StatusCode(), domain.ErrUnavailable)
	}

	if len(response.Sensors) == 0 {
		c.logger.Warn("No temperature data found for sensor", zap.Int64("sensor_id", sensorID))
		return nil, nil
	}
	s := response.Sensors[0]
	return &domain.TemperatureSnapshot{
		SensorID:           s.ID,
		SensorName:         s.Name,
		AmbientTemperature: s.AmbientTemperature,
		Time:               s.AmbientTemperatureTime,
		VehicleID:          s.VehicleID.String(),
	}, nil
}

// GetCurrentDoorStatus 获取传感器当前门状态（POST /v1/sensors/door）
func (c *SamsaraClient) GetCurrentDoorStatus(ctx context.Context, sensorID int64) (*domain.DoorSnapshot, error) {
	var response currentDoorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(currentSensorsRequest{Sensors: []int64{sensorID}}).
		SetResult(&response).
		Post("/v1/sensors/door")
	if err != nil {
		c.logger.Error("Samsara API call failed: sensors/door",
			zap.Error(err),
			zap.Int64("sensor_id", sensorID),
		)
		return nil, fmt.Errorf("failed to call sensors/door: %w: %v", domain.ErrUnavailable, err)
	}
	if resp.IsError() {
		c.logger.Error("Samsara API returned error: sensors/door",
			zap.Int("status_code", resp.StatusCode()),
			zap.Int64("sensor_id", sensorID),
		)
		return nil, fmt.Errorf("sensors/door returned status %d: %w", resp.StatusCode(), domain.ErrUnavailable)
	}

	if len(response.Sensors) == 0 {
		c.logger.Warn("No door status data found for sensor", zap.Int64("sensor_id", sensorID))
		return nil, nil
	}
	s := response.Sensors[0]
	return &domain.DoorSnapshot{
		SensorID:   s.ID,
		SensorName: s.Name,
		DoorClosed: s.DoorClosed,
		Time:       s.DoorStatusTime,
		VehicleID:  s.VehicleID.String(),
	}, nil
}
