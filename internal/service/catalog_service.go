package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"reefer-monitor/internal/domain"
	"reefer-monitor/internal/store"

	"go.uber.org/zap"
)

// 缓存 key（按调用函数分 key，对应原型的按函数 TTL 缓存）
const (
	cacheKeyCatalog = "reefer:catalog"
	cacheKeyOrg     = "reefer:org"
)

// CatalogService 车辆目录服务：分页拉取 + 拍平 + TTL 缓存
type CatalogService struct {
	client     *SamsaraClient
	kv         store.KV
	catalogTTL time.Duration
	orgTTL     time.Duration
	logger     *zap.Logger
}

func NewCatalogService(client *SamsaraClient, kv store.KV, catalogTTL, orgTTL time.Duration, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		client:     client,
		kv:         kv,
		catalogTTL: catalogTTL,
		orgTTL:     orgTTL,
		logger:     logger,
	}
}

// GetOrgDetails 获取组织信息（带缓存）
func (s *CatalogService) GetOrgDetails(ctx context.Context) (*domain.OrgDetails, error) {
	if raw, err := s.kv.Get(ctx, cacheKeyOrg); err == nil {
		var org domain.OrgDetails
		if json.Unmarshal([]byte(raw), &org) == nil {
			return &org, nil
		}
	}

	org, err := s.client.GetOrgDetails(ctx)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, cacheKeyOrg, org, s.orgTTL)
	return org, nil
}

// FetchFleetCatalog 拉取全量车辆目录并拍平为 (vehicle, sensor) 行
// 分页直到 hasNextPage=false；翻页中途失败时返回已累积的行 + 非 nil error，
// 调用方可以看出目录是"半截的"，而不是把残缺结果当完整（fail-soft 但不默不作声）。
func (s *CatalogService) FetchFleetCatalog(ctx context.Context) ([]domain.SensorRecord, error) {
	if raw, err := s.kv.Get(ctx, cacheKeyCatalog); err == nil {
		var records []domain.SensorRecord
		if json.Unmarshal([]byte(raw), &records) == nil {
			return records, nil
		}
	}

	var records []domain.SensorRecord
	after := ""
	pages := 0
	for {
		page, err := s.client.ListVehiclesPage(ctx, after)
		if err != nil {
			s.logger.Warn("Catalog pagination aborted, returning partial result",
				zap.Int("pages_fetched", pages),
				zap.Int("records_so_far", len(records)),
				zap.Error(err),
			)
			return records, err
		}
		pages++
		for i := range page.Data {
			records = append(records, flattenVehicle(&page.Data[i])...)
		}
		if !page.Pagination.HasNextPage {
			break
		}
		after = page.Pagination.EndCursor
	}

	s.logger.Info("Fleet catalog fetched",
		zap.Int("pages", pages),
		zap.Int("records", len(records)),
	)
	s.cachePut(ctx, cacheKeyCatalog, records, s.catalogTTL)
	return records, nil
}

// InvalidateCatalog 手动刷新时清掉目录缓存
func (s *CatalogService) InvalidateCatalog(ctx context.Context) {
	if err := s.kv.Delete(ctx, cacheKeyCatalog); err != nil {
		s.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
	}
}

func (s *CatalogService) cachePut(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	// 缓存写失败只记日志，不影响主流程
	if err := s.kv.Set(ctx, key, string(data), ttl); err != nil {
		s.logger.Warn("Failed to write response cache", zap.String("key", key), zap.Error(err))
	}
}

// flattenVehicle 把一辆车的嵌套传感器配置拍平成行
// 有 N 个传感器产出 N 行（共享车辆字段）；没有配置则产出一行全 nil 哨兵行。
func flattenVehicle(v *samsaraVehicle) []domain.SensorRecord {
	base := domain.SensorRecord{
		VehicleID:    v.ID.String(),
		VehicleName:  v.Name,
		LicensePlate: v.LicensePlate,
		Make:         v.Make,
		Model:        v.Model,
		Serial:       v.Serial,
		VIN:          v.VIN,
		Year:         v.Year.String(),
	}

	cfg := v.SensorConfiguration
	if cfg == nil {
		// 哨兵行：传感器字段全空，但车辆仍然可按 id 被发现
		return []domain.SensorRecord{base}
	}

	var records []domain.SensorRecord
	for _, area := range cfg.Areas {
		for _, sensor := range area.TemperatureSensors {
			records = append(records, sensorRow(base, domain.SensorTypeTemperature, area.Position, sensor))
		}
		for _, sensor := range area.HumiditySensors {
			records = append(records, sensorRow(base, domain.SensorTypeHumidity, area.Position, sensor))
		}
	}
	for _, door := range cfg.Doors {
		if door.Sensor == nil {
			continue
		}
		records = append(records, sensorRow(base, domain.SensorTypeDoor, door.Position, *door.Sensor))
	}

	if len(records) == 0 {
		// 配置存在但没有任何子传感器，同样退化为哨兵行
		return []domain.SensorRecord{base}
	}
	return records
}

func sensorRow(base domain.SensorRecord, sensorType domain.SensorType, position string, sensor sensorSummary) domain.SensorRecord {
	row := base
	st := sensorType
	pos := position
	name := sensor.Name
	id := sensor.ID
	mac := sensor.Mac
	row.SensorType = &st
	row.SensorPosition = &pos
	row.SensorName = &name
	row.SensorID = &id
	row.SensorMac = &mac
	return row
}

// UniqueVehicles 按 VehicleID 去重（保留首个出现的行），并按 id 排序
// 目录是一行一传感器的反范式结构，车辆下拉框需要去重后的车辆列表。
func UniqueVehicles(records []domain.SensorRecord) []domain.SensorRecord {
	seen := map[string]bool{}
	var unique []domain.SensorRecord
	for _, r := range records {
		if seen[r.VehicleID] {
			continue
		}
		seen[r.VehicleID] = true
		unique = append(unique, r)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].VehicleID < unique[j].VehicleID })
	return unique
}

// SensorsForVehicle 过滤出某辆车的全部传感器行
func SensorsForVehicle(records []domain.SensorRecord, vehicleID string) []domain.SensorRecord {
	var out []domain.SensorRecord
	for _, r := range records {
		if r.VehicleID == vehicleID {
			out = append(out, r)
		}
	}
	return out
}

// FindSensor 找某辆车上指定类型的第一个传感器
// 找不到返回 domain.ErrNoSensor（温度必需、门可选由调用方决定）。
func FindSensor(records []domain.SensorRecord, vehicleID string, sensorType domain.SensorType) (*domain.SensorRecord, error) {
	for i := range records {
		r := &records[i]
		if r.VehicleID != vehicleID || !r.HasSensor() {
			continue
		}
		if *r.SensorType == sensorType {
			return r, nil
		}
	}
	return nil, domain.ErrNoSensor
}
