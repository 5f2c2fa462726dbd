package service

import (
	"context"
	"sync/atomic"
	"time"

	"reefer-monitor/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LiveSnapshot 一轮实时刷新的结果
type LiveSnapshot struct {
	Cycle       int                         `json:"cycle"`
	Temperature *domain.TemperatureSnapshot `json:"temperature"`
	Door        *domain.DoorSnapshot        `json:"door"` // 无门传感器时为 nil
	FetchedAt   time.Time                   `json:"fetchedAt"`
}

// TickFunc 每轮刷新回调（与具体 UI 无关，展示层自行决定怎么渲染）
type TickFunc func(ctx context.Context, snapshot LiveSnapshot)

// LivePoller 实时刷新轮询器
// 固定间隔 + 轮数上限（免费档 API 限流），协作式暂停/停止：
// 标志每轮检查一次，不会打断进行中的请求。
type LivePoller struct {
	history      *HistoryService
	interval     time.Duration
	cycles       int
	tempSensorID int64
	doorSensorID int64 // 0 表示无门传感器
	onTick       TickFunc
	logger       *zap.Logger

	paused  atomic.Bool
	stopped atomic.Bool
}

func NewLivePoller(history *HistoryService, interval time.Duration, cycles int, tempSensorID, doorSensorID int64, onTick TickFunc, logger *zap.Logger) *LivePoller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if cycles <= 0 {
		cycles = 72
	}
	return &LivePoller{
		history:      history,
		interval:     interval,
		cycles:       cycles,
		tempSensorID: tempSensorID,
		doorSensorID: doorSensorID,
		onTick:       onTick,
		logger:       logger,
	}
}

// Pause 暂停刷新（下一轮生效）
func (p *LivePoller) Pause() { p.paused.Store(true) }

// Resume 恢复刷新
func (p *LivePoller) Resume() { p.paused.Store(false) }

// Stop 停止轮询（下一轮生效，不中断进行中的请求）
func (p *LivePoller) Stop() { p.stopped.Store(true) }

// Paused 当前是否处于暂停
func (p *LivePoller) Paused() bool { return p.paused.Load() }

// Run 执行轮询循环，直到轮数用尽 / Stop / ctx 取消
// 每次运行带一个 run_id，便于对账日志。
func (p *LivePoller) Run(ctx context.Context) {
	runID := uuid.NewString()
	p.logger.Info("Live poller started",
		zap.String("run_id", runID),
		zap.Duration("interval", p.interval),
		zap.Int("cycles", p.cycles),
		zap.Int64("temperature_sensor_id", p.tempSensorID),
		zap.Int64("door_sensor_id", p.doorSensorID),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// 进入等待前先刷一次，页面一打开就有数据
	p.tick(ctx, runID, 0)

	for cycle := 1; cycle <= p.cycles; cycle++ {
		select {
		case <-ctx.Done():
			p.logger.Info("Live poller cancelled", zap.String("run_id", runID), zap.Int("cycle", cycle))
			return
		case <-ticker.C:
		}

		if p.stopped.Load() {
			p.logger.Info("Live poller stopped", zap.String("run_id", runID), zap.Int("cycle", cycle))
			return
		}
		if p.paused.Load() {
			continue
		}
		p.tick(ctx, runID, cycle)
	}

	p.logger.Info("Live poller finished all cycles", zap.String("run_id", runID))
}

func (p *LivePoller) tick(ctx context.Context, runID string, cycle int) {
	snapshot := LiveSnapshot{Cycle: cycle, FetchedAt: time.Now()}

	temp, err := p.history.CurrentTemperature(ctx, p.tempSensorID)
	if err != nil {
		// 实时路径同样 fail-soft：这一轮显示 N/A，下一轮再试
		p.logger.Warn("Live temperature fetch failed",
			zap.String("run_id", runID),
			zap.Int("cycle", cycle),
			zap.Error(err),
		)
	} else {
		snapshot.Temperature = temp
	}

	if p.doorSensorID != 0 {
		door, err := p.history.CurrentDoorStatus(ctx, p.doorSensorID)
		if err != nil {
			p.logger.Warn("Live door status fetch failed",
				zap.String("run_id", runID),
				zap.Int("cycle", cycle),
				zap.Error(err),
			)
		} else {
			snapshot.Door = door
		}
	}

	if p.onTick != nil {
		p.onTick(ctx, snapshot)
	}
}
