package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config reefer-monitor 服务配置
// 全部通过构造显式注入，不读全局状态；环境变量为主，可选 YAML 文件覆盖。
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Samsara SamsaraConfig `yaml:"samsara"`
	Cache   CacheConfig   `yaml:"cache"`
	History HistoryConfig `yaml:"history"`
	Live    LiveConfig    `yaml:"live"`
}

// Duration 支持 "30s" / "5m" 写法的 YAML 时长字段
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(dur)
	return nil
}

// Std 转回标准库类型
func (d Duration) Std() time.Duration { return time.Duration(d) }

// SamsaraConfig 车队云端 API 配置
type SamsaraConfig struct {
	BaseURL  string   `yaml:"base_url"`  // 如 https://api.samsara.com
	APIToken string   `yaml:"api_token"` // Bearer token（外部下发，不做认证流程）
	Timeout  Duration `yaml:"timeout"`
}

// CacheConfig 响应缓存配置（对应原型里的按函数 TTL 缓存）
type CacheConfig struct {
	Backend    string   `yaml:"backend"` // "memory" 或 "redis"
	RedisAddr  string   `yaml:"redis_addr"`
	RedisPass  string   `yaml:"redis_password"`
	RedisDB    int      `yaml:"redis_db"`
	CatalogTTL Duration `yaml:"catalog_ttl"` // 车辆目录缓存
	OrgTTL     Duration `yaml:"org_ttl"`     // 组织信息缓存
}

// HistoryConfig 历史查询默认步长
type HistoryConfig struct {
	TemperatureStepMs int64 `yaml:"temperature_step_ms"` // 温度/湿度曲线步长
	DoorStepMs        int64 `yaml:"door_step_ms"`        // 门状态步长（更细，便于捕捉开门沿）
}

// LiveConfig 实时刷新轮询配置
type LiveConfig struct {
	Enabled             bool     `yaml:"enabled"`
	Interval            Duration `yaml:"interval"` // 每轮间隔
	Cycles              int      `yaml:"cycles"`   // 轮数上限（免费档 API 限流考虑）
	TemperatureSensorID int64    `yaml:"temperature_sensor_id"`
	DoorSensorID        int64    `yaml:"door_sensor_id"` // 0 表示无门传感器
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Samsara.BaseURL = getEnv("SAMSARA_BASE_URL", "https://api.samsara.com")
	cfg.Samsara.APIToken = getEnv("SAMSARA_API_TOKEN", "")
	cfg.Samsara.Timeout = Duration(parseDuration(getEnv("SAMSARA_TIMEOUT", "30s"), 30*time.Second))

	cfg.Cache.Backend = getEnv("CACHE_BACKEND", "memory")
	cfg.Cache.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Cache.RedisPass = getEnv("REDIS_PASSWORD", "")
	cfg.Cache.RedisDB = parseInt(getEnv("REDIS_DB", "0"), 0)
	// 原型的缓存策略：目录 5 分钟，组织信息 1 小时
	cfg.Cache.CatalogTTL = Duration(parseDuration(getEnv("CACHE_CATALOG_TTL", "5m"), 5*time.Minute))
	cfg.Cache.OrgTTL = Duration(parseDuration(getEnv("CACHE_ORG_TTL", "1h"), time.Hour))

	cfg.History.TemperatureStepMs = parseInt64(getEnv("HISTORY_TEMPERATURE_STEP_MS", "60000"), 60000)
	cfg.History.DoorStepMs = parseInt64(getEnv("HISTORY_DOOR_STEP_MS", "5000"), 5000)

	cfg.Live.Enabled = getEnv("LIVE_ENABLED", "false") == "true"
	cfg.Live.Interval = Duration(parseDuration(getEnv("LIVE_INTERVAL", "5s"), 5*time.Second))
	cfg.Live.Cycles = parseInt(getEnv("LIVE_CYCLES", "72"), 72)
	cfg.Live.TemperatureSensorID = parseInt64(getEnv("LIVE_TEMPERATURE_SENSOR_ID", "0"), 0)
	cfg.Live.DoorSensorID = parseInt64(getEnv("LIVE_DOOR_SENSOR_ID", "0"), 0)

	return cfg
}

// LoadFile 在 Load 的基础上叠加 YAML 配置文件（文件里出现的字段覆盖环境变量）
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseInt64(s string, def int64) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
