package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/fyerfyer/finsight/internal/analysis"
	"github.com/fyerfyer/finsight/internal/keywords"
	"github.com/spf13/viper"
)

// Config 应用程序配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Database DatabaseConfig `mapstructure:"database"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`          // 服务器主机
	Port         int           `mapstructure:"port"`          // 服务器端口
	Mode         string        `mapstructure:"mode"`          // gin运行模式
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`  // 读取超时
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // 写入超时
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AnalysisConfig 分析流水线配置
type AnalysisConfig struct {
	PreferFirstColumnLabels bool          `mapstructure:"prefer_first_column_labels"`
	MaxSummarySentences     int           `mapstructure:"max_summary_sentences"`
	MinSummaryChars         int           `mapstructure:"min_summary_chars"`
	DefaultLogicalPage      int           `mapstructure:"default_logical_page"`
	TOCPages                int           `mapstructure:"toc_pages"`
	NarrativeTOCPages       int           `mapstructure:"narrative_toc_pages"`
	SearchSpan              int           `mapstructure:"search_span"`
	WindowSize              int           `mapstructure:"window_size"`
	NarrativePageOffset     int           `mapstructure:"narrative_page_offset"`
	SanityCeiling           float64       `mapstructure:"sanity_ceiling"`
	KeywordsFile            string        `mapstructure:"keywords_file"` // 关键词表YAML，为空时使用内置表
	Timeout                 time.Duration `mapstructure:"timeout"`       // 单次分析超时
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type      string `mapstructure:"type"`     // 存储类型：local 或 minio
	Path      string `mapstructure:"path"`     // 本地存储路径
	Bucket    string `mapstructure:"bucket"`   // MinIO桶名称
	Endpoint  string `mapstructure:"endpoint"` // MinIO端点
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"` // 是否使用SSL
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Enable    bool   `mapstructure:"enable"`    // 是否启用结果缓存
	Type      string `mapstructure:"type"`      // 缓存类型：memory 或 redis
	Address   string `mapstructure:"address"`   // Redis地址
	Password  string `mapstructure:"password"`  // Redis密码
	DB        int    `mapstructure:"db"`        // Redis数据库
	Namespace string `mapstructure:"namespace"` // Redis键前缀
	TTL       int    `mapstructure:"ttl"`       // 缓存TTL（秒）
}

// QueueConfig 任务队列配置
type QueueConfig struct {
	Enable        bool   `mapstructure:"enable"`         // 是否启用异步分析
	RedisAddr     string `mapstructure:"redis_addr"`     // Redis地址
	RedisPassword string `mapstructure:"redis_password"` // Redis密码
	RedisDB       int    `mapstructure:"redis_db"`       // Redis数据库编号
	Concurrency   int    `mapstructure:"concurrency"`    // 任务处理并发数
	RetryLimit    int    `mapstructure:"retry_limit"`    // 任务最大重试次数
	RetryDelay    int    `mapstructure:"retry_delay"`    // 重试延迟(秒)
	TaskExpiry    int    `mapstructure:"task_expiry"`    // 任务记录保留时间(小时)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // 数据库类型，目前仅支持sqlite
	DSN  string `mapstructure:"dsn"`  // 数据源名称
}

// UploadConfig 上传配置
type UploadConfig struct {
	MaxSize int64 `mapstructure:"max_size"` // 单个文件大小上限(字节)
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`        // 日志级别
	File       string `mapstructure:"file"`         // 日志文件，为空时只输出到标准输出
	MaxSizeMB  int    `mapstructure:"max_size_mb"`  // 单个日志文件大小上限
	MaxBackups int    `mapstructure:"max_backups"`  // 保留的旧日志文件数量
	MaxAgeDays int    `mapstructure:"max_age_days"` // 旧日志保留天数
}

var envPlaceholder = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// Load 从文件和环境变量加载配置
// path为空或文件不存在时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	expandEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "local", "minio":
	default:
		return fmt.Errorf("invalid storage.type: %q", c.Storage.Type)
	}
	switch c.Cache.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid cache.type: %q", c.Cache.Type)
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload.max_size must be positive")
	}
	if c.Analysis.MaxSummarySentences <= 0 {
		return fmt.Errorf("analysis.max_summary_sentences must be positive")
	}
	return nil
}

// ToAnalysisOptions 转换为分析流水线配置
func (c *Config) ToAnalysisOptions() (analysis.Options, error) {
	a := c.Analysis
	opts := analysis.Options{
		PreferFirstColumnLabels: a.PreferFirstColumnLabels,
		MaxSummarySentences:     a.MaxSummarySentences,
		MinSummaryChars:         a.MinSummaryChars,
		DefaultLogicalPage:      a.DefaultLogicalPage,
		TOCPages:                a.TOCPages,
		NarrativeTOCPages:       a.NarrativeTOCPages,
		SearchSpan:              a.SearchSpan,
		WindowSize:              a.WindowSize,
		NarrativePageOffset:     a.NarrativePageOffset,
		SanityCeiling:           a.SanityCeiling,
	}

	if a.KeywordsFile != "" {
		table, err := keywords.LoadFile(a.KeywordsFile)
		if err != nil {
			return analysis.Options{}, fmt.Errorf("failed to load keywords file: %w", err)
		}
		opts.Keywords = table
	}
	return opts, nil
}

// expandEnv 替换形如${NAME}的环境变量占位符
func expandEnv(cfg *Config) {
	for _, field := range []*string{
		&cfg.Storage.AccessKey,
		&cfg.Storage.SecretKey,
		&cfg.Storage.Endpoint,
		&cfg.Cache.Address,
		&cfg.Cache.Password,
		&cfg.Queue.RedisAddr,
		&cfg.Queue.RedisPassword,
		&cfg.Database.DSN,
	} {
		if m := envPlaceholder.FindStringSubmatch(*field); m != nil {
			*field = os.Getenv(m[1])
		}
	}
}

// setDefaults 设置配置的默认值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "2m")

	// 分析默认配置
	defaults := analysis.DefaultOptions()
	v.SetDefault("analysis.prefer_first_column_labels", defaults.PreferFirstColumnLabels)
	v.SetDefault("analysis.max_summary_sentences", defaults.MaxSummarySentences)
	v.SetDefault("analysis.min_summary_chars", defaults.MinSummaryChars)
	v.SetDefault("analysis.default_logical_page", defaults.DefaultLogicalPage)
	v.SetDefault("analysis.toc_pages", defaults.TOCPages)
	v.SetDefault("analysis.narrative_toc_pages", defaults.NarrativeTOCPages)
	v.SetDefault("analysis.search_span", defaults.SearchSpan)
	v.SetDefault("analysis.window_size", defaults.WindowSize)
	v.SetDefault("analysis.narrative_page_offset", defaults.NarrativePageOffset)
	v.SetDefault("analysis.sanity_ceiling", defaults.SanityCeiling)
	v.SetDefault("analysis.keywords_file", "")
	v.SetDefault("analysis.timeout", "2m")

	// 存储默认配置
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./data/uploads")
	v.SetDefault("storage.bucket", "finsight")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_ssl", false)

	// 缓存默认配置
	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.namespace", "finsight")
	v.SetDefault("cache.ttl", 86400) // 1天

	// 队列默认配置
	v.SetDefault("queue.enable", false)
	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_password", "")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.concurrency", 4)
	v.SetDefault("queue.retry_limit", 2)
	v.SetDefault("queue.retry_delay", 30)
	v.SetDefault("queue.task_expiry", 168)

	// 数据库默认配置
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data/finsight.db")

	// 上传默认配置
	v.SetDefault("upload.max_size", 10<<20)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}
