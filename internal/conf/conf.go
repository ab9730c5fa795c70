// Package conf 定义 TOML 启动配置
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration 支持 "30s"/"5m" 字符串写法的时长
type Duration time.Duration

// Duration 转为标准时长
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Bootstrap 应用启动配置
type Bootstrap struct {
	ConfigPath   string `toml:"-"`
	BuildVersion string `toml:"-"`
	Debug        bool   `toml:"debug"`

	Server   Server   `toml:"server"`
	Data     Data     `toml:"data"`
	Analysis Analysis `toml:"analysis"`
	Detector Detector `toml:"detector"`
}

type Server struct {
	HTTP HTTP `toml:"http"`
}

type HTTP struct {
	Port      int    `toml:"port"`
	JwtSecret string `toml:"jwt_secret"`
	PProf     PProf  `toml:"pprof"`
}

type PProf struct {
	Enabled   bool     `toml:"enabled"`
	AccessIps []string `toml:"access_ips"`
}

type Data struct {
	Database Database `toml:"database"`
}

type Database struct {
	// 形如 sqlite://heron.db、postgres://...、mysql://...
	Dsn             string   `toml:"dsn"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
	SlowThreshold   Duration `toml:"slow_threshold"`
}

// Analysis 视频分析流水线参数
type Analysis struct {
	// 工作目录，存放下载的视频与中间产物
	WorkDir string `toml:"work_dir"`
	// 基准采样间隔（秒）
	SampleInterval int `toml:"sample_interval"`
	// 片头片尾加密采样
	SmartSampling bool `toml:"smart_sampling"`
	// 并行抽帧数
	MaxExtractWorkers int `toml:"max_extract_workers"`
	// 是否抽取音轨供人工复核
	ExtractAudio bool `toml:"extract_audio"`

	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`

	// 离屏状态的最短持续（秒），低于此值视为检测抖动
	MinOffSeconds float64 `toml:"min_off_seconds"`
	// 展示层合并阈值（秒）
	DisplayMinOnSeconds  float64 `toml:"display_min_on_seconds"`
	DisplayMinOffSeconds float64 `toml:"display_min_off_seconds"`

	// 静态图像判定
	SSIMThreshold     float64 `toml:"ssim_threshold"`
	LandmarkThreshold float64 `toml:"landmark_threshold"`

	// 取证快照 JPEG 质量
	ProofQuality int `toml:"proof_quality"`

	// 结果保留天数，0 表示永久保留
	RetainDays      int      `toml:"retain_days"`
	CleanupInterval Duration `toml:"cleanup_interval"`
}

// Detector 人脸检测推理服务
type Detector struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
	Quality int      `toml:"quality"`
}

// SetupConfig 读取配置文件，文件不存在时写出默认配置
func SetupConfig(path string) (*Bootstrap, error) {
	c := defaultBootstrap()
	c.ConfigPath = path

	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
		if err := WriteConfig(c, path); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err := toml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	c.mergeDefault()
	return c, nil
}

// WriteConfig 将配置写回文件
func WriteConfig(c *Bootstrap, path string) error {
	b, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("写入配置失败: %w", err)
	}
	return nil
}

func defaultBootstrap() *Bootstrap {
	return &Bootstrap{
		Server: Server{
			HTTP: HTTP{
				Port:      8080,
				JwtSecret: "",
			},
		},
		Data: Data{
			Database: Database{
				Dsn:             "sqlite://heron.db",
				MaxIdleConns:    3,
				MaxOpenConns:    10,
				ConnMaxLifetime: Duration(6 * time.Hour),
				SlowThreshold:   Duration(500 * time.Millisecond),
			},
		},
		Analysis: Analysis{
			WorkDir:              "workdir",
			SampleInterval:       5,
			SmartSampling:        true,
			MaxExtractWorkers:    4,
			ExtractAudio:         true,
			FFmpegPath:           "ffmpeg",
			FFprobePath:          "ffprobe",
			MinOffSeconds:        6,
			DisplayMinOnSeconds:  10,
			DisplayMinOffSeconds: 6,
			SSIMThreshold:        0.95,
			LandmarkThreshold:    0.002,
			ProofQuality:         85,
			RetainDays:           30,
			CleanupInterval:      Duration(time.Hour),
		},
		Detector: Detector{
			URL:     "http://127.0.0.1:9200",
			Timeout: Duration(30 * time.Second),
			Quality: 85,
		},
	}
}

// mergeDefault 补齐用户配置中缺失的关键项
func (c *Bootstrap) mergeDefault() {
	d := defaultBootstrap()
	if c.Server.HTTP.Port == 0 {
		c.Server.HTTP.Port = d.Server.HTTP.Port
	}
	if c.Data.Database.Dsn == "" {
		c.Data.Database.Dsn = d.Data.Database.Dsn
	}
	if c.Data.Database.MaxIdleConns == 0 {
		c.Data.Database.MaxIdleConns = d.Data.Database.MaxIdleConns
	}
	if c.Data.Database.MaxOpenConns == 0 {
		c.Data.Database.MaxOpenConns = d.Data.Database.MaxOpenConns
	}
	if c.Data.Database.ConnMaxLifetime == 0 {
		c.Data.Database.ConnMaxLifetime = d.Data.Database.ConnMaxLifetime
	}
	if c.Data.Database.SlowThreshold == 0 {
		c.Data.Database.SlowThreshold = d.Data.Database.SlowThreshold
	}
	if c.Analysis.WorkDir == "" {
		c.Analysis.WorkDir = d.Analysis.WorkDir
	}
	if c.Analysis.SampleInterval <= 0 {
		c.Analysis.SampleInterval = d.Analysis.SampleInterval
	}
	if c.Analysis.MaxExtractWorkers <= 0 {
		c.Analysis.MaxExtractWorkers = d.Analysis.MaxExtractWorkers
	}
	if c.Analysis.FFmpegPath == "" {
		c.Analysis.FFmpegPath = d.Analysis.FFmpegPath
	}
	if c.Analysis.FFprobePath == "" {
		c.Analysis.FFprobePath = d.Analysis.FFprobePath
	}
	if c.Analysis.MinOffSeconds <= 0 {
		c.Analysis.MinOffSeconds = d.Analysis.MinOffSeconds
	}
	if c.Analysis.DisplayMinOnSeconds <= 0 {
		c.Analysis.DisplayMinOnSeconds = d.Analysis.DisplayMinOnSeconds
	}
	if c.Analysis.DisplayMinOffSeconds <= 0 {
		c.Analysis.DisplayMinOffSeconds = d.Analysis.DisplayMinOffSeconds
	}
	if c.Analysis.SSIMThreshold <= 0 {
		c.Analysis.SSIMThreshold = d.Analysis.SSIMThreshold
	}
	if c.Analysis.LandmarkThreshold <= 0 {
		c.Analysis.LandmarkThreshold = d.Analysis.LandmarkThreshold
	}
	if c.Analysis.ProofQuality <= 0 {
		c.Analysis.ProofQuality = d.Analysis.ProofQuality
	}
	if c.Analysis.CleanupInterval <= 0 {
		c.Analysis.CleanupInterval = d.Analysis.CleanupInterval
	}
	if c.Detector.URL == "" {
		c.Detector.URL = d.Detector.URL
	}
	if c.Detector.Timeout <= 0 {
		c.Detector.Timeout = d.Detector.Timeout
	}
	if c.Detector.Quality <= 0 {
		c.Detector.Quality = d.Detector.Quality
	}
}
