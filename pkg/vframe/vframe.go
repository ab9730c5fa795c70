package vframe

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

type (
	// Config 帧提取配置
	Config struct {
		FFmpegPath  string // ffmpeg 可执行文件路径，默认从 PATH 查找
		FFprobePath string // ffprobe 可执行文件路径，默认从 PATH 查找
		MaxWorkers  int    // 并行提取帧的协程数量
	}

	// Metadata 视频元数据，Probe 产出后不再修改
	Metadata struct {
		Duration   float64 `json:"duration_seconds"`
		FPS        float64 `json:"fps"`
		Width      int     `json:"width"`
		Height     int     `json:"height"`
		FrameCount int     `json:"frame_count"`
	}

	// Frame 单个采样帧，像素数据仅在分析期间存活，不落盘
	Frame struct {
		Timestamp float64
		Image     *image.RGBA
	}

	// Extractor 基于 ffmpeg 的帧与音频提取器
	Extractor struct {
		cfg Config
	}
)

// NewExtractor 创建提取器，未设置的字段使用默认值
func NewExtractor(cfg Config) *Extractor {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	return &Extractor{cfg: cfg}
}

// ffprobe -print_format json 输出结构，仅解析用到的字段
type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe 读取视频元数据
// 探测失败意味着文件不可解码，调用方应视为致命错误
func (e *Extractor) Probe(ctx context.Context, path string) (*Metadata, error) {
	cmd := exec.CommandContext(ctx, e.cfg.FFprobePath,
		"-hide_banner",
		"-loglevel", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", filepath.Base(path), err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var meta Metadata
	meta.Duration, _ = strconv.ParseFloat(probe.Format.Duration, 64)
	for _, s := range probe.Streams {
		if s.CodecType != "video" {
			continue
		}
		meta.Width = s.Width
		meta.Height = s.Height
		meta.FPS = parseFrameRate(s.RFrameRate)
		break
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, fmt.Errorf("no video stream in %s", filepath.Base(path))
	}
	if meta.Duration <= 0 {
		return nil, fmt.Errorf("invalid duration %.2f in %s", meta.Duration, filepath.Base(path))
	}
	meta.FrameCount = int(meta.Duration * meta.FPS)
	return &meta, nil
}

// parseFrameRate 解析 "30000/1001" 形式的帧率
func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	n, _ := strconv.ParseFloat(num, 64)
	d, _ := strconv.ParseFloat(den, 64)
	if d == 0 {
		return 0
	}
	return n / d
}

// SampleTimestamps 生成采样时间点
// 超过 1 分钟的视频首尾按 2 秒加密采样，中段按 intervalS 的 2 倍稀疏采样，
// 短视频按 intervalS 均匀采样，结果去重升序
func SampleTimestamps(duration float64, intervalS int, smart bool) []float64 {
	if intervalS <= 0 {
		intervalS = 2
	}
	seen := make(map[int]struct{})
	add := func(from, to, step int) {
		for t := from; t < to; t += step {
			if float64(t) < duration {
				seen[t] = struct{}{}
			}
		}
	}

	if smart && duration > 60 {
		head := int(duration) / 3
		if head > 30 {
			head = 30
		}
		tail := int(duration) * 2 / 3
		if tail < 30 {
			tail = 30
		}
		add(0, head, 2)
		add(30, int(duration)*2/3, intervalS*2)
		add(tail, int(duration), 2)
	} else {
		add(0, int(duration), intervalS)
	}

	out := make([]float64, 0, len(seen))
	for t := range seen {
		out = append(out, float64(t))
	}
	sort.Float64s(out)
	return out
}

// ExtractFrames 并行提取多个时间点的帧
// 单帧解码失败仅记录日志并跳过该时间点，不中断整体提取；
// 结果按时间戳升序返回，与协程完成顺序无关
func (e *Extractor) ExtractFrames(ctx context.Context, path string, meta *Metadata, timestamps []float64) ([]Frame, error) {
	if frames, ok := e.extractUniform(ctx, path, meta, timestamps); ok {
		return frames, nil
	}

	frames := make([]Frame, 0, len(timestamps))
	var m sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxWorkers)
	for _, ts := range timestamps {
		g.Go(func() error {
			img, err := e.extractFrame(ctx, path, ts, meta.Width, meta.Height)
			if err != nil {
				slog.Warn("提取帧失败，跳过该时间点", "timestamp", ts, "err", err)
				return nil
			}
			m.Lock()
			frames = append(frames, Frame{Timestamp: ts, Image: img})
			m.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(frames, func(i, j int) bool { return frames[i].Timestamp < frames[j].Timestamp })
	slog.Info("帧提取完成", "requested", len(timestamps), "extracted", len(frames))
	return frames, nil
}

// extractFrame 提取单帧，输出 rgb24 裸数据后转为 image.RGBA
func (e *Extractor) extractFrame(ctx context.Context, path string, ts float64, width, height int) (*image.RGBA, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(ts, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, e.cfg.FFmpegPath, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg at %.1fs: %w", ts, err)
	}

	want := width * height * 3
	if len(out) < want {
		return nil, fmt.Errorf("incomplete frame at %.1fs: %d != %d", ts, len(out), want)
	}
	return rgbToRGBA(out[:want], width, height), nil
}

// rgbToRGBA 将 rgb24 裸数据转换为 RGBA 图像
func rgbToRGBA(data []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Pix[i*4+0] = data[i*3+0]
		img.Pix[i*4+1] = data[i*3+1]
		img.Pix[i*4+2] = data[i*3+2]
		img.Pix[i*4+3] = 0xff
	}
	return img
}

// ExtractAudio 提取单声道 16k 采样率 wav 音轨，供下游转写管线使用
func (e *Extractor) ExtractAudio(ctx context.Context, path, dstDir string) (string, error) {
	audioPath := filepath.Join(dstDir, "audio.wav")
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		audioPath,
	}
	cmd := exec.CommandContext(ctx, e.cfg.FFmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("extract audio: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return audioPath, nil
}
