package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sessionwatch/heron/pkg/facedet"
	"github.com/sessionwatch/heron/pkg/vframe"
	"github.com/sessionwatch/heron/pkg/vsource"
)

// runner 单次分析的全部跟踪状态
// 人物身份、滚动历史、离屏状态都只属于本次运行，
// 并发分析多个会话时互不干扰
type runner struct {
	detector facedet.Detector
	tracker  *tracker
	liveness *livenessChecker

	timeline  []TimelineEvent
	perPerson map[int][]personSample
	proofs    []Proof

	proofState   proofState
	proofQuality int

	minOffSeconds float64
	displayMinOn  float64
	displayMinOff float64

	samplesWithFaces int
	samplesLive      int
}

func (c Core) newRunner() *runner {
	cfg := c.conf
	return &runner{
		detector:      c.detector,
		tracker:       newTracker(),
		liveness:      newLivenessChecker(cfg.SSIMThreshold, cfg.LandmarkThreshold),
		perPerson:     make(map[int][]personSample),
		proofQuality:  cfg.ProofQuality,
		minOffSeconds: cfg.MinOffSeconds,
		displayMinOn:  cfg.DisplayMinOnSeconds,
		displayMinOff: cfg.DisplayMinOffSeconds,
	}
}

// Analyze 对一段录像执行完整分析，runID 用于隔离工作目录
// 整个过程作为一个原子单元，要么返回完整报告，要么返回一个明确错误，
// 不支持中途取消，放弃结果即视为取消
func (c Core) Analyze(ctx context.Context, runID, videoURL string) (report *Report, err error) {
	cfg := c.conf

	workdir := filepath.Join(cfg.WorkDir, "runs", runID)
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return nil, fmt.Errorf("创建工作目录: %w", err)
	}
	// 清理失败只记日志，不能掩盖真正的分析错误
	defer func() {
		if rmErr := os.RemoveAll(workdir); rmErr != nil {
			slog.Warn("工作目录清理失败", "dir", workdir, "err", rmErr)
		}
	}()

	provider := vsource.Select(videoURL, c.http)
	videoPath, err := provider.Fetch(ctx, videoURL, workdir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceFetch, err.Error())
	}

	ex := vframe.NewExtractor(vframe.Config{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		MaxWorkers:  cfg.MaxExtractWorkers,
	})

	meta, err := ex.Probe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceFetch, err.Error())
	}
	slog.Info("视频就绪", "run_id", runID,
		"duration", meta.Duration, "fps", meta.FPS,
		"size", fmt.Sprintf("%dx%d", meta.Width, meta.Height))

	timestamps := vframe.SampleTimestamps(meta.Duration, cfg.SampleInterval, cfg.SmartSampling)
	frames, err := ex.ExtractFrames(ctx, videoPath, meta, timestamps)
	if err != nil {
		return nil, fmt.Errorf("抽帧失败: %w", err)
	}
	slog.Info("抽帧完成", "run_id", runID, "planned", len(timestamps), "extracted", len(frames))

	// 音轨供人工复核与转写，保留在运行目录之外，由保留期清理
	var audioPath string
	if cfg.ExtractAudio {
		audioDir := filepath.Join(cfg.WorkDir, "audio", runID)
		if err := os.MkdirAll(audioDir, 0o755); err == nil {
			audioPath, err = ex.ExtractAudio(ctx, videoPath, audioDir)
			if err != nil {
				slog.Warn("音轨抽取失败", "run_id", runID, "err", err)
				audioPath = ""
			}
		}
	}

	// 跟踪状态依赖帧间顺序，检测与分类必须严格串行
	r := c.newRunner()
	for _, f := range frames {
		r.processFrame(ctx, f)
	}

	report, err = r.buildReport(*meta, frames, float64(cfg.SampleInterval))
	if err != nil {
		return nil, err
	}
	report.AudioPath = audioPath
	return report, nil
}
