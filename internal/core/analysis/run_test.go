package analysis

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/sessionwatch/heron/internal/conf"
	"github.com/sessionwatch/heron/pkg/facedet"
	"github.com/sessionwatch/heron/pkg/vframe"
)

// scriptedDetector 按时间戳返回预设检测结果
type scriptedDetector struct {
	detect func(ts float64) []facedet.Detection
	last   float64
}

func (d *scriptedDetector) Detect(_ context.Context, _ *image.RGBA) ([]facedet.Detection, error) {
	return d.detect(d.last), nil
}

func newTestRunner(d facedet.Detector) *runner {
	return &runner{
		detector:      d,
		tracker:       newTracker(),
		liveness:      newLivenessChecker(0.95, 0.002),
		perPerson:     make(map[int][]personSample),
		proofQuality:  85,
		minOffSeconds: 6,
		displayMinOn:  10,
		displayMinOff: 6,
	}
}

// noiseFrame 每帧内容都不同，避免被误判为静态图像
func noiseFrame(seed int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			i := img.PixOffset(x, y)
			v := uint8((x*7 + y*13 + seed*31) % 251)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v^0x5a, v+uint8(seed), 255
		}
	}
	return img
}

func TestRunnerEndToEnd(t *testing.T) {
	// 0-14 秒在场，15-26 秒离场，27-39 秒回归
	fd := &scriptedDetector{
		detect: func(ts float64) []facedet.Detection {
			if ts >= 15 && ts < 27 {
				return nil
			}
			return []facedet.Detection{{Box: image.Rect(10, 10, 42, 42), Confidence: 0.9}}
		},
	}
	r := newTestRunner(fd)

	frames := make([]vframe.Frame, 0, 40)
	for i := 0; i < 40; i++ {
		frames = append(frames, vframe.Frame{Timestamp: float64(i), Image: noiseFrame(i)})
	}
	for _, f := range frames {
		fd.last = f.Timestamp
		r.processFrame(context.Background(), f)
	}

	meta := vframe.Metadata{Duration: 40, FPS: 25, Width: 64, Height: 48, FrameCount: 1000}
	report, err := r.buildReport(meta, frames, 1)
	if err != nil {
		t.Fatal(err)
	}

	if len(report.Timeline) != 40 {
		t.Fatalf("时间轴应覆盖全部采样点, got %d", len(report.Timeline))
	}
	if report.Summary.PersonCount != 1 {
		t.Fatalf("应只跟踪到 1 人, got %d", report.Summary.PersonCount)
	}
	if !report.Summary.CameraOnOverall {
		t.Fatal("在场比例远超阈值，整体应判定在线")
	}
	if report.Summary.SamplesWithLiveFaces != 28 {
		t.Fatalf("活体样本数应为 28, got %d", report.Summary.SamplesWithLiveFaces)
	}

	if len(report.OffPeriods) != 1 {
		t.Fatalf("应检出 1 个离屏时段, got %+v", report.OffPeriods)
	}
	p := report.OffPeriods[0]
	if p.StartTime != 15 || p.EndTime != 26 {
		t.Fatalf("离屏时段应为 15-26 秒, got %+v", p)
	}
	if report.Summary.SignificantOffPeriods != 1 {
		t.Fatalf("摘要与时段列表不一致: %+v", report.Summary)
	}

	stats, ok := report.PersonStats[1]
	if !ok {
		t.Fatalf("缺少 1 号人物统计: %+v", report.PersonStats)
	}
	if stats.SamplesWithFaces != 28 || stats.TotalSamples != 40 {
		t.Fatalf("人物统计错误: %+v", stats)
	}
	if stats.UsingStaticImage {
		t.Fatal("内容持续变化不应判定为静态图像")
	}

	if len(report.PersonOffPeriods[1]) != 1 {
		t.Fatalf("人物离屏时段错误: %+v", report.PersonOffPeriods)
	}

	if len(report.DisplayPeriods) != 3 {
		t.Fatalf("展示层应为 on/off/on 三段, got %+v", report.DisplayPeriods)
	}

	byStatus := make(map[string]int)
	for _, proof := range report.Proofs {
		byStatus[proof.Status]++
		if proof.ImageBase64 == "" {
			t.Fatalf("快照缺少图像数据: %+v", proof.Status)
		}
	}
	if byStatus[ProofOffStart] != 1 {
		t.Fatalf("应有 1 张离屏起点快照, got %v", byStatus)
	}
	if byStatus[ProofBackOn] != 1 {
		t.Fatalf("应有 1 张恢复快照, got %v", byStatus)
	}
	if byStatus[ProofOffContinued] < 1 {
		t.Fatalf("持续离屏应有补充快照, got %v", byStatus)
	}
	if byStatus[ProofPeriodicCheck] < 1 {
		t.Fatalf("应有周期巡检快照, got %v", byStatus)
	}

	if len(report.SelectedFrames) == 0 || len(report.SelectedFrames) > 3 {
		t.Fatalf("最佳帧数量应在 1-3 之间, got %d", len(report.SelectedFrames))
	}
}

func TestRunnerStaticFaceIsOff(t *testing.T) {
	// 同一张裁剪反复出现，三帧后判静态，摄像头视为未开启
	fd := &scriptedDetector{
		detect: func(float64) []facedet.Detection {
			return []facedet.Detection{{Box: image.Rect(10, 10, 42, 42), Confidence: 0.9}}
		},
	}
	r := newTestRunner(fd)

	img := noiseFrame(7)
	for i := 0; i < 10; i++ {
		r.processFrame(context.Background(), vframe.Frame{Timestamp: float64(i), Image: img})
	}

	var liveCount int
	for _, e := range r.timeline {
		if e.CameraOn {
			liveCount++
		}
	}
	// 前两帧历史不足按活体放行，之后应判静态
	if liveCount != 2 {
		t.Fatalf("静态画面只应在历史不足时放行, live=%d", liveCount)
	}
	if !r.liveness.isStatic(1) {
		t.Fatal("人物应被标记为静态")
	}
}

func TestBuildReportNoFrames(t *testing.T) {
	r := newTestRunner(&scriptedDetector{detect: func(float64) []facedet.Detection { return nil }})
	_, err := r.buildReport(vframe.Metadata{}, nil, 5)
	if !errors.Is(err, ErrAggregation) {
		t.Fatalf("空运行应返回聚合错误, got %v", err)
	}
}

func TestAnalyzeInvalidSourceCleansUp(t *testing.T) {
	// 本地引用不存在时在取源阶段就失败，不依赖 ffmpeg
	workDir := t.TempDir()
	c := NewCore(nil, WithConfig(&conf.Analysis{
		WorkDir:        workDir,
		SampleInterval: 5,
	}))

	_, err := c.Analyze(context.Background(), "task-x", filepath.Join(workDir, "no-such.mp4"))
	if !errors.Is(err, ErrSourceFetch) {
		t.Fatalf("无效视频源应返回取源错误, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(workDir, "runs", "task-x")); !os.IsNotExist(err) {
		t.Fatalf("失败的运行也应清理工作目录, err=%v", err)
	}
}
