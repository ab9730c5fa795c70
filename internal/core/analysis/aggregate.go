package analysis

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"math"
	"sort"
	"time"

	"github.com/sessionwatch/heron/pkg/vframe"
)

// 整体在线判定阈值：活体样本占比超过 10%
const cameraOnOverallRatio = 0.1

// 判定使用静态图像：在场样本中静态占比超过 80%
const staticDominantRatio = 0.8

// 下游视觉分析最多取 3 帧
const maxSelectedFrames = 3

// buildReport 汇总单次运行的全部观测为最终报告
// 没有任何可用帧时无法给出结论，返回聚合错误
func (r *runner) buildReport(meta vframe.Metadata, frames []vframe.Frame, interval float64) (*Report, error) {
	if len(r.timeline) == 0 {
		return nil, fmt.Errorf("%w: 没有可分析的帧", ErrAggregation)
	}

	samples := cameraSamples(r.timeline)
	offPeriods := detectOffPeriods(samples, r.minOffSeconds)

	personOff := make(map[int][]Period, len(r.perPerson))
	personStats := make(map[int]PersonStats, len(r.perPerson))
	staticPersons := 0
	for id, history := range r.perPerson {
		personOff[id] = detectOffPeriods(personSamples(history), r.minOffSeconds)

		var on, static int
		for _, s := range history {
			if s.present {
				on++
			}
			if s.static {
				static++
			}
		}
		total := len(history)
		stats := PersonStats{
			CameraOnPercentage:     percent(on, total),
			CameraStaticPercentage: percent(static, total),
			CameraActivePercentage: percent(on-static, total),
			SamplesWithFaces:       on,
			SamplesStatic:          static,
			SamplesActive:          on - static,
			TotalSamples:           total,
			CameraOnOverall:        percent(on, total) > cameraOnOverallRatio*100,
			UsingStaticImage:       static > 0 && on > 0 && float64(static)/float64(on) > staticDominantRatio,
		}
		if stats.UsingStaticImage {
			staticPersons++
		}
		personStats[id] = stats
	}

	var totalOff float64
	for _, p := range offPeriods {
		totalOff += p.Duration
	}

	liveRatio := float64(r.samplesLive) / float64(len(r.timeline))

	report := Report{
		VideoInfo: VideoInfo{
			DurationSeconds: meta.Duration,
			FPS:             meta.FPS,
			Width:           meta.Width,
			Height:          meta.Height,
			FrameCount:      meta.FrameCount,
			AnalyzedAt:      time.Now().Format(time.RFC3339),
		},
		Summary: Summary{
			CameraOnOverall:         liveRatio > cameraOnOverallRatio,
			CameraOnPercentage:      round2(liveRatio * 100),
			TotalSamples:            len(r.timeline),
			SamplesWithFaces:        r.samplesWithFaces,
			SamplesWithLiveFaces:    r.samplesLive,
			PersonCount:             len(r.perPerson),
			SamplingIntervalSeconds: interval,
			SignificantOffPeriods:   len(offPeriods),
			TotalOffDuration:        totalOff,
			PersonsWithStaticImages: staticPersons,
		},
		Timeline:         r.timeline,
		PersonStats:      personStats,
		OffPeriods:       offPeriods,
		PersonOffPeriods: personOff,
		DisplayPeriods:   displayPeriods(samples, r.displayMinOn, r.displayMinOff),
		Proofs:           r.proofs,
		SelectedFrames:   r.selectBestFrames(frames),
	}
	return &report, nil
}

// selectBestFrames 按人脸数量挑选信息量最大的几帧，供外部视觉分析使用
func (r *runner) selectBestFrames(frames []vframe.Frame) []SelectedFrame {
	byTS := make(map[float64]*vframe.Frame, len(frames))
	for i := range frames {
		byTS[frames[i].Timestamp] = &frames[i]
	}

	candidates := make([]TimelineEvent, 0, len(r.timeline))
	for _, e := range r.timeline {
		if e.FaceCount > 0 {
			candidates = append(candidates, e)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].FaceCount != candidates[j].FaceCount {
			return candidates[i].FaceCount > candidates[j].FaceCount
		}
		return candidates[i].Timestamp > candidates[j].Timestamp
	})

	out := make([]SelectedFrame, 0, maxSelectedFrames)
	for _, e := range candidates {
		if len(out) >= maxSelectedFrames {
			break
		}
		f, ok := byTS[e.Timestamp]
		if !ok {
			continue
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, f.Image, &jpeg.Options{Quality: r.proofQuality}); err != nil {
			continue
		}
		out = append(out, SelectedFrame{
			Timestamp:   e.Timestamp,
			FaceCount:   e.FaceCount,
			ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		})
	}
	return out
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
