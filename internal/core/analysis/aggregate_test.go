package analysis

import (
	"testing"

	"github.com/sessionwatch/heron/pkg/vframe"
)

// fillSamples 手工构造运行状态，绕过检测与抽帧
func fillSamples(r *runner, statics []bool) {
	for i, static := range statics {
		ts := float64(i)
		r.timeline = append(r.timeline, TimelineEvent{
			Timestamp: ts,
			CameraOn:  !static,
			FaceCount: 1,
		})
		r.perPerson[1] = append(r.perPerson[1], personSample{timestamp: ts, present: true, static: static})
		r.samplesWithFaces++
		if !static {
			r.samplesLive++
		}
	}
}

func TestBuildReportStaticDominance(t *testing.T) {
	r := newTestRunner(nil)
	// 10 个样本中 9 个静态，占比 90% 超过阈值
	statics := make([]bool, 10)
	for i := 0; i < 9; i++ {
		statics[i] = true
	}
	fillSamples(r, statics)

	report, err := r.buildReport(vframe.Metadata{Duration: 10}, nil, 1)
	if err != nil {
		t.Fatal(err)
	}

	stats := report.PersonStats[1]
	if !stats.UsingStaticImage {
		t.Fatalf("静态占比 90%% 应判定为使用静态图像: %+v", stats)
	}
	if stats.CameraOnPercentage != 100 || stats.CameraStaticPercentage != 90 {
		t.Fatalf("百分比计算错误: %+v", stats)
	}
	if report.Summary.PersonsWithStaticImages != 1 {
		t.Fatalf("摘要应统计到 1 个静态人物: %+v", report.Summary)
	}

	// 活体占比恰好 10%，阈值为严格大于，整体仍判离线
	if report.Summary.CameraOnOverall {
		t.Fatalf("活体占比 10%% 不应判定在线: %+v", report.Summary)
	}

	// 前 9 秒静态视为离屏，构成一个显著离屏时段
	if report.Summary.SignificantOffPeriods != 1 || report.Summary.TotalOffDuration != 8 {
		t.Fatalf("离屏时段统计错误: %+v", report.Summary)
	}
}

func TestBuildReportStaticExactlyAtThreshold(t *testing.T) {
	r := newTestRunner(nil)
	// 静态占比恰好 80%，阈值为严格大于
	statics := make([]bool, 10)
	for i := 0; i < 8; i++ {
		statics[i] = true
	}
	fillSamples(r, statics)

	report, err := r.buildReport(vframe.Metadata{Duration: 10}, nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if report.PersonStats[1].UsingStaticImage {
		t.Fatalf("恰好 80%% 不应判定为使用静态图像: %+v", report.PersonStats[1])
	}
}

func TestPersonStatsMatchOffPeriods(t *testing.T) {
	// 离场时长超过阈值时，从时段列表反推的在场比例应与直接统计一致
	r := newTestRunner(nil)
	for i := 0; i < 40; i++ {
		present := i < 15 || i >= 27
		ts := float64(i)
		faceCount := 0
		if present {
			faceCount = 1
			r.samplesWithFaces++
			r.samplesLive++
		}
		r.timeline = append(r.timeline, TimelineEvent{Timestamp: ts, CameraOn: present, FaceCount: faceCount})
		r.perPerson[1] = append(r.perPerson[1], personSample{timestamp: ts, present: present})
	}

	report, err := r.buildReport(vframe.Metadata{Duration: 40}, nil, 1)
	if err != nil {
		t.Fatal(err)
	}

	// 落在离屏时段内的采样点即离场样本
	offSamples := 0
	for _, s := range r.perPerson[1] {
		for _, p := range report.PersonOffPeriods[1] {
			if s.timestamp >= p.StartTime && s.timestamp <= p.EndTime {
				offSamples++
				break
			}
		}
	}
	total := len(r.perPerson[1])
	derived := percent(total-offSamples, total)
	if got := report.PersonStats[1].CameraOnPercentage; derived != got {
		t.Fatalf("时段反推的在场比例 %.2f 与统计值 %.2f 不一致", derived, got)
	}
	if derived != 70 {
		t.Fatalf("28/40 在场应为 70%%, got %.2f", derived)
	}
}

func TestPercentRounding(t *testing.T) {
	if got := percent(1, 3); got != 33.33 {
		t.Fatalf("percent(1,3) = %v", got)
	}
	if got := percent(0, 0); got != 0 {
		t.Fatalf("空序列应返回 0, got %v", got)
	}
}
