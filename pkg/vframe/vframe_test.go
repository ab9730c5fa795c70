package vframe

import (
	"context"
	"os/exec"
	"testing"
)

func TestSampleTimestampsShortVideo(t *testing.T) {
	got := SampleTimestamps(10, 2, true)
	want := []float64{0, 2, 4, 6, 8}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSampleTimestampsSmart(t *testing.T) {
	got := SampleTimestamps(120, 5, true)
	if len(got) == 0 {
		t.Fatal("采样点不应为空")
	}
	// 片头 0-30 秒每 2 秒一帧
	for i, ts := range got {
		if ts >= 30 {
			break
		}
		if ts != float64(i*2) {
			t.Fatalf("片头应按 2 秒加密采样, got %v", got[:i+1])
		}
	}
	// 升序且无重复
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("采样点应严格升序: %v", got)
		}
	}
	// 片尾 80 秒之后每 2 秒一帧
	var tail []float64
	for _, ts := range got {
		if ts >= 80 {
			tail = append(tail, ts)
		}
	}
	for i := 1; i < len(tail); i++ {
		if tail[i]-tail[i-1] != 2 {
			t.Fatalf("片尾应按 2 秒加密采样: %v", tail)
		}
	}
}

func TestSampleTimestampsNeverExceedDuration(t *testing.T) {
	for _, dur := range []float64{0, 1, 59.5, 61, 600} {
		for _, ts := range SampleTimestamps(dur, 5, true) {
			if ts >= dur {
				t.Fatalf("采样点 %v 超过时长 %v", ts, dur)
			}
		}
	}
}

func TestSampleTimestampsZeroInterval(t *testing.T) {
	got := SampleTimestamps(10, 0, false)
	if len(got) != 5 {
		t.Fatalf("非法间隔应回退默认值, got %v", got)
	}
}

func TestProbeMissingFile(t *testing.T) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("未安装 ffprobe，跳过")
	}
	ex := NewExtractor(Config{})
	if _, err := ex.Probe(context.Background(), "testdata/no-such-file.mp4"); err == nil {
		t.Fatal("不存在的文件应返回错误")
	}
}

func TestUniformStep(t *testing.T) {
	if step, ok := uniformStep([]float64{0, 2, 4, 6, 8}); !ok || step != 2 {
		t.Fatalf("等间隔序列应可流式提取, step=%v ok=%v", step, ok)
	}
	// 智能采样首尾加密，间隔不等
	if _, ok := uniformStep([]float64{0, 2, 4, 14, 24, 80, 82}); ok {
		t.Fatal("变间隔序列不应走流式路径")
	}
	if _, ok := uniformStep([]float64{5}); ok {
		t.Fatal("单个采样点不应走流式路径")
	}
	if _, ok := uniformStep(nil); ok {
		t.Fatal("空序列不应走流式路径")
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := map[string]float64{
		"30000/1001": 29.97002997002997,
		"25/1":       25,
		"0/0":        0,
		"":           0,
	}
	for in, want := range cases {
		got := parseFrameRate(in)
		if diff := got - want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("parseFrameRate(%q) = %v, want %v", in, got, want)
		}
	}
}
