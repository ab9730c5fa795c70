package analysis

import (
	"reflect"
	"testing"
)

func samplesFromPattern(pattern []bool, step float64) []boolSample {
	out := make([]boolSample, len(pattern))
	for i, on := range pattern {
		out[i] = boolSample{timestamp: float64(i) * step, on: on}
	}
	return out
}

func TestDetectOffPeriods(t *testing.T) {
	// T T T F F F F F F F T T，1 秒步长
	pattern := []bool{true, true, true, false, false, false, false, false, false, false, true, true}
	periods := detectOffPeriods(samplesFromPattern(pattern, 1), 6)

	if len(periods) != 1 {
		t.Fatalf("应检出恰好一个离屏时段, got %d", len(periods))
	}
	p := periods[0]
	if p.StartTime != 3 || p.EndTime != 9 || p.Duration != 6 {
		t.Fatalf("时段应覆盖 3-9 秒共 6 秒, got %+v", p)
	}
	if p.StartFormatted != "00:03" || p.EndFormatted != "00:09" {
		t.Fatalf("格式化时间错误: %+v", p)
	}
}

func TestDetectOffPeriodsShortRunIgnored(t *testing.T) {
	// 仅 3 帧离屏，短于阈值
	pattern := []bool{true, false, false, false, true, true}
	if periods := detectOffPeriods(samplesFromPattern(pattern, 1), 6); len(periods) != 0 {
		t.Fatalf("短离屏不应计入, got %+v", periods)
	}
}

func TestDetectOffPeriodsEndsWhileOff(t *testing.T) {
	pattern := []bool{true, false, false, false, false, false, false, false}
	periods := detectOffPeriods(samplesFromPattern(pattern, 1), 6)
	if len(periods) != 1 {
		t.Fatalf("视频在离屏中结束也应检出, got %d", len(periods))
	}
	if periods[0].StartTime != 1 || periods[0].EndTime != 7 {
		t.Fatalf("got %+v", periods[0])
	}
}

func TestDetectOffPeriodsPure(t *testing.T) {
	pattern := []bool{true, false, false, false, false, false, false, true, false, false, true}
	in := samplesFromPattern(pattern, 2)
	a := detectOffPeriods(in, 6)
	b := detectOffPeriods(in, 6)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("相同输入应得到相同输出")
	}
}

func TestDetectOffPeriodsInvariants(t *testing.T) {
	pattern := []bool{
		false, false, false, false, true,
		false, false, false, false, false, true,
		true, false, false, false, false, false, false, false,
	}
	periods := detectOffPeriods(samplesFromPattern(pattern, 2), 6)
	for i, p := range periods {
		if p.Duration < 6 {
			t.Fatalf("保留的时段必须达到最小时长: %+v", p)
		}
		if p.EndTime <= p.StartTime {
			t.Fatalf("结束必须晚于开始: %+v", p)
		}
		if i > 0 && p.StartTime < periods[i-1].EndTime {
			t.Fatalf("时段不应重叠: %+v", periods)
		}
	}
}

func TestDetectOffPeriodsEmpty(t *testing.T) {
	if periods := detectOffPeriods(nil, 6); len(periods) != 0 {
		t.Fatalf("空输入应得到空结果, got %+v", periods)
	}
}

func TestDisplayPeriodsGroupsFragments(t *testing.T) {
	// 前 30 秒在线，中间夹着 4 秒的抖动离屏，展示层应合并为一段在线
	samples := make([]boolSample, 0, 30)
	for i := 0; i < 30; i++ {
		on := true
		if i >= 10 && i < 14 {
			on = false
		}
		samples = append(samples, boolSample{timestamp: float64(i), on: on})
	}
	periods := displayPeriods(samples, 10, 6)
	if len(periods) != 1 {
		t.Fatalf("短暂抖动应被吸收, got %+v", periods)
	}
	if periods[0].Type != "on" {
		t.Fatalf("整段应标记为 on, got %+v", periods[0])
	}
}

func TestDisplayPeriodsKeepsLongOff(t *testing.T) {
	samples := make([]boolSample, 0, 40)
	for i := 0; i < 40; i++ {
		on := i < 15 || i >= 27
		samples = append(samples, boolSample{timestamp: float64(i), on: on})
	}
	periods := displayPeriods(samples, 10, 6)
	if len(periods) != 3 {
		t.Fatalf("应分为 on/off/on 三段, got %+v", periods)
	}
	if periods[0].Type != "on" || periods[1].Type != "off" || periods[2].Type != "on" {
		t.Fatalf("分段类型错误: %+v", periods)
	}
	if periods[1].StartTime != 15 || periods[1].EndTime != 27 {
		t.Fatalf("离屏段边界错误: %+v", periods[1])
	}
}

func TestDisplayPeriodsDropsShortGroups(t *testing.T) {
	// 开启 4 秒后离屏到结束，吸收后整组只有 6 秒，不足 on 的 10 秒阈值
	pattern := []bool{true, true, true, true, false, false, false}
	periods := displayPeriods(samplesFromPattern(pattern, 1), 10, 6)
	if len(periods) != 0 {
		t.Fatalf("不足阈值的分组应被整体丢弃, got %+v", periods)
	}
}

func TestDisplayPeriodsMeetMinimums(t *testing.T) {
	pattern := []bool{
		true, true, true, false, true, true, true, true, true, true,
		true, true, false, false, false, false, false, false, false, true,
		true, true, true, true, true, true, true, true, true, true,
	}
	periods := displayPeriods(samplesFromPattern(pattern, 2), 10, 6)
	for _, p := range periods {
		minDur := 6.0
		if p.Type == "on" {
			minDur = 10
		}
		if p.Duration < minDur {
			t.Fatalf("保留的分组必须达到自身阈值: %+v", p)
		}
	}
}

func TestDisplayPeriodsEmpty(t *testing.T) {
	if periods := displayPeriods(nil, 10, 6); periods != nil {
		t.Fatalf("空输入应得到 nil, got %+v", periods)
	}
}
