package analysis

import "github.com/sessionwatch/heron/pkg/vdraw"

// 时段阈值，原始事件与展示分组刻意使用不同的最小时长
const (
	// 短于此时长的离屏视为检测抖动，不计入事件
	defaultMinOffSeconds = 6
	// 展示层合并阈值
	defaultDisplayMinOn  = 10
	defaultDisplayMinOff = 6
)

// boolSample 二值状态流中的一个采样点
type boolSample struct {
	timestamp float64
	on        bool
}

// detectOffPeriods 从状态流中提取显著离屏时段
// 时段覆盖首个到最后一个离屏采样点，不包含恢复时刻
// 纯函数，输入相同则输出相同；返回的时段按开始时间升序且互不重叠
func detectOffPeriods(samples []boolSample, minDuration float64) []Period {
	periods := make([]Period, 0, 2)
	var offStart, lastOff float64
	inOff := false

	flush := func() {
		if d := lastOff - offStart; d >= minDuration {
			periods = append(periods, newPeriod("", offStart, lastOff))
		}
	}

	for _, s := range samples {
		switch {
		case !s.on && !inOff:
			inOff = true
			offStart = s.timestamp
			lastOff = s.timestamp
		case !s.on && inOff:
			lastOff = s.timestamp
		case s.on && inOff:
			inOff = false
			flush()
		}
	}
	// 视频在离屏状态中结束
	if inOff {
		flush()
	}
	return periods
}

// displayPeriods 面向人工阅读的粗粒度分组
// 把整条时间轴切成交替的 on/off 时段，短于各自阈值的时段并入前一组，
// 避免摘要里出现大量几秒钟的碎片；最终保留的分组时长一定不低于各自阈值
func displayPeriods(samples []boolSample, minOn, minOff float64) []Period {
	if len(samples) == 0 {
		return nil
	}

	type span struct {
		on         bool
		start, end float64
	}

	// 先按相同状态合并出原始片段，片段边界取下一片段的起点
	spans := make([]span, 0, 8)
	cur := span{on: samples[0].on, start: samples[0].timestamp}
	for _, s := range samples[1:] {
		if s.on != cur.on {
			cur.end = s.timestamp
			spans = append(spans, cur)
			cur = span{on: s.on, start: s.timestamp}
		}
	}
	cur.end = samples[len(samples)-1].timestamp
	spans = append(spans, cur)

	minFor := func(on bool) float64 {
		if on {
			return minOn
		}
		return minOff
	}

	// 逐段吸收：不够长或与当前组同状态的片段并入当前组
	groups := make([]span, 0, len(spans))
	g := spans[0]
	for _, sp := range spans[1:] {
		if sp.on != g.on && sp.end-sp.start >= minFor(sp.on) {
			groups = append(groups, g)
			g = sp
			continue
		}
		g.end = sp.end
	}
	groups = append(groups, g)

	out := make([]Period, 0, len(groups))
	for _, g := range groups {
		if g.end <= g.start {
			continue
		}
		// 吸收完碎片后整组仍须达到自身阈值，不足的丢弃
		if g.end-g.start < minFor(g.on) {
			continue
		}
		typ := "off"
		if g.on {
			typ = "on"
		}
		out = append(out, newPeriod(typ, g.start, g.end))
	}
	return out
}

func newPeriod(typ string, start, end float64) Period {
	return Period{
		Type:           typ,
		StartTime:      start,
		EndTime:        end,
		Duration:       end - start,
		StartFormatted: vdraw.FormatTimestamp(start),
		EndFormatted:   vdraw.FormatTimestamp(end),
	}
}

// cameraSamples 提取整体摄像头状态流
func cameraSamples(timeline []TimelineEvent) []boolSample {
	out := make([]boolSample, 0, len(timeline))
	for _, e := range timeline {
		out = append(out, boolSample{timestamp: e.Timestamp, on: e.CameraOn})
	}
	return out
}

// personSamples 提取单人的在场状态流
func personSamples(samples []personSample) []boolSample {
	out := make([]boolSample, 0, len(samples))
	for _, s := range samples {
		out = append(out, boolSample{timestamp: s.timestamp, on: s.present})
	}
	return out
}
