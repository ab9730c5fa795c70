package analysis

import (
	"image"
	"math"
	"sort"

	"github.com/sessionwatch/heron/pkg/facedet"
)

// 人脸中心距离小于平均尺寸的 0.8 倍视为同一人
const trackMatchRatio = 0.8

// tracker 跨帧跟踪人物身份
// 采样帧之间相隔数秒，无法依赖连续运动模型，用最近邻贪心匹配
// 状态仅属于单次运行，不可跨任务共享
type tracker struct {
	// 每个人最后出现的人脸框
	lastPositions map[int]image.Rectangle
	nextID        int
}

func newTracker() *tracker {
	return &tracker{
		lastPositions: make(map[int]image.Rectangle),
		nextID:        1,
	}
}

// Assign 为当前帧的检测结果分配人物 ID，返回与 dets 等长的 ID 切片
// 按检测顺序逐个匹配，每匹配一个立即更新其最后位置，
// 因此同帧内后续人脸不会再抢占已更新的位置
func (t *tracker) Assign(dets []facedet.Detection) []int {
	ids := make([]int, len(dets))
	if len(dets) == 0 {
		return ids
	}

	// 固定遍历顺序保证结果可复现
	known := make([]int, 0, len(t.lastPositions))
	for id := range t.lastPositions {
		known = append(known, id)
	}
	sort.Ints(known)

	for i, det := range dets {
		cx, cy := det.Center()
		matched := 0
		minDist := math.Inf(1)

		for _, id := range known {
			last := t.lastPositions[id]
			lx := float64(last.Min.X) + float64(last.Dx())/2
			ly := float64(last.Min.Y) + float64(last.Dy())/2
			dist := math.Hypot(cx-lx, cy-ly)

			avgSize := float64(det.Box.Dx()+det.Box.Dy()+last.Dx()+last.Dy()) / 4
			if dist < avgSize*trackMatchRatio && dist < minDist {
				minDist = dist
				matched = id
			}
		}

		if matched == 0 {
			matched = t.nextID
			t.nextID++
			known = append(known, matched)
		}
		ids[i] = matched
		t.lastPositions[matched] = det.Box
	}
	return ids
}

// Seen 返回出现过的所有人物 ID，升序
func (t *tracker) Seen() []int {
	ids := make([]int, 0, len(t.lastPositions))
	for id := range t.lastPositions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
