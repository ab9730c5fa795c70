package analysis

import (
	"image"
	"math"

	"github.com/sessionwatch/heron/pkg/facedet"
	"github.com/sessionwatch/heron/pkg/ssim"
)

const (
	// 滚动历史长度上限
	livenessHistorySize = 5
	// 判定所需的最少历史观测数，不足时一律视为活体
	livenessMinHistory = 3
)

// 关键面部点位：眼、嘴角、鼻、脸颊
// 活人即使静坐这些点也会有微小位移
var keyLandmarkIndices = []int{
	61, 146, 91, 181, 84, 17, 314, 405,
	0, 267,
	13, 14, 33, 133, 362, 386,
}

// livenessChecker 判断人脸是否为静态图像（照片或循环片段）
// 双信号：人脸区域 SSIM 过高，以及关键点位移过小
// 状态仅属于单次运行
type livenessChecker struct {
	simThreshold  float64
	moveThreshold float64

	crops     map[int][]*image.Gray
	landmarks map[int][][]facedet.Landmark
	// 各人最近一次的判定结果
	status map[int]bool
}

// isStatic 返回某人最近一次的静态判定
func (l *livenessChecker) isStatic(personID int) bool {
	return l.status[personID]
}

func newLivenessChecker(simThreshold, moveThreshold float64) *livenessChecker {
	return &livenessChecker{
		simThreshold:  simThreshold,
		moveThreshold: moveThreshold,
		crops:         make(map[int][]*image.Gray),
		landmarks:     make(map[int][][]facedet.Landmark),
		status:        make(map[int]bool),
	}
}

// Observe 记录一次人脸观测并返回是否判定为静态
// crop 为 nil 时只记录关键点
func (l *livenessChecker) Observe(personID int, crop *image.RGBA, lms []facedet.Landmark) bool {
	static := l.observe(personID, crop, lms)
	l.status[personID] = static
	return static
}

func (l *livenessChecker) observe(personID int, crop *image.RGBA, lms []facedet.Landmark) bool {
	if len(lms) > 0 {
		l.landmarks[personID] = appendCapped(l.landmarks[personID], lms)
	}
	if crop == nil {
		return false
	}
	gray := ssim.Gray(crop)
	l.crops[personID] = appendCapped(l.crops[personID], gray)

	history := l.crops[personID]
	if len(history) < livenessMinHistory {
		return false
	}

	// 信号一：当前裁剪与最近 3 份历史全部高度相似
	recent := history[len(history)-3:]
	simStatic := true
	for _, prev := range recent {
		if ssim.Compare(gray, prev) <= l.simThreshold {
			simStatic = false
			break
		}
	}

	// 有关键点历史时必须双信号同时成立，否则仅凭 SSIM
	lmHistory, ok := l.landmarks[personID]
	if !ok {
		return simStatic
	}

	lmStatic := false
	if len(lmHistory) >= livenessMinHistory {
		lmStatic = true
		for i := 0; i < len(lmHistory)-1; i++ {
			if landmarkMovement(lmHistory[i], lmHistory[i+1]) >= l.moveThreshold {
				lmStatic = false
				break
			}
		}
	}
	return simStatic && lmStatic
}

// landmarkMovement 计算两组关键点的平均三维位移，缺失时返回 1 表示大幅运动
func landmarkMovement(a, b []facedet.Landmark) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 1
	}
	var total float64
	var count int
	for _, idx := range keyLandmarkIndices {
		if idx >= len(a) || idx >= len(b) {
			continue
		}
		dx := a[idx].X - b[idx].X
		dy := a[idx].Y - b[idx].Y
		dz := a[idx].Z - b[idx].Z
		total += math.Sqrt(dx*dx + dy*dy + dz*dz)
		count++
	}
	if count == 0 {
		return 1
	}
	return total / float64(count)
}

func appendCapped[T any](s []T, v T) []T {
	s = append(s, v)
	if len(s) > livenessHistorySize {
		s = s[1:]
	}
	return s
}
