package facedet

import (
	"context"
	"image"
)

// Landmark 归一化的三维面部关键点，索引遵循 Face Mesh 468 点拓扑
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Detection 单个人脸检测结果
// Box 为帧内像素坐标；Landmarks 可选，检测服务不支持时为空
type Detection struct {
	Box        image.Rectangle
	Confidence float64
	Landmarks  []Landmark
}

// Detector 人脸检测能力接口
// 核心分析流程只依赖此接口，具体模型（HTTP 推理服务、本地模型等）可替换，
// 只要各实现的 bbox 几何在帧间可比较即可
type Detector interface {
	Detect(ctx context.Context, img *image.RGBA) ([]Detection, error)
}

// Center 返回 bbox 中心点
func (d Detection) Center() (float64, float64) {
	return float64(d.Box.Min.X) + float64(d.Box.Dx())/2,
		float64(d.Box.Min.Y) + float64(d.Box.Dy())/2
}
