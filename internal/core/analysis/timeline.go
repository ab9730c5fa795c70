package analysis

import (
	"context"
	"image"
	"log/slog"

	"github.com/sessionwatch/heron/pkg/vframe"
)

// personSample 单人在某个采样点的观测，供统计与分段使用
type personSample struct {
	timestamp float64
	present   bool
	static    bool
}

// processFrame 处理单帧：检测、跟踪、静态判定并追加时间轴事件
// 滚动历史依赖时间顺序，调用方必须按时间戳升序串行调用
func (r *runner) processFrame(ctx context.Context, f vframe.Frame) {
	dets, err := r.detector.Detect(ctx, f.Image)
	if err != nil {
		// 单帧检测失败按零检测处理，不中断整体分析
		slog.WarnContext(ctx, "人脸检测失败", "timestamp", f.Timestamp, "err", err)
		dets = nil
	}

	ids := r.tracker.Assign(dets)

	present := make(map[int]PersonObservation, len(dets))
	staticCount := 0
	liveCount := 0
	for i, det := range dets {
		id := ids[i]
		crop := cropFace(f.Image, det.Box)
		isStatic := r.liveness.Observe(id, crop, det.Landmarks)
		if isStatic {
			staticCount++
		} else {
			liveCount++
		}
		box := det.Box
		present[id] = PersonObservation{
			PersonID: id,
			Present:  true,
			Static:   isStatic,
			Box:      &BBox{X: box.Min.X, Y: box.Min.Y, W: box.Dx(), H: box.Dy()},
		}
	}

	// 至少一张非静态活体人脸才算摄像头开启
	cameraOn := liveCount > 0

	// 出现过的每个人都记录一条观测，缺席的标记不在场
	persons := make([]PersonObservation, 0, len(r.tracker.Seen()))
	for _, id := range r.tracker.Seen() {
		obs, ok := present[id]
		if !ok {
			obs = PersonObservation{PersonID: id}
		}
		persons = append(persons, obs)
		r.perPerson[id] = append(r.perPerson[id], personSample{
			timestamp: f.Timestamp,
			present:   obs.Present,
			static:    obs.Static,
		})
	}
	r.timeline = append(r.timeline, TimelineEvent{
		Timestamp:   f.Timestamp,
		CameraOn:    cameraOn,
		FaceCount:   len(dets),
		StaticCount: staticCount,
		Persons:     persons,
	})

	if len(dets) > 0 {
		r.samplesWithFaces++
	}
	if cameraOn {
		r.samplesLive++
	}

	r.collectProofs(f, cameraOn, dets, ids)
}

// cropFace 截取人脸区域副本，越界部分裁掉，完全越界返回 nil
func cropFace(img *image.RGBA, box image.Rectangle) *image.RGBA {
	box = box.Intersect(img.Bounds())
	if box.Empty() {
		return nil
	}
	out := image.NewRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	for y := 0; y < box.Dy(); y++ {
		src := img.PixOffset(box.Min.X, box.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+box.Dx()*4], img.Pix[src:src+box.Dx()*4])
	}
	return out
}
