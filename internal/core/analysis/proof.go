package analysis

import (
	"fmt"
	"log/slog"

	"github.com/sessionwatch/heron/pkg/facedet"
	"github.com/sessionwatch/heron/pkg/vdraw"
	"github.com/sessionwatch/heron/pkg/vframe"
)

// 取证快照采集间隔（秒）
const (
	// 持续离屏期间的补充快照间隔
	proofOffContinuedInterval = 10
	// 开启状态的定期样本
	proofOnSampleInterval = 300
	// 开启状态的高频校验
	proofOnVerificationInterval = 30
	// 与开关状态无关的周期巡检
	proofPeriodicInterval = 15
)

// proofState 离屏事件与快照节流的状态
type proofState struct {
	offStart     float64
	inOff        bool
	lastOffProof float64
}

// collectProofs 按触发规则采集当前帧的取证快照
// 必须在每帧时间轴处理后调用，且先于离屏状态更新
func (r *runner) collectProofs(f vframe.Frame, cameraOn bool, dets []facedet.Detection, ids []int) {
	ts := f.Timestamp

	if !cameraOn {
		switch {
		case !r.proofState.inOff:
			// 离屏起点
			r.addProof(f, dets, ids, Proof{
				Timestamp:   ts,
				Status:      ProofOffStart,
				Description: "Camera turned off - start of off period",
			}, "CAMERA OFF - START", false)
			r.proofState.inOff = true
			r.proofState.offStart = ts
			r.proofState.lastOffProof = ts
		case ts-r.proofState.lastOffProof >= proofOffContinuedInterval:
			offDur := ts - r.proofState.offStart
			r.addProof(f, dets, ids, Proof{
				Timestamp:   ts,
				Status:      ProofOffContinued,
				OffDuration: offDur,
				Description: fmt.Sprintf("Camera still off after %.0f seconds", offDur),
			}, fmt.Sprintf("CAMERA OFF - %.0fs", offDur), false)
			r.proofState.lastOffProof = ts
		}
	} else {
		if r.proofState.inOff {
			offDur := ts - r.proofState.offStart
			if offDur >= r.minOffSeconds {
				r.addProof(f, dets, ids, Proof{
					Timestamp:   ts,
					Status:      ProofBackOn,
					OffDuration: offDur,
					Description: fmt.Sprintf("Camera back on after %.0f seconds off", offDur),
				}, fmt.Sprintf("CAMERA BACK ON (was off %.0fs)", offDur), true)
			}
			r.proofState.inOff = false
		} else if int(ts)%proofOnSampleInterval == 0 && ts > 0 {
			r.addProof(f, dets, ids, Proof{
				Timestamp:   ts,
				Status:      ProofOnSample,
				Description: "Periodic sample showing camera is on",
			}, "CAMERA ON - SAMPLE", true)
		} else if int(ts)%proofOnVerificationInterval == 0 && ts > 0 {
			r.addProof(f, dets, ids, Proof{
				Timestamp:   ts,
				Status:      ProofOnVerification,
				Description: "Regular verification that camera is on",
			}, "CAMERA ON - VERIFICATION", true)
		}
	}

	// 周期巡检独立于上面的状态触发
	if int(ts)%proofPeriodicInterval == 0 && ts > 0 {
		state := "off"
		text := "CAMERA OFF"
		if cameraOn {
			state = "on"
			text = "CAMERA ON"
		}
		r.addProof(f, dets, ids, Proof{
			Timestamp:   ts,
			Status:      ProofPeriodicCheck,
			Description: fmt.Sprintf("Periodic check - camera is %s", state),
		}, text, cameraOn)
	}
}

// addProof 渲染并登记一张取证快照，渲染失败仅记录日志
func (r *runner) addProof(f vframe.Frame, dets []facedet.Detection, ids []int, p Proof, statusText string, cameraOn bool) {
	marks := make([]vdraw.FaceMark, 0, len(dets))
	for i, det := range dets {
		marks = append(marks, vdraw.FaceMark{
			Box:      det.Box,
			PersonID: ids[i],
			Static:   r.liveness.isStatic(ids[i]),
		})
	}

	img, err := vdraw.Render(f.Image, vdraw.Annotation{
		Timestamp:  f.Timestamp,
		StatusText: statusText,
		CameraOn:   cameraOn,
		Faces:      marks,
		Quality:    r.proofQuality,
	})
	if err != nil {
		slog.Warn("取证快照渲染失败", "timestamp", f.Timestamp, "err", err)
		return
	}

	p.TimestampFormatted = vdraw.FormatTimestamp(p.Timestamp)
	p.FaceCount = len(dets)
	p.ImageBase64 = img
	r.proofs = append(r.proofs, p)
}
