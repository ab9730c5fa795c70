package analysis

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/jinzhu/copier"
)

// FindAnalysis 分页查询任务列表，支持会话 ID、状态与时间范围筛选
func (c Core) FindAnalysis(ctx context.Context, in *FindAnalysisInput) ([]*VideoAnalysis, int64, error) {
	query := orm.NewQuery(4).OrderBy("created_at DESC")

	if in.SessionID != "" {
		query.Where("session_id = ?", in.SessionID)
	}
	if in.Status != "" {
		query.Where("status = ?", in.Status)
	}
	if in.StartMs > 0 && in.EndMs > 0 {
		query.Where("created_at >= ? AND created_at <= ?", in.StartAt(), in.EndAt())
	}

	items := make([]*VideoAnalysis, 0, in.Limit())
	total, err := c.store.VideoAnalysis().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	// 列表页不携带完整报告
	for _, item := range items {
		item.Report = nil
	}
	return items, total, nil
}

// GetAnalysis Query a single object
func (c Core) GetAnalysis(ctx context.Context, id string) (*VideoAnalysis, error) {
	var out VideoAnalysis
	if err := c.store.VideoAnalysis().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// AddAnalysis 登记任务并在后台启动分析，调用方不阻塞
func (c Core) AddAnalysis(ctx context.Context, in *AddAnalysisInput) (*VideoAnalysis, error) {
	var out VideoAnalysis
	if err := copier.Copy(&out, in); err != nil {
		slog.ErrorContext(ctx, "Copy", "err", err)
	}
	out.ID = uuid.NewString()
	out.Status = StatusPending
	out.CreatedAt = orm.Now()
	out.UpdatedAt = orm.Now()
	if err := c.store.VideoAnalysis().Add(ctx, &out); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}

	c.StartAnalysis(out.ID, out.VideoURL)
	return &out, nil
}

// DelAnalysis Delete object
func (c Core) DelAnalysis(ctx context.Context, id string) (*VideoAnalysis, error) {
	var out VideoAnalysis
	if err := c.store.VideoAnalysis().Del(ctx, &out, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// RetryAnalysis 对失败任务重新发起分析
func (c Core) RetryAnalysis(ctx context.Context, id string) (*VideoAnalysis, error) {
	out, err := c.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	if out.Status == StatusProcessing {
		return nil, reason.ErrBadRequest.Withf("任务正在分析中")
	}
	c.StartAnalysis(out.ID, out.VideoURL)
	return out, nil
}

// StartAnalysis 在后台协程执行分析，同一任务不会并发执行
// 运行状态通过数据库记录对外可见
func (c Core) StartAnalysis(id, videoURL string) {
	if _, ok := c.running.Load(id); ok {
		slog.Warn("任务已在分析中，忽略重复请求", "id", id)
		return
	}
	c.running.Store(id, struct{}{})

	go func() {
		defer c.running.Delete(id)
		ctx := context.Background()

		now := orm.Now()
		if err := c.edit(ctx, id, func(v *VideoAnalysis) {
			v.Status = StatusProcessing
			v.Error = ""
			v.StartedAt = &now
		}); err != nil {
			slog.Error("任务状态更新失败", "id", id, "err", err)
			return
		}

		report, err := c.Analyze(ctx, id, videoURL)
		done := orm.Now()
		if err != nil {
			slog.Error("视频分析失败", "id", id, "err", err)
			if editErr := c.edit(ctx, id, func(v *VideoAnalysis) {
				v.Status = StatusFailed
				v.Error = err.Error()
				v.FinishedAt = &done
			}); editErr != nil {
				slog.Error("任务状态更新失败", "id", id, "err", editErr)
			}
			return
		}

		if err := c.edit(ctx, id, func(v *VideoAnalysis) {
			v.Status = StatusCompleted
			v.Report = report
			v.CameraOn = report.Summary.CameraOnOverall
			v.PersonCount = report.Summary.PersonCount
			v.OffPeriods = report.Summary.SignificantOffPeriods
			v.OffDurationS = report.Summary.TotalOffDuration
			v.DurationS = report.VideoInfo.DurationSeconds
			v.FinishedAt = &done
		}); err != nil {
			slog.Error("分析结果写入失败", "id", id, "err", err)
			return
		}
		slog.Info("视频分析完成", "id", id,
			"camera_on", report.Summary.CameraOnOverall,
			"persons", report.Summary.PersonCount,
			"off_periods", report.Summary.SignificantOffPeriods)
	}()
}

func (c Core) edit(ctx context.Context, id string, changeFn func(*VideoAnalysis)) error {
	var out VideoAnalysis
	return c.store.VideoAnalysis().Edit(ctx, &out, func(v *VideoAnalysis) {
		changeFn(v)
		v.UpdatedAt = orm.Now()
	}, orm.Where("id=?", id))
}

// GetReport 读取已完成任务的完整报告
func (c Core) GetReport(ctx context.Context, id string) (*Report, error) {
	out, err := c.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	if out.Status != StatusCompleted || out.Report == nil {
		return nil, reason.ErrBadRequest.Withf("任务尚未完成, status[%s]", out.Status)
	}
	return out.Report, nil
}
