package data

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/sessionwatch/heron/internal/core/analysis"
	"gorm.io/gorm"
)

// LegacyResult 旧版分析结果模型（用于迁移）
// 早期版本把整份报告塞在一张结果表里，没有任务状态与摘要列
type LegacyResult struct {
	ID        string   `gorm:"primaryKey"`
	SessionID string   `gorm:"column:session_id"`
	VideoURL  string   `gorm:"column:video_url"`
	Result    string   `gorm:"column:result"`
	CreatedAt orm.Time `gorm:"column:created_at"`
}

func (*LegacyResult) TableName() string {
	return "video_analysis_results"
}

// MigrateLegacyResults 迁移旧结果表到 video_analysis 表
// 迁移完成后，旧表数据保留，建议手动确认后删除
func MigrateLegacyResults(db *gorm.DB) error {
	ctx := context.Background()

	if !db.Migrator().HasTable("video_analysis_results") {
		slog.Info("没有需要迁移的旧表数据")
		return nil
	}

	var rows []LegacyResult
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		slog.Error("查询 video_analysis_results 失败", "err", err)
		return err
	}

	migrated := 0
	for _, row := range rows {
		var existing analysis.VideoAnalysis
		if err := db.WithContext(ctx).Where("id = ?", row.ID).First(&existing).Error; err == nil {
			slog.Debug("任务已存在，跳过", "id", row.ID)
			continue
		}

		// 旧表只有成功的结果，统一标记为已完成
		item := analysis.VideoAnalysis{
			ID:        row.ID,
			SessionID: row.SessionID,
			VideoURL:  row.VideoURL,
			Status:    analysis.StatusCompleted,
			CreatedAt: row.CreatedAt,
			UpdatedAt: orm.Now(),
		}
		var report analysis.Report
		if err := json.Unmarshal([]byte(row.Result), &report); err == nil {
			item.Report = &report
			item.CameraOn = report.Summary.CameraOnOverall
			item.PersonCount = report.Summary.PersonCount
			item.OffPeriods = report.Summary.SignificantOffPeriods
			item.OffDurationS = report.Summary.TotalOffDuration
			item.DurationS = report.VideoInfo.DurationSeconds
		}
		if err := db.WithContext(ctx).Create(&item).Error; err != nil {
			slog.Error("迁移分析结果失败", "err", err, "id", row.ID)
			continue
		}
		migrated++
	}
	slog.Info("旧数据迁移完成", "total", len(rows), "migrated", migrated)
	return nil
}
