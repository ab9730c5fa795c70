package analysis

import (
	"github.com/ixugo/goddd/pkg/orm"
)

// 任务状态流转 pending -> processing -> completed / failed
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// VideoAnalysis 一次视频完整性分析任务
type VideoAnalysis struct {
	ID        string `gorm:"primaryKey" json:"id"`
	SessionID string `gorm:"column:session_id;index" json:"session_id"`
	VideoURL  string `gorm:"column:video_url" json:"video_url"`
	Status    string `gorm:"column:status;index" json:"status"`
	// 失败原因，成功时为空
	Error string `gorm:"column:error" json:"error,omitempty"`
	// 完整分析报告，JSON 序列化存储
	Report *Report `gorm:"column:report;serializer:json" json:"report,omitempty"`

	// 冗余摘要列，便于列表页查询时不反序列化整份报告
	CameraOn     bool      `gorm:"column:camera_on" json:"camera_on"`
	PersonCount  int       `gorm:"column:person_count" json:"person_count"`
	OffPeriods   int       `gorm:"column:off_periods" json:"off_periods"`
	OffDurationS float64   `gorm:"column:off_duration_s" json:"off_duration_s"`
	DurationS    float64   `gorm:"column:duration_s" json:"duration_s"`
	StartedAt    *orm.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt   *orm.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt    orm.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    orm.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (*VideoAnalysis) TableName() string {
	return "video_analysis"
}
