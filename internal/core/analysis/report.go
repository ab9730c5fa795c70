package analysis

// 报告中的字段名是下游消费方的稳定契约，改名会破坏外部格式化器

// BBox 帧内像素坐标的人脸框
type BBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// PersonObservation 单个时间点上某人的观测
type PersonObservation struct {
	PersonID int   `json:"person_id"`
	Present  bool  `json:"present"`
	Static   bool  `json:"is_static"`
	Box      *BBox `json:"bbox,omitempty"`
}

// TimelineEvent 单个采样时间点的整体观测
// Persons 覆盖本次运行中出现过的所有人，按 person_id 升序
type TimelineEvent struct {
	Timestamp   float64             `json:"timestamp"`
	CameraOn    bool                `json:"camera_on"`
	FaceCount   int                 `json:"face_count"`
	StaticCount int                 `json:"static_count"`
	Persons     []PersonObservation `json:"persons"`
}

// Period 一段连续的开启或关闭时间
type Period struct {
	// 展示层分组时标记 on / off，原始离屏事件列表中为空
	Type           string  `json:"type,omitempty"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	Duration       float64 `json:"duration"`
	StartFormatted string  `json:"start_formatted"`
	EndFormatted   string  `json:"end_formatted"`
}

// Proof 取证快照记录
type Proof struct {
	Timestamp          float64 `json:"timestamp"`
	TimestampFormatted string  `json:"timestamp_formatted"`
	Status             string  `json:"status"`
	Description        string  `json:"description"`
	FaceCount          int     `json:"face_count"`
	OffDuration        float64 `json:"off_duration,omitempty"`
	ImageBase64        string  `json:"image_base64"`
}

// 取证快照触发类型
const (
	ProofOffStart       = "camera_off_start"
	ProofOffContinued   = "camera_off_continued"
	ProofBackOn         = "camera_back_on"
	ProofOnSample       = "camera_on_sample"
	ProofOnVerification = "camera_on_verification"
	ProofPeriodicCheck  = "periodic_check"
)

// PersonStats 单人统计，百分比基于此人自己的观测序列
type PersonStats struct {
	CameraOnPercentage     float64 `json:"camera_on_percentage"`
	CameraStaticPercentage float64 `json:"camera_static_percentage"`
	CameraActivePercentage float64 `json:"camera_active_percentage"`
	SamplesWithFaces       int     `json:"samples_with_faces"`
	SamplesStatic          int     `json:"samples_with_static_images"`
	SamplesActive          int     `json:"samples_with_active_camera"`
	TotalSamples           int     `json:"total_samples"`
	CameraOnOverall        bool    `json:"camera_on_overall"`
	// 在场样本中静态占比超过 80% 视为使用静态图像
	UsingStaticImage bool `json:"using_static_image"`
}

// VideoInfo 视频元信息
type VideoInfo struct {
	DurationSeconds float64 `json:"duration_seconds"`
	FPS             float64 `json:"fps"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FrameCount      int     `json:"frame_count"`
	AnalyzedAt      string  `json:"analysis_timestamp"`
}

// Summary 整体摘要
type Summary struct {
	CameraOnOverall         bool    `json:"camera_on"`
	CameraOnPercentage      float64 `json:"camera_on_percentage"`
	TotalSamples            int     `json:"total_samples_analyzed"`
	SamplesWithFaces        int     `json:"samples_with_faces"`
	SamplesWithLiveFaces    int     `json:"samples_with_live_faces"`
	PersonCount             int     `json:"person_count"`
	SamplingIntervalSeconds float64 `json:"sampling_interval_seconds"`
	SignificantOffPeriods   int     `json:"significant_off_periods"`
	TotalOffDuration        float64 `json:"total_off_duration"`
	PersonsWithStaticImages int     `json:"persons_with_static_images"`
}

// SelectedFrame 供下游视觉分析挑选的最佳帧
type SelectedFrame struct {
	Timestamp   float64 `json:"timestamp"`
	FaceCount   int     `json:"face_count"`
	ImageBase64 string  `json:"image_base64"`
}

// Report 完整分析报告，交付给外部协作方的边界对象
type Report struct {
	VideoInfo        VideoInfo           `json:"video_info"`
	Summary          Summary             `json:"summary"`
	Timeline         []TimelineEvent     `json:"camera_timeline"`
	PersonStats      map[int]PersonStats `json:"person_stats"`
	OffPeriods       []Period            `json:"off_periods"`
	PersonOffPeriods map[int][]Period    `json:"person_off_periods"`
	DisplayPeriods   []Period            `json:"display_periods"`
	Proofs           []Proof             `json:"proof_frames"`
	SelectedFrames   []SelectedFrame     `json:"selected_frames"`
	AudioPath        string              `json:"audio_path,omitempty"`
}
