package analysis

import (
	"github.com/ixugo/goddd/pkg/web"
)

type AddAnalysisInput struct {
	SessionID string `json:"session_id"`
	VideoURL  string `json:"video_url" binding:"required"`
}

type FindAnalysisInput struct {
	web.PagerFilter
	web.DateFilter
	SessionID string `form:"session_id"`
	Status    string `form:"status"`
}
