package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/sessionwatch/heron/internal/conf"
	"github.com/sessionwatch/heron/internal/core/analysis"
)

type AnalysisAPI struct {
	core analysis.Core
	conf *conf.Bootstrap
}

func NewAnalysisAPI(core analysis.Core, conf *conf.Bootstrap) AnalysisAPI {
	return AnalysisAPI{core: core, conf: conf}
}

func registerAnalysis(r gin.IRouter, api AnalysisAPI) {
	// 报告与快照接口返回大体积 base64 JSON，压缩收益明显
	g := r.Group("/video_analysis", gzip.Gzip(gzip.DefaultCompression))
	// 分析任务重且占资源，提交接口限流
	g.POST("", web.IPRateLimiterForGin(0.2, 1), web.WrapH(api.addAnalysis))
	g.GET("", web.WrapH(api.findAnalysis))
	g.GET("/:id", web.WrapH(api.getAnalysis))
	g.DELETE("/:id", web.WrapH(api.delAnalysis))
	g.POST("/:id/retry", web.WrapH(api.retryAnalysis))

	g.GET("/:id/report", web.WrapH(api.getReport))
	g.GET("/:id/timeline", web.WrapH(api.getTimeline))
	g.GET("/:id/off_periods", web.WrapH(api.getOffPeriods))
	g.GET("/:id/proofs", web.WrapH(api.getProofs))
}

func (a AnalysisAPI) addAnalysis(c *gin.Context, in *analysis.AddAnalysisInput) (*analysis.VideoAnalysis, error) {
	return a.core.AddAnalysis(c.Request.Context(), in)
}

type findAnalysisOutput struct {
	Items []*analysis.VideoAnalysis `json:"items"`
	Total int64                     `json:"total"`
}

func (a AnalysisAPI) findAnalysis(c *gin.Context, in *analysis.FindAnalysisInput) (*findAnalysisOutput, error) {
	items, total, err := a.core.FindAnalysis(c.Request.Context(), in)
	if err != nil {
		return nil, err
	}
	return &findAnalysisOutput{Items: items, Total: total}, nil
}

func (a AnalysisAPI) getAnalysis(c *gin.Context, _ *struct{}) (*analysis.VideoAnalysis, error) {
	return a.core.GetAnalysis(c.Request.Context(), c.Param("id"))
}

func (a AnalysisAPI) delAnalysis(c *gin.Context, _ *struct{}) (*analysis.VideoAnalysis, error) {
	return a.core.DelAnalysis(c.Request.Context(), c.Param("id"))
}

func (a AnalysisAPI) retryAnalysis(c *gin.Context, _ *struct{}) (*analysis.VideoAnalysis, error) {
	return a.core.RetryAnalysis(c.Request.Context(), c.Param("id"))
}

func (a AnalysisAPI) getReport(c *gin.Context, _ *struct{}) (*analysis.Report, error) {
	return a.core.GetReport(c.Request.Context(), c.Param("id"))
}

type getTimelineOutput struct {
	Items []analysis.TimelineEvent `json:"items"`
	Total int                      `json:"total"`
}

func (a AnalysisAPI) getTimeline(c *gin.Context, _ *struct{}) (*getTimelineOutput, error) {
	report, err := a.core.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	return &getTimelineOutput{Items: report.Timeline, Total: len(report.Timeline)}, nil
}

type getOffPeriodsOutput struct {
	Items          []analysis.Period         `json:"items"`
	PersonPeriods  map[int][]analysis.Period `json:"person_periods"`
	DisplayPeriods []analysis.Period         `json:"display_periods"`
	TotalDuration  float64                   `json:"total_duration"`
}

func (a AnalysisAPI) getOffPeriods(c *gin.Context, _ *struct{}) (*getOffPeriodsOutput, error) {
	report, err := a.core.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	return &getOffPeriodsOutput{
		Items:          report.OffPeriods,
		PersonPeriods:  report.PersonOffPeriods,
		DisplayPeriods: report.DisplayPeriods,
		TotalDuration:  report.Summary.TotalOffDuration,
	}, nil
}

type getProofsOutput struct {
	Items []analysis.Proof `json:"items"`
	Total int              `json:"total"`
}

func (a AnalysisAPI) getProofs(c *gin.Context, _ *struct{}) (*getProofsOutput, error) {
	report, err := a.core.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	return &getProofsOutput{Items: report.Proofs, Total: len(report.Proofs)}, nil
}
