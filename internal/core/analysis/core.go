// Package analysis 视频在场与完整性分析领域
// 负责咨询会话录像的抽帧、人物跟踪、静态图像识别、时段分割与取证快照
package analysis

import (
	"context"
	"errors"

	"github.com/ixugo/goddd/pkg/conc"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/sessionwatch/heron/internal/conf"
	"github.com/sessionwatch/heron/pkg/facedet"
	"github.com/sessionwatch/heron/pkg/vsource"
	"gorm.io/gorm"
)

// 只有这两类错误会穿透到任务结果，单帧错误全部就地吸收
var (
	// ErrSourceFetch 视频获取失败，整次运行作废
	ErrSourceFetch = errors.New("视频获取失败")
	// ErrAggregation 没有足够数据产出报告
	ErrAggregation = errors.New("分析结果聚合失败")
)

// Storer data persistence
type Storer interface {
	VideoAnalysis() VideoAnalysisStorer
}

// VideoAnalysisStorer Instantiation interface
type VideoAnalysisStorer interface {
	Find(context.Context, *[]*VideoAnalysis, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *VideoAnalysis, ...orm.QueryOption) error
	Add(context.Context, *VideoAnalysis) error
	Edit(context.Context, *VideoAnalysis, func(*VideoAnalysis), ...orm.QueryOption) error
	Del(context.Context, *VideoAnalysis, ...orm.QueryOption) error
	Count(context.Context, ...orm.QueryOption) (int64, error)

	Session(context.Context, ...func(*gorm.DB) error) error
}

// Core business domain
type Core struct {
	store    Storer
	detector facedet.Detector
	http     *vsource.HTTPProvider
	conf     *conf.Analysis

	// 进行中的任务，防止同一条记录被并发重复分析
	running *conc.Map[string, struct{}]
}

type Option func(*Core)

// WithDetector 注入人脸检测实现
func WithDetector(d facedet.Detector) Option {
	return func(c *Core) {
		c.detector = d
	}
}

// WithSource 注入视频下载器
func WithSource(p *vsource.HTTPProvider) Option {
	return func(c *Core) {
		c.http = p
	}
}

// WithConfig 注入分析参数
func WithConfig(cfg *conf.Analysis) Option {
	return func(c *Core) {
		c.conf = cfg
	}
}

// NewCore create business domain
func NewCore(store Storer, opts ...Option) Core {
	c := Core{
		store:   store,
		running: conc.NewMap[string, struct{}](),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
