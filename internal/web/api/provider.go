package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/ixugo/goddd/domain/version/versionapi"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/sessionwatch/heron/internal/conf"
	"github.com/sessionwatch/heron/internal/core/analysis"
	"github.com/sessionwatch/heron/internal/core/analysis/store/analysisdb"
	"github.com/sessionwatch/heron/internal/data"
	"github.com/sessionwatch/heron/pkg/facedet"
	"github.com/sessionwatch/heron/pkg/vsource"
	"gorm.io/gorm"
)

var (
	ProviderVersionSet = wire.NewSet(versionapi.NewVersionCore)
	ProviderSet        = wire.NewSet(
		wire.Struct(new(Usecase), "*"),
		NewHTTPHandler,
		versionapi.New,
		NewDetector,
		NewSourceProvider,
		NewAnalysisCore, NewAnalysisAPI,
	)
)

type Usecase struct {
	Conf    *conf.Bootstrap
	DB      *gorm.DB
	Version versionapi.API

	AnalysisAPI AnalysisAPI
}

// NewHTTPHandler 生成Gin框架路由内容
func NewHTTPHandler(uc *Usecase) http.Handler {
	cfg := uc.Conf.Server
	if cfg.HTTP.JwtSecret == "" {
		uc.Conf.Server.HTTP.JwtSecret = orm.GenerateRandomString(32)
	}
	if !uc.Conf.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	g := gin.New()
	g.NoRoute(func(c *gin.Context) {
		c.JSON(404, "来到了无人的荒漠")
	})
	// 如果启用了 Pprof，设置 Pprof 监控
	if cfg.HTTP.PProf.Enabled {
		web.SetupPProf(g, &cfg.HTTP.PProf.AccessIps)
	}

	setupRouter(g, uc)
	uc.Version.RecordVersion()
	return g
}

// NewDetector 人脸检测推理客户端
func NewDetector(bc *conf.Bootstrap) facedet.Detector {
	return facedet.NewHTTPDetector(facedet.HTTPConfig{
		URL:     bc.Detector.URL,
		Timeout: bc.Detector.Timeout.Duration(),
		Quality: bc.Detector.Quality,
	})
}

// NewSourceProvider 视频下载器
func NewSourceProvider() *vsource.HTTPProvider {
	return vsource.NewHTTPProvider(vsource.Config{
		Timeout: 30 * time.Minute,
	})
}

func NewAnalysisCore(db *gorm.DB, bc *conf.Bootstrap, detector facedet.Detector, source *vsource.HTTPProvider) analysis.Core {
	store := analysisdb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate())
	// 建表之后再迁移旧结果表
	if err := data.MigrateLegacyResults(db); err != nil {
		slog.Error("旧数据迁移失败", "err", err)
	}
	return analysis.NewCore(
		store,
		analysis.WithDetector(detector),
		analysis.WithSource(source),
		analysis.WithConfig(&bc.Analysis),
	)
}
