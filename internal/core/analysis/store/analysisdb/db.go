// Package analysisdb 视频分析任务的 gorm 持久化实现
package analysisdb

import (
	"context"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/sessionwatch/heron/internal/core/analysis"
	"gorm.io/gorm"
)

var _ analysis.Storer = DB{}

type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) DB {
	return DB{db: db}
}

// AutoMigrate 按需建表
func (d DB) AutoMigrate(ok bool) DB {
	if ok {
		if err := d.db.AutoMigrate(&analysis.VideoAnalysis{}); err != nil {
			panic(err)
		}
	}
	return d
}

// VideoAnalysis implements analysis.Storer.
func (d DB) VideoAnalysis() analysis.VideoAnalysisStorer {
	return VideoAnalysis{db: d.db}
}

var _ analysis.VideoAnalysisStorer = VideoAnalysis{}

type VideoAnalysis struct {
	db *gorm.DB
}

func (v VideoAnalysis) apply(ctx context.Context, opts []orm.QueryOption) *gorm.DB {
	db := v.db.WithContext(ctx).Model(&analysis.VideoAnalysis{})
	for _, opt := range opts {
		db = opt(db)
	}
	return db
}

// Find implements analysis.VideoAnalysisStorer.
func (v VideoAnalysis) Find(ctx context.Context, items *[]*analysis.VideoAnalysis, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := v.apply(ctx, opts)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	if err := db.Offset(pager.Offset()).Limit(pager.Limit()).Find(items).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Get implements analysis.VideoAnalysisStorer.
func (v VideoAnalysis) Get(ctx context.Context, item *analysis.VideoAnalysis, opts ...orm.QueryOption) error {
	return v.apply(ctx, opts).First(item).Error
}

// Add implements analysis.VideoAnalysisStorer.
func (v VideoAnalysis) Add(ctx context.Context, item *analysis.VideoAnalysis) error {
	return v.db.WithContext(ctx).Create(item).Error
}

// Edit implements analysis.VideoAnalysisStorer.
func (v VideoAnalysis) Edit(ctx context.Context, item *analysis.VideoAnalysis, changeFn func(*analysis.VideoAnalysis), opts ...orm.QueryOption) error {
	return v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		db := tx.Model(&analysis.VideoAnalysis{})
		for _, opt := range opts {
			db = opt(db)
		}
		if err := db.First(item).Error; err != nil {
			return err
		}
		changeFn(item)
		return tx.Save(item).Error
	})
}

// Del implements analysis.VideoAnalysisStorer.
func (v VideoAnalysis) Del(ctx context.Context, item *analysis.VideoAnalysis, opts ...orm.QueryOption) error {
	db := v.apply(ctx, opts)
	if err := db.First(item).Error; err != nil {
		return err
	}
	return v.db.WithContext(ctx).Delete(item).Error
}

// Count implements analysis.VideoAnalysisStorer.
func (v VideoAnalysis) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	var total int64
	err := v.apply(ctx, opts).Count(&total).Error
	return total, err
}

// Session implements analysis.VideoAnalysisStorer.
func (v VideoAnalysis) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
