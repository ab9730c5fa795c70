package analysis

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ixugo/goddd/pkg/conc"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
)

// StartCleanupWorker 启动保留期清理协程
// 删除超过保留天数的任务记录，以及没有对应记录的残留音轨与工作目录
func (c Core) StartCleanupWorker(ctx context.Context, days int) {
	if days <= 0 {
		slog.Info("分析结果清理已禁用", "retain_days", days)
		return
	}
	interval := c.conf.CleanupInterval.Duration()
	if interval <= 0 {
		interval = time.Hour
	}
	slog.Info("分析结果清理协程已启动", "retain_days", days, "interval", interval)

	conc.Timer(ctx, time.Minute, interval, func() {
		c.cleanupExpired(ctx, days)
		c.cleanupOrphanDirs(ctx)
	})
}

// cleanupExpired 分批删除过期任务，先清理音轨文件再删除记录
func (c Core) cleanupExpired(ctx context.Context, days int) {
	cutoff := time.Now().AddDate(0, 0, -days)
	batchSize := 100
	totalDeleted := 0

	for {
		var items []*VideoAnalysis
		pager := web.PagerFilter{Page: 1, Size: batchSize}
		_, err := c.store.VideoAnalysis().Find(ctx, &items, &pager,
			orm.Where("created_at < ?", orm.Time{Time: cutoff}),
		)
		if err != nil {
			slog.Error("过期任务查询失败", "err", err)
			return
		}
		if len(items) == 0 {
			break
		}

		deleted := 0
		for _, item := range items {
			c.removeRunFiles(item.ID)
			var out VideoAnalysis
			if err := c.store.VideoAnalysis().Del(ctx, &out, orm.Where("id=?", item.ID)); err != nil {
				slog.Error("过期任务删除失败", "id", item.ID, "err", err)
				continue
			}
			deleted++
		}
		totalDeleted += deleted
		// 整批都删不掉时重查只会拿到同一批记录，留到下个周期再试
		if deleted == 0 || len(items) < batchSize {
			break
		}
	}

	if totalDeleted > 0 {
		slog.Info("过期任务清理完成", "deleted", totalDeleted, "cutoff", cutoff.Format(time.DateTime))
	}
}

// cleanupOrphanDirs 清理没有对应任务记录的运行目录
// 进程崩溃可能留下未删除的临时目录
func (c Core) cleanupOrphanDirs(ctx context.Context) {
	for _, sub := range []string{"runs", "audio"} {
		dir := filepath.Join(c.conf.WorkDir, sub)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			id := e.Name()
			if _, ok := c.running.Load(id); ok {
				continue
			}
			count, err := c.store.VideoAnalysis().Count(ctx, orm.Where("id=?", id))
			if err != nil || count > 0 {
				continue
			}
			path := filepath.Join(dir, id)
			if err := os.RemoveAll(path); err != nil {
				slog.Warn("残留目录删除失败", "dir", path, "err", err)
				continue
			}
			slog.Info("已删除残留目录", "dir", path)
		}
	}
}

// removeRunFiles 删除某任务的音轨与运行目录
func (c Core) removeRunFiles(id string) {
	for _, dir := range []string{
		filepath.Join(c.conf.WorkDir, "audio", id),
		filepath.Join(c.conf.WorkDir, "runs", id),
	} {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("任务文件删除失败", "dir", dir, "err", err)
		}
	}
}
