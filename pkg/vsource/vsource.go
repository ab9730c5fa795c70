package vsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// Provider 视频源提供者，负责把外部引用拉取为本地文件
// 拉取失败是整次分析的致命错误，由调用方决定如何上报
type Provider interface {
	// Fetch 将 ref 指向的视频取到 dstDir 下，返回本地文件路径
	Fetch(ctx context.Context, ref, dstDir string) (string, error)
}

// Config HTTP 拉取配置
type Config struct {
	Timeout    time.Duration
	OnProgress func(current, total int64)
}

// HTTPProvider 通过 HTTP(S) 下载视频源
// 引用以 .m3u8 结尾时走 HLS 播放列表下载
type HTTPProvider struct {
	cfg Config
	cli *http.Client
}

// NewHTTPProvider 创建 HTTP 视频源提供者
func NewHTTPProvider(cfg Config) *HTTPProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &HTTPProvider{
		cfg: cfg,
		cli: &http.Client{Timeout: cfg.Timeout},
	}
}

// Fetch implements [Provider].
func (p *HTTPProvider) Fetch(ctx context.Context, ref, dstDir string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid video reference: %s", ref)
	}
	if strings.HasSuffix(u.Path, ".m3u8") {
		return p.fetchPlaylist(ctx, u, dstDir)
	}
	return p.fetchFile(ctx, ref, dstDir)
}

// fetchFile 下载单个视频文件到 dstDir/source.mp4
func (p *HTTPProvider) fetchFile(ctx context.Context, ref, dstDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := p.cli.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch video: unexpected status code %d", resp.StatusCode)
	}

	dst := filepath.Join(dstDir, "source.mp4")
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create local file: %w", err)
	}
	defer f.Close()

	pr := NewProgressReader(resp.ContentLength, resp.Body, p.cfg.OnProgress)
	defer pr.Close()

	if _, err := io.Copy(f, pr); err != nil {
		return "", fmt.Errorf("download video: %w", err)
	}
	return dst, nil
}

// FileProvider 本地文件视频源，仅校验文件存在
type FileProvider struct{}

// Fetch implements [Provider].
func (FileProvider) Fetch(_ context.Context, ref, _ string) (string, error) {
	ref = strings.TrimPrefix(ref, "file://")
	info, err := os.Stat(ref)
	if err != nil {
		return "", fmt.Errorf("invalid video reference: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("invalid video reference: %s is a directory", ref)
	}
	return ref, nil
}

// Select 根据引用格式选择提供者
func Select(ref string, httpProvider *HTTPProvider) Provider {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return httpProvider
	}
	return FileProvider{}
}

// ProgressReader 包装下载流并周期性上报进度
type ProgressReader struct {
	Total   int64
	Current atomic.Int64
	io.Reader
	OnProgress func(current, total int64)
	quit       chan struct{}
}

func NewProgressReader(total int64, reader io.Reader, onProgress func(current, total int64)) *ProgressReader {
	p := ProgressReader{
		Total:      total,
		Reader:     reader,
		OnProgress: onProgress,
		quit:       make(chan struct{}, 1),
	}
	if onProgress != nil {
		go p.start()
	}
	return &p
}

func (p *ProgressReader) Close() {
	close(p.quit)
}

func (p *ProgressReader) start() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.OnProgress(p.Current.Load(), p.Total)
		case <-p.quit:
			p.OnProgress(p.Current.Load(), p.Total)
			return
		}
	}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.Reader.Read(b)
	p.Current.Add(int64(n))
	return n, err
}
