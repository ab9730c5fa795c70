package vsource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/grafov/m3u8"
)

// fetchPlaylist 下载 HLS 录像并合并为单个本地文件
// 咨询平台的录像地址可能是 m3u8 点播列表，逐段下载顺序追加即可得到可解码的 TS 文件
func (p *HTTPProvider) fetchPlaylist(ctx context.Context, u *url.URL, dstDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create playlist request: %w", err)
	}
	resp, err := p.cli.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch playlist: unexpected status code %d", resp.StatusCode)
	}

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil {
		return "", fmt.Errorf("parse playlist: %w", err)
	}
	if listType != m3u8.MEDIA {
		return "", fmt.Errorf("unsupported playlist type: %d", listType)
	}
	media := playlist.(*m3u8.MediaPlaylist)

	dst := filepath.Join(dstDir, "source.ts")
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create local file: %w", err)
	}
	defer f.Close()

	var count int
	for _, seg := range media.Segments {
		if seg == nil {
			continue
		}
		segURL, err := u.Parse(seg.URI)
		if err != nil {
			return "", fmt.Errorf("resolve segment %s: %w", seg.URI, err)
		}
		if err := p.appendSegment(ctx, segURL.String(), f); err != nil {
			return "", err
		}
		count++
	}
	if count == 0 {
		return "", fmt.Errorf("empty playlist: %s", u.String())
	}

	slog.Info("HLS 录像下载完成", "segments", count, "path", dst)
	return dst, nil
}

// appendSegment 下载单个分片并追加写入
func (p *HTTPProvider) appendSegment(ctx context.Context, segURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, segURL, nil)
	if err != nil {
		return fmt.Errorf("create segment request: %w", err)
	}
	resp, err := p.cli.Do(req)
	if err != nil {
		return fmt.Errorf("fetch segment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch segment %s: unexpected status code %d", segURL, resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("write segment: %w", err)
	}
	return nil
}
