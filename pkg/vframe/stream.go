package vframe

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"

	"github.com/ixugo/goddd/pkg/queue"
)

// uniformStep 判断时间点是否等间隔，等间隔采样可以走单管道流式提取
func uniformStep(timestamps []float64) (float64, bool) {
	if len(timestamps) < 2 {
		return 0, false
	}
	step := timestamps[1] - timestamps[0]
	if step <= 0 {
		return 0, false
	}
	for i := 2; i < len(timestamps); i++ {
		if math.Abs(timestamps[i]-timestamps[i-1]-step) > 1e-9 {
			return 0, false
		}
	}
	return step, true
}

// streamFrames 从单个 ffmpeg 进程按固定帧率读取 rgb24 裸帧
// 等间隔采样时只解码一遍视频，比逐帧 -ss 定位快一个数量级；
// ffmpeg 输出固定大小的帧，按帧大小读满即为一帧
func (e *Extractor) streamFrames(ctx context.Context, path string, meta *Metadata, timestamps []float64, step float64) ([]Frame, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-vf", fmt.Sprintf("fps=1/%g,scale=%d:%d", step, meta.Width, meta.Height),
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, e.cfg.FFmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	// stderr 进环形队列，失败时只带出最后几行
	ffmpegLog := queue.NewCirQueue[string](50)
	go func() {
		scan := bufio.NewScanner(stderr)
		for scan.Scan() {
			ffmpegLog.Push(scan.Text())
		}
	}()

	frameSize := meta.Width * meta.Height * 3
	reader := bufio.NewReaderSize(stdout, frameSize*2)
	frames := make([]Frame, 0, len(timestamps))
	for _, ts := range timestamps {
		buf := make([]byte, frameSize)
		if _, err := io.ReadFull(reader, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			cancel()
			_ = cmd.Wait()
			return nil, fmt.Errorf("read frame: %w: %v", err, ffmpegLog.Range())
		}
		frames = append(frames, Frame{Timestamp: ts, Image: rgbToRGBA(buf, meta.Width, meta.Height)})
	}

	// 帧数够了就终止进程，不等它把视频读完
	cancel()
	_ = cmd.Wait()

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames decoded: %v", ffmpegLog.Range())
	}
	return frames, nil
}

// extractUniform 等间隔采样的流式路径，失败时由调用方回退到逐帧定位
func (e *Extractor) extractUniform(ctx context.Context, path string, meta *Metadata, timestamps []float64) ([]Frame, bool) {
	step, ok := uniformStep(timestamps)
	if !ok {
		return nil, false
	}
	frames, err := e.streamFrames(ctx, path, meta, timestamps, step)
	if err != nil {
		slog.Warn("流式提取失败，回退到逐帧定位", "err", err)
		return nil, false
	}
	slog.Info("流式帧提取完成", "requested", len(timestamps), "extracted", len(frames))
	return frames, true
}
