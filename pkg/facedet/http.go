package facedet

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"
)

const apiDetect = "/api/v1/faces/detect"

// HTTPConfig 推理服务配置
type HTTPConfig struct {
	URL     string // 推理服务地址，如 http://127.0.0.1:9200
	Timeout time.Duration
	Quality int // 上行 JPEG 压缩质量，默认 85
}

// HTTPDetector 通过 HTTP 推理服务检测人脸
type HTTPDetector struct {
	cfg HTTPConfig
	cli *http.Client
}

// NewHTTPDetector 创建 HTTP 检测客户端
func NewHTTPDetector(cfg HTTPConfig) *HTTPDetector {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Quality <= 0 {
		cfg.Quality = 85
	}
	return &HTTPDetector{
		cfg: cfg,
		cli: &http.Client{Timeout: cfg.Timeout},
	}
}

type detectRequest struct {
	ImageBase64 string `json:"image_base64"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

type detectResponse struct {
	Code       int    `json:"code"`
	Msg        string `json:"msg"`
	Detections []struct {
		Box struct {
			X int `json:"x"`
			Y int `json:"y"`
			W int `json:"w"`
			H int `json:"h"`
		} `json:"box"`
		Confidence float64    `json:"confidence"`
		Landmarks  []Landmark `json:"landmarks,omitempty"`
	} `json:"detections"`
}

// Detect implements [Detector].
func (d *HTTPDetector) Detect(ctx context.Context, img *image.RGBA) ([]Detection, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: d.cfg.Quality}); err != nil {
		return nil, fmt.Errorf("facedet: encode frame: %w", err)
	}

	body, err := json.Marshal(detectRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:       img.Rect.Dx(),
		Height:      img.Rect.Dy(),
	})
	if err != nil {
		return nil, fmt.Errorf("facedet: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.URL+apiDetect, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("facedet: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("facedet: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facedet: unexpected status code %d", resp.StatusCode)
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("facedet: decode response: %w", err)
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("facedet: %s", out.Msg)
	}

	dets := make([]Detection, 0, len(out.Detections))
	for _, item := range out.Detections {
		dets = append(dets, Detection{
			Box:        image.Rect(item.Box.X, item.Box.Y, item.Box.X+item.Box.W, item.Box.Y+item.Box.H),
			Confidence: item.Confidence,
			Landmarks:  item.Landmarks,
		})
	}
	return dets, nil
}
