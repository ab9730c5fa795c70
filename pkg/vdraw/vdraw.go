// Package vdraw 渲染取证快照：原始帧叠加时间戳、状态与人脸标注后编码为 JPEG
package vdraw

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// 人脸框配色，按检出顺序循环使用
var palette = []color.RGBA{
	{0, 200, 0, 255},   // 绿
	{0, 120, 255, 255}, // 蓝
	{220, 0, 0, 255},   // 红
	{0, 200, 200, 255}, // 青
	{200, 0, 200, 255}, // 品红
	{220, 200, 0, 255}, // 黄
}

var (
	statusOn  = color.RGBA{0, 200, 0, 255}
	statusOff = color.RGBA{220, 0, 0, 255}
	white     = color.RGBA{255, 255, 255, 255}
)

// FaceMark 单个人脸标注
type FaceMark struct {
	Box      image.Rectangle
	PersonID int
	Static   bool // 静态图像嫌疑，叠加斜线网纹
}

// Annotation 取证快照渲染参数
type Annotation struct {
	Timestamp  float64 // 视频内时间（秒）
	StatusText string  // 如 "CAMERA OFF - START"
	CameraOn   bool
	Faces      []FaceMark
	Quality    int // JPEG 质量，默认 85
}

// FormatTimestamp 将秒格式化为 MM:SS
func FormatTimestamp(ts float64) string {
	return fmt.Sprintf("%02d:%02d", int(ts)/60, int(ts)%60)
}

// Render 在帧副本上绘制标注并返回 base64 编码的 JPEG
// 原始帧不被修改
func Render(frame *image.RGBA, a Annotation) (string, error) {
	if a.Quality <= 0 {
		a.Quality = 85
	}
	w := frame.Bounds().Dx()
	h := frame.Bounds().Dy()
	if w == 0 || h == 0 {
		return "", fmt.Errorf("vdraw: empty frame")
	}

	dc := gg.NewContext(w, h)
	dc.DrawImage(frame, 0, 0)
	dc.SetFontFace(basicfont.Face7x13)

	statusColor := statusOff
	if a.CameraOn {
		statusColor = statusOn
	}

	// 半透明信息面板
	panelH := 80.0
	if len(a.Faces) > 0 {
		panelH = 96
	}
	dc.SetRGBA(0, 0, 0, 0.7)
	dc.DrawRectangle(10, 10, 360, panelH)
	dc.Fill()

	dc.SetColor(white)
	dc.DrawString("Time: "+FormatTimestamp(a.Timestamp), 20, 32)
	dc.SetColor(statusColor)
	dc.DrawString("Status: "+a.StatusText, 20, 54)
	dc.SetColor(white)
	if len(a.Faces) > 0 {
		dc.DrawString(fmt.Sprintf("Faces detected: %d", len(a.Faces)), 20, 76)
	} else {
		dc.DrawString("No faces detected", 20, 76)
	}

	for i, face := range a.Faces {
		c := palette[i%len(palette)]
		drawFace(dc, face, c)
	}

	// 状态色描边，便于缩略图快速识别
	dc.SetColor(statusColor)
	dc.SetLineWidth(3)
	dc.DrawRectangle(3, 3, float64(w-6), float64(h-6))
	dc.Stroke()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: a.Quality}); err != nil {
		return "", fmt.Errorf("vdraw: encode jpeg: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// drawFace 绘制单个人脸框与编号，静态嫌疑叠加网纹
func drawFace(dc *gg.Context, face FaceMark, c color.RGBA) {
	x := float64(face.Box.Min.X)
	y := float64(face.Box.Min.Y)
	fw := float64(face.Box.Dx())
	fh := float64(face.Box.Dy())

	dc.SetColor(c)
	dc.SetLineWidth(2)
	dc.DrawRectangle(x, y, fw, fh)
	dc.Stroke()

	label := fmt.Sprintf("PERSON %d", face.PersonID)
	if face.Static {
		label += " [STATIC]"
		dc.SetLineWidth(1)
		for off := 0.0; off < fw; off += 10 {
			dc.DrawLine(x+off, y, min(x+off+10, x+fw), y+10)
		}
		for off := 0.0; off < fh; off += 10 {
			dc.DrawLine(x, y+off, x+10, min(y+off+10, y+fh))
		}
		dc.Stroke()
	}

	ty := y - 6
	if ty < 12 {
		ty = y + 14
	}
	dc.DrawString(label, x, ty)
}
