package vdraw

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	cases := map[float64]string{
		0:     "00:00",
		65.7:  "01:05",
		600:   "10:00",
		3599:  "59:59",
		125.2: "02:05",
	}
	for in, want := range cases {
		if got := FormatTimestamp(in); got != want {
			t.Fatalf("FormatTimestamp(%v) = %s, want %s", in, got, want)
		}
	}
}

func TestRenderDecodable(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 640, 480))
	got, err := Render(frame, Annotation{
		Timestamp:  65,
		StatusText: "CAMERA ON",
		CameraOn:   true,
		Faces: []FaceMark{
			{Box: image.Rect(100, 100, 200, 220), PersonID: 1},
			{Box: image.Rect(300, 120, 380, 200), PersonID: 2, Static: true},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	raw, err := base64.StdEncoding.DecodeString(got)
	if err != nil {
		t.Fatal("输出应为合法 base64:", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatal("输出应为可解码的 JPEG:", err)
	}
	if img.Bounds().Dx() != 640 || img.Bounds().Dy() != 480 {
		t.Fatalf("渲染不应改变尺寸, got %v", img.Bounds())
	}
}

func TestRenderNoFaces(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 320, 240))
	got, err := Render(frame, Annotation{Timestamp: 10, StatusText: "CAMERA OFF - START"})
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Fatal("无人脸时也应产出快照")
	}
}

func TestRenderEmptyFrame(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if _, err := Render(frame, Annotation{}); err == nil {
		t.Fatal("空帧应返回错误")
	}
}
