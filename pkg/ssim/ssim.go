// Package ssim 计算灰度图结构相似度，用于人脸区域的帧间对比
package ssim

import (
	"image"
	"math"
)

// 标准 SSIM 稳定常数，按 8bit 动态范围
const (
	c1 = (0.01 * 255) * (0.01 * 255)
	c2 = (0.03 * 255) * (0.03 * 255)
)

// Gray 将 RGBA 图像转为灰度
func Gray(img *image.RGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			r := float64(img.Pix[i])
			g := float64(img.Pix[i+1])
			bl := float64(img.Pix[i+2])
			// ITU-R BT.601 亮度权重
			out.Pix[y*out.Stride+x] = uint8(0.299*r + 0.587*g + 0.114*bl)
		}
	}
	return out
}

// Resize 最近邻缩放灰度图到指定尺寸
func Resize(img *image.Gray, width, height int) *image.Gray {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		sy := y * b.Dy() / height
		for x := 0; x < width; x++ {
			sx := x * b.Dx() / width
			out.Pix[y*out.Stride+x] = img.Pix[sy*img.Stride+sx]
		}
	}
	return out
}

// Compare 计算两张灰度图的全局 SSIM 得分，范围 [-1, 1]，相同图像为 1
// 尺寸不一致时把 b 缩放到 a 的尺寸再比较
func Compare(a, b *image.Gray) float64 {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0
	}
	b = Resize(b, w, h)

	n := float64(w * h)
	var sumA, sumB float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sumA += float64(a.Pix[y*a.Stride+x])
			sumB += float64(b.Pix[y*b.Stride+x])
		}
	}
	muA := sumA / n
	muB := sumB / n

	var varA, varB, cov float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			da := float64(a.Pix[y*a.Stride+x]) - muA
			db := float64(b.Pix[y*b.Stride+x]) - muB
			varA += da * da
			varB += db * db
			cov += da * db
		}
	}
	div := n - 1
	if div < 1 {
		div = 1
	}
	varA /= div
	varB /= div
	cov /= div

	num := (2*muA*muB + c1) * (2*cov + c2)
	den := (muA*muA + muB*muB + c1) * (varA + varB + c2)
	if den == 0 {
		return 0
	}
	score := num / den
	if math.IsNaN(score) {
		return 0
	}
	return score
}

// CompareRGBA 便捷入口，内部完成灰度转换
func CompareRGBA(a, b *image.RGBA) float64 {
	return Compare(Gray(a), Gray(b))
}
