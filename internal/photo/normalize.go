package photo

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"time"

	_ "image/gif"
	_ "image/png"

	"cv-platform/internal/apperr"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// 照片输出规格。
const (
	Size        = 200
	JPEGQuality = 85
	ContentType = "image/jpeg"
	// MaxPixels 限制解码前声明的像素总数，避免小文件声明超大画布。
	MaxPixels = 50_000_000
)

// Normalize 解码图片，居中裁剪为正方形并缩放到 Size×Size，输出 JPEG。
func Normalize(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, apperr.Validation("read image: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, apperr.Validation("decode image: %v", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, apperr.Validation("image is empty")
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, apperr.Validation("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperr.Validation("decode image: %v", err)
	}

	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	if side == 0 {
		return nil, apperr.Validation("image is empty")
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	src := image.Rect(x0, y0, x0+side, y0+side)

	// JPEG 没有透明通道，先铺白底。
	dst := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

// ObjectKey 生成照片对象名，随机后缀保证同一秒内的多次上传互不覆盖。
func ObjectKey(userID uint, now time.Time) string {
	return fmt.Sprintf("user_%d_%d_%s.jpg", userID, now.Unix(), uuid.NewString())
}
