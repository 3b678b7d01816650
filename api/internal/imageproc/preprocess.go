// Package imageproc is the single-use preprocess transform applied before
// recognition: contrast stretch, light sharpen, upscale for small photos.
// Nothing is retained between images.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/color"
	_ "image/png" // worksheet photos arrive as jpeg or png

	xdraw "golang.org/x/image/draw"
)

// minShortSide below which the image is upscaled 2x: engines lose small
// handwriting on low-resolution photos.
const minShortSide = 900

// Preprocess decodes, enhances and re-encodes an image. The input bytes are
// never modified.
func Preprocess(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("preprocess decode: %w", err)
	}

	gray := toGray(img)
	stretched := stretchContrast(gray)
	sharp := sharpen(stretched)

	final := image.Image(sharp)
	b := sharp.Bounds()
	short := b.Dx()
	if b.Dy() < short {
		short = b.Dy()
	}
	if short < minShortSide {
		dst := image.NewGray(image.Rect(0, 0, b.Dx()*2, b.Dy()*2))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), sharp, b, xdraw.Src, nil)
		final = dst
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, final, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("preprocess encode: %w", err)
	}
	return out.Bytes(), nil
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

// stretchContrast maps the observed min..max luminance onto the full range.
func stretchContrast(src *image.Gray) *image.Gray {
	lo, hi := uint8(255), uint8(0)
	for _, p := range src.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if hi <= lo {
		return src
	}
	span := float64(hi - lo)
	dst := image.NewGray(src.Bounds())
	for i, p := range src.Pix {
		dst.Pix[i] = uint8(float64(p-lo) / span * 255)
	}
	return dst
}

// sharpen applies a mild 3x3 unsharp kernel.
func sharpen(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(b)
	copy(dst.Pix, src.Pix)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := int(src.GrayAt(x, y).Y)
			sum := 5*c -
				int(src.GrayAt(x-1, y).Y) - int(src.GrayAt(x+1, y).Y) -
				int(src.GrayAt(x, y-1).Y) - int(src.GrayAt(x, y+1).Y)
			if sum < 0 {
				sum = 0
			}
			if sum > 255 {
				sum = 255
			}
			dst.SetGray(x, y, color.Gray{Y: uint8(sum)})
		}
	}
	return dst
}
