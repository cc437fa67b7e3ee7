package ocr

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Preprocessing constants. The chain is grayscale, contrast
// normalization, sharpening, then a fixed binary threshold, which is what
// most recognition backends want for printed card text.
const (
	binarizeThreshold = 128

	// Images wider/taller than this are downscaled first; recognition
	// gains nothing from more pixels and the kernel passes get expensive.
	maxPreprocessDimension = 2048
)

// Preprocess prepares a document image for text recognition. The
// intermediate planes are discarded by the caller after recognition.
func Preprocess(img image.Image) *image.Gray {
	img = downscale(img)

	gray := toGray(img)
	normalizeContrast(gray)
	gray = sharpen(gray)
	binarize(gray)
	return gray
}

// downscale caps the larger dimension at maxPreprocessDimension,
// preserving aspect ratio.
func downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxPreprocessDimension && h <= maxPreprocessDimension {
		return img
	}

	scale := float64(maxPreprocessDimension) / float64(w)
	if h > w {
		scale = float64(maxPreprocessDimension) / float64(h)
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			lum := (299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000
			gray.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: uint8(lum)})
		}
	}
	return gray
}

// normalizeContrast stretches the histogram to the full 0-255 range
func normalizeContrast(gray *image.Gray) {
	min, max := uint8(255), uint8(0)
	for _, p := range gray.Pix {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	if max <= min {
		return
	}

	span := float64(max - min)
	for i, p := range gray.Pix {
		gray.Pix[i] = uint8(float64(p-min) / span * 255)
	}
}

// sharpen applies a standard 3x3 sharpening kernel (center 5, cross -1)
func sharpen(gray *image.Gray) *image.Gray {
	w := gray.Rect.Dx()
	h := gray.Rect.Dy()
	out := image.NewGray(gray.Rect)
	copy(out.Pix, gray.Pix)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			v := 5*int(gray.Pix[y*gray.Stride+x]) -
				int(gray.Pix[(y-1)*gray.Stride+x]) -
				int(gray.Pix[(y+1)*gray.Stride+x]) -
				int(gray.Pix[y*gray.Stride+x-1]) -
				int(gray.Pix[y*gray.Stride+x+1])
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			out.Pix[y*out.Stride+x] = uint8(v)
		}
	}
	return out
}

// binarize applies the fixed threshold in place
func binarize(gray *image.Gray) {
	for i, p := range gray.Pix {
		if p >= binarizeThreshold {
			gray.Pix[i] = 255
		} else {
			gray.Pix[i] = 0
		}
	}
}
