// Package imaging provides the shared bitmap primitives used by the
// verification analyzers: decoding, grayscale conversion, channel
// statistics, grid partitioning and a Laplacian edge kernel.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
)

// Bitmap is an immutable decoded document image scoped to one request
type Bitmap struct {
	Img    image.Image
	Format string
	Width  int
	Height int

	// Raw holds the original encoded bytes, needed by the
	// double-compression detector.
	Raw []byte
}

// Decode decodes an uploaded document image. A failure here is an input
// error fatal to the whole verification, not a detector failure.
func Decode(data []byte) (*Bitmap, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	return &Bitmap{
		Img:    img,
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Raw:    data,
	}, nil
}

// IsJPEG reports whether the source bytes were JPEG encoded
func (b *Bitmap) IsJPEG() bool {
	return b.Format == "jpeg"
}

// AspectRatio returns width/height
func (b *Bitmap) AspectRatio() float64 {
	if b.Height == 0 {
		return 0
	}
	return float64(b.Width) / float64(b.Height)
}

// Gray is an 8-bit luminance plane
type Gray struct {
	W, H int
	Pix  []uint8
}

// ToGray converts a bitmap to a luminance plane using the Rec. 601 weights
func ToGray(img image.Image) *Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	g := &Gray{W: w, H: h, Pix: make([]uint8, w*h)}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, gr, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA returns 16-bit channels
			lum := (299*float64(r>>8) + 587*float64(gr>>8) + 114*float64(b>>8)) / 1000
			g.Pix[y*w+x] = uint8(lum)
		}
	}
	return g
}

// At returns the luminance at (x, y)
func (g *Gray) At(x, y int) uint8 {
	return g.Pix[y*g.W+x]
}

// Cell extracts the (gx, gy) cell of a gridW x gridH partition as a copy.
// Cells at the right/bottom edge absorb the remainder pixels.
func (g *Gray) Cell(gx, gy, gridW, gridH int) *Gray {
	cellW := g.W / gridW
	cellH := g.H / gridH
	if cellW < 1 || cellH < 1 {
		return nil
	}

	left := gx * cellW
	top := gy * cellH
	w := cellW
	h := cellH
	if left+w > g.W {
		w = g.W - left
	}
	if top+h > g.H {
		h = g.H - top
	}
	if w < 1 || h < 1 {
		return nil
	}

	cell := &Gray{W: w, H: h, Pix: make([]uint8, w*h)}
	for y := 0; y < h; y++ {
		copy(cell.Pix[y*w:(y+1)*w], g.Pix[(top+y)*g.W+left:(top+y)*g.W+left+w])
	}
	return cell
}

// Mean returns the mean luminance of the plane
func (g *Gray) Mean() float64 {
	if len(g.Pix) == 0 {
		return 0
	}
	var sum float64
	for _, p := range g.Pix {
		sum += float64(p)
	}
	return sum / float64(len(g.Pix))
}

// Variance returns the pixel-value variance of the plane
func (g *Gray) Variance() float64 {
	if len(g.Pix) == 0 {
		return 0
	}
	mean := g.Mean()
	var sum float64
	for _, p := range g.Pix {
		d := float64(p) - mean
		sum += d * d
	}
	return sum / float64(len(g.Pix))
}

// FloatPlane holds per-pixel float responses, e.g. from a kernel pass
type FloatPlane struct {
	W, H int
	Pix  []float64
}

// Mean returns the mean response of the plane
func (p *FloatPlane) Mean() float64 {
	return Mean(p.Pix)
}

// CellMean returns the mean response of the (gx, gy) cell of a
// gridW x gridH partition
func (p *FloatPlane) CellMean(gx, gy, gridW, gridH int) (float64, bool) {
	cellW := p.W / gridW
	cellH := p.H / gridH
	if cellW < 1 || cellH < 1 {
		return 0, false
	}

	left := gx * cellW
	top := gy * cellH
	w := cellW
	h := cellH
	if left+w > p.W {
		w = p.W - left
	}
	if top+h > p.H {
		h = p.H - top
	}
	if w < 1 || h < 1 {
		return 0, false
	}

	var sum float64
	for y := top; y < top+h; y++ {
		for x := left; x < left+w; x++ {
			sum += p.Pix[y*p.W+x]
		}
	}
	return sum / float64(w*h), true
}

// laplacian8 is the 8-connected edge kernel: center 8, neighbors -1
var laplacian8 = [3][3]float64{
	{-1, -1, -1},
	{-1, 8, -1},
	{-1, -1, -1},
}

// Laplacian applies the edge kernel and returns the absolute response.
// Border pixels are left at zero. When clamp is true the response is
// capped at 255, matching an 8-bit convolution output.
func Laplacian(g *Gray, clamp bool) *FloatPlane {
	out := &FloatPlane{W: g.W, H: g.H, Pix: make([]float64, g.W*g.H)}

	for y := 1; y < g.H-1; y++ {
		for x := 1; x < g.W-1; x++ {
			var v float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v += laplacian8[ky+1][kx+1] * float64(g.At(x+kx, y+ky))
				}
			}
			v = math.Abs(v)
			if clamp && v > 255 {
				v = 255
			}
			out.Pix[y*g.W+x] = v
		}
	}
	return out
}

// LaplacianVariance is the classic blur metric: variance of the absolute
// Laplacian response over the interior of the plane.
func LaplacianVariance(g *Gray) float64 {
	if g.W < 3 || g.H < 3 {
		return 0
	}
	resp := Laplacian(g, false)

	interior := make([]float64, 0, (g.W-2)*(g.H-2))
	for y := 1; y < g.H-1; y++ {
		for x := 1; x < g.W-1; x++ {
			interior = append(interior, resp.Pix[y*g.W+x])
		}
	}
	return Variance(interior)
}

// ChannelStats returns the per-channel means and standard deviations of
// the R, G and B channels on the 0-255 scale.
func ChannelStats(img image.Image) (means, stddevs [3]float64) {
	bounds := img.Bounds()
	n := float64(bounds.Dx() * bounds.Dy())
	if n == 0 {
		return
	}

	var sum, sumSq [3]float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			ch := [3]float64{float64(r >> 8), float64(g >> 8), float64(b >> 8)}
			for i, v := range ch {
				sum[i] += v
				sumSq[i] += v * v
			}
		}
	}

	for i := 0; i < 3; i++ {
		means[i] = sum[i] / n
		variance := sumSq[i]/n - means[i]*means[i]
		if variance < 0 {
			variance = 0
		}
		stddevs[i] = math.Sqrt(variance)
	}
	return
}

// Mean returns the arithmetic mean of vs, or 0 for an empty slice
func Mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// Variance returns the population variance of vs
func Variance(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	mean := Mean(vs)
	var sum float64
	for _, v := range vs {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(vs))
}

// StdDev returns the population standard deviation of vs
func StdDev(vs []float64) float64 {
	return math.Sqrt(Variance(vs))
}

// CoefficientOfVariation returns stddev/mean, or 0 when the mean is zero
func CoefficientOfVariation(vs []float64) float64 {
	mean := Mean(vs)
	if mean == 0 {
		return 0
	}
	return StdDev(vs) / mean
}
