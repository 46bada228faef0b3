package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/gonum/stat"
)

// ErrSizeMismatch is returned when two images that must align differ in size.
var ErrSizeMismatch = errors.New("image sizes differ")

// ModelName returns a short name for the color model of img.
func ModelName(img image.Image) string {
	switch img.ColorModel() {
	case color.GrayModel:
		return "gray"
	case color.Gray16Model:
		return "gray16"
	case color.RGBAModel:
		return "rgba"
	case color.RGBA64Model:
		return "rgba64"
	case color.NRGBAModel:
		return "nrgba"
	case color.NRGBA64Model:
		return "nrgba64"
	case color.YCbCrModel:
		return "ycbcr"
	case color.CMYKModel:
		return "cmyk"
	case color.AlphaModel, color.Alpha16Model:
		return "alpha"
	}
	if _, ok := img.ColorModel().(color.Palette); ok {
		return "paletted"
	}
	return "unknown"
}

// Grayscale converts img to 8-bit luma (ITU-R 601: 0.299 R + 0.587 G + 0.114 B).
// An *image.Gray is returned as is.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
		}
	}
	return out
}

// Difference returns the per-pixel absolute difference |a - b|.
func Difference(a, b *image.Gray) (*image.Gray, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}

	out := image.NewGray(image.Rect(0, 0, ab.Dx(), ab.Dy()))
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			va := int(a.GrayAt(ab.Min.X+x, ab.Min.Y+y).Y)
			vb := int(b.GrayAt(bb.Min.X+x, bb.Min.Y+y).Y)
			d := va - vb
			if d < 0 {
				d = -d
			}
			out.SetGray(x, y, color.Gray{Y: uint8(d)})
		}
	}
	return out, nil
}

// AutoContrast stretches the histogram of img to the full 0..255 range.
// cutoff is the percentage of pixels ignored at each end of the histogram
// (0 uses the darkest and lightest pixel). Images with a single remaining
// gray level are returned unchanged.
func AutoContrast(img *image.Gray, cutoff float64) *image.Gray {
	lo, hi, ok := histogramBounds(img, cutoff)
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	black, white := int(lo), int(hi)
	stretch := ok && white > black
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := img.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			if stretch {
				v = stretchLevel(int(v), black, white)
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}

// histogramBounds returns the gray levels at the cutoff and 100-cutoff percentiles.
func histogramBounds(img *image.Gray, cutoff float64) (lo, hi float64, ok bool) {
	var hist [256]float64
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[img.GrayAt(x, y).Y]++
		}
	}

	levels := make([]float64, 0, 256)
	weights := make([]float64, 0, 256)
	for level, count := range hist {
		if count > 0 {
			levels = append(levels, float64(level))
			weights = append(weights, count)
		}
	}
	if len(levels) == 0 {
		return 0, 0, false
	}

	p := cutoff / 100
	if p < 0 {
		p = 0
	}
	if p > 0.5 {
		p = 0.5
	}
	lo = stat.Quantile(p, stat.Empirical, levels, weights)
	hi = stat.Quantile(1-p, stat.Empirical, levels, weights)
	return lo, hi, true
}

// stretchLevel maps black..white onto 0..255 with integer rounding down, so
// white always lands on 255.
func stretchLevel(v, black, white int) uint8 {
	switch {
	case v <= black:
		return 0
	case v >= white:
		return 255
	}
	return uint8((v - black) * 255 / (white - black))
}
