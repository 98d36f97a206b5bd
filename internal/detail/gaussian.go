package detail

import (
	"image"
	"math"
)

// gaussianKernel builds normalized weights for an odd kernel size, with
// sigma derived from the size the same way OpenCV does for sigma=0.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1.0) + 0.8
	half := size / 2
	k := make([]float64, size)
	sum := 0.0
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// gaussianBlur applies a separable Gaussian of the given odd kernel size.
// Borders reflect. The output is a new image with a canonical stride.
func gaussianBlur(src *image.NRGBA, size int) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	k := gaussianKernel(size)
	half := size / 2

	tmp := make([]float64, w*h*4)
	// horizontal pass
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]float64
			for i, wgt := range k {
				sx := reflect(x+i-half, w)
				si := y*src.Stride + sx*4
				for c := 0; c < 4; c++ {
					acc[c] += wgt * float64(src.Pix[si+c])
				}
			}
			ti := (y*w + x) * 4
			for c := 0; c < 4; c++ {
				tmp[ti+c] = acc[c]
			}
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	// vertical pass
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]float64
			for i, wgt := range k {
				sy := reflect(y+i-half, h)
				ti := (sy*w + x) * 4
				for c := 0; c < 4; c++ {
					acc[c] += wgt * tmp[ti+c]
				}
			}
			di := y*dst.Stride + x*4
			for c := 0; c < 4; c++ {
				dst.Pix[di+c] = clampByte(int(acc[c] + 0.5))
			}
		}
	}
	return dst
}

// reflect mirrors an out-of-range coordinate back into [0, n).
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}
