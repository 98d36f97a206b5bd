package rembg

import (
	"image"
	"testing"
)

// frame paints the border bright (background) and the center dark (subject).
func frame(w, h int, border, center uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*img.Stride + x*4
			v := border
			if x >= w/4 && x < 3*w/4 && y >= h/4 && y < 3*h/4 {
				v = center
			}
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
		}
	}
	return img
}

func TestRemoveKeysBrightBackground(t *testing.T) {
	img := frame(20, 20, 250, 40)
	out, err := Default().Remove(img)
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if a := out.Pix[3]; a != 0 {
		t.Errorf("bright corner pixel alpha = %d, want 0", a)
	}
	ci := 10*out.Stride + 10*4
	if a := out.Pix[ci+3]; a != 255 {
		t.Errorf("dark center pixel alpha = %d, want 255", a)
	}
}

func TestRemoveProtectsCenter(t *testing.T) {
	// Bright everywhere: only the protected center must survive.
	img := frame(20, 20, 250, 250)
	out, err := Default().Remove(img)
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	ci := 10*out.Stride + 10*4
	if a := out.Pix[ci+3]; a != 255 {
		t.Errorf("protected center pixel alpha = %d, want 255", a)
	}
	if a := out.Pix[3]; a != 0 {
		t.Errorf("unprotected corner pixel alpha = %d, want 0", a)
	}
}

func TestRemoveFeathersTransitionBand(t *testing.T) {
	r := &FeatheredLuminance{Lower: 100, Upper: 200, CenterProtect: 0}
	img := frame(8, 8, 150, 150) // mid-band everywhere
	out, err := r.Remove(img)
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	a := out.Pix[3]
	if a == 0 || a == 255 {
		t.Errorf("mid-band pixel alpha = %d, want a feathered value", a)
	}
}

func TestRemoveDoesNotMutateInput(t *testing.T) {
	img := frame(12, 12, 250, 40)
	before := append([]uint8(nil), img.Pix...)
	if _, err := Default().Remove(img); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	for i := range before {
		if img.Pix[i] != before[i] {
			t.Fatal("Remove() mutated its input")
		}
	}
}

func TestRemoveValidatesConfig(t *testing.T) {
	bad := &FeatheredLuminance{Lower: 200, Upper: 100}
	if _, err := bad.Remove(frame(4, 4, 0, 0)); err == nil {
		t.Error("Remove() accepted inverted thresholds")
	}
	bad = &FeatheredLuminance{Lower: 10, Upper: 20, CenterProtect: 1.5}
	if _, err := bad.Remove(frame(4, 4, 0, 0)); err == nil {
		t.Error("Remove() accepted an out-of-range protection ratio")
	}
}
