package backend

import (
	"errors"
	"image"
	"testing"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/args"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/detail"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/host"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/imgutil"
)

func solidImage(w, h int, v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	return img
}

func rawArgs(enabled bool, fg *image.NRGBA) []any {
	return []any{
		enabled,
		"FC",
		imgOrNil(fg),
		nil,
		string(args.BGSourceFCLeft),
		string(args.BGSourceFBCUpload),
		true,
		false,
		false,
		false,
		5,
	}
}

func imgOrNil(img *image.NRGBA) any {
	if img == nil {
		return nil
	}
	return img
}

func TestSelect(t *testing.T) {
	if got := Select(host.Capabilities{PerSamplingPassHook: true}); !got.SupportsMultiPass() {
		t.Errorf("Select(per-pass capable) = %s, want the multi-pass strategy", got.Name())
	}
	if got := Select(host.Capabilities{}); got.SupportsMultiPass() {
		t.Errorf("Select(basic host) = %s, want the pre-sampling strategy", got.Name())
	}
}

func TestBeforeProcessDisabledNoOp(t *testing.T) {
	rc := host.NewRunContext(host.Txt2Img, 32, 32)
	rc.RawArgs = rawArgs(false, solidImage(8, 8, 100))
	init := rc.InitImage

	sess := NewDispatcher(Select(host.Capabilities{})).NewSession()
	if err := sess.BeforeProcess(rc); err != nil {
		t.Fatalf("BeforeProcess() error = %v", err)
	}
	if sess.Enabled() {
		t.Error("session enabled for a disabled request")
	}
	if err := sess.Process(rc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if err := sess.BeforeEverySampling(rc); err != nil {
		t.Fatalf("BeforeEverySampling() error = %v", err)
	}
	if err := sess.PostprocessImage(rc, 0, solidImage(32, 32, 1)); err != nil {
		t.Fatalf("PostprocessImage() error = %v", err)
	}

	result := &host.Result{}
	sess.Postprocess(rc, result)
	if rc.Conditioning != nil || len(rc.ExtraResultImages) != 0 || len(result.Images) != 0 || rc.InitImage != init {
		t.Error("disabled request mutated the run context or appended images")
	}
}

func TestBeforeProcessMissingForegroundFailsSoft(t *testing.T) {
	rc := host.NewRunContext(host.Txt2Img, 32, 32)
	rc.RawArgs = rawArgs(true, nil)

	sess := NewDispatcher(Select(host.Capabilities{})).NewSession()
	if err := sess.BeforeProcess(rc); err != nil {
		t.Fatalf("BeforeProcess() error = %v, want fail-soft nil", err)
	}
	if sess.Enabled() {
		t.Error("session enabled despite missing foreground")
	}
}

func TestBeforeProcessRejectsFBCInImg2Img(t *testing.T) {
	rc := host.NewRunContext(host.Img2Img, 32, 32)
	rc.InitImage = solidImage(32, 32, 50)
	raw := rawArgs(true, solidImage(8, 8, 100))
	raw[1] = "FBC"
	raw[3] = solidImage(32, 32, 70)
	rc.RawArgs = raw

	sess := NewDispatcher(Select(host.Capabilities{PerSamplingPassHook: true})).NewSession()
	if err := sess.BeforeProcess(rc); !errors.Is(err, ErrInvalidModeCombination) {
		t.Errorf("BeforeProcess() error = %v, want ErrInvalidModeCombination", err)
	}
}

func TestBeforeProcessReplacesInitImageWithLightmap(t *testing.T) {
	rc := host.NewRunContext(host.Img2Img, 32, 32)
	rc.InitImage = solidImage(32, 32, 50)
	raw := rawArgs(true, solidImage(8, 8, 100))
	rc.RawArgs = raw
	before := rc.InitImage

	sess := NewDispatcher(Select(host.Capabilities{PerSamplingPassHook: true})).NewSession()
	if err := sess.BeforeProcess(rc); err != nil {
		t.Fatalf("BeforeProcess() error = %v", err)
	}
	if rc.InitImage == before {
		t.Error("BeforeProcess() did not replace the init image with the lightmap")
	}
	// Left Light lightmap: bright edge on the left.
	if rc.InitImage.Pix[0] <= rc.InitImage.Pix[31*4] {
		t.Error("lightmap gradient direction wrong for Left Light")
	}
}

func TestBeforeProcessCustomLightmapPassthrough(t *testing.T) {
	userDrawn := solidImage(32, 32, 123)
	rc := host.NewRunContext(host.Img2Img, 32, 32)
	rc.InitImage = userDrawn
	raw := rawArgs(true, solidImage(8, 8, 100))
	raw[4] = string(args.BGSourceFCCustom)
	rc.RawArgs = raw

	sess := NewDispatcher(Select(host.Capabilities{PerSamplingPassHook: true})).NewSession()
	if err := sess.BeforeProcess(rc); err != nil {
		t.Fatalf("BeforeProcess() error = %v", err)
	}
	if rc.InitImage != userDrawn {
		t.Error("custom lightmap must keep the user image pixel-for-pixel")
	}
	for i := 0; i < len(userDrawn.Pix); i += 4 {
		if userDrawn.Pix[i] != 123 {
			t.Fatal("custom lightmap pixels were modified")
		}
	}
}

func TestPreSamplingRejectsHires(t *testing.T) {
	rc := host.NewRunContext(host.Txt2Img, 32, 32)
	rc.HiresFix = true
	rc.RawArgs = rawArgs(true, solidImage(8, 8, 100))

	sess := NewDispatcher(Select(host.Capabilities{})).NewSession()
	if err := sess.BeforeProcess(rc); err != nil {
		t.Fatalf("BeforeProcess() error = %v", err)
	}
	if err := sess.Process(rc); !errors.Is(err, ErrConfigurationUnsupported) {
		t.Errorf("Process() error = %v, want ErrConfigurationUnsupported", err)
	}
	if rc.Conditioning != nil {
		t.Error("conditioning applied despite the unsupported configuration")
	}
}

func TestPostprocessOrdering(t *testing.T) {
	rc := host.NewRunContext(host.Txt2Img, 16, 16)
	raw := rawArgs(true, solidImage(16, 16, 100))
	raw[8] = true // detail_transfer
	raw[9] = true // use raw input as reference
	rc.RawArgs = raw

	sess := NewDispatcher(Select(host.Capabilities{PerSamplingPassHook: true})).NewSession()
	if err := sess.BeforeProcess(rc); err != nil {
		t.Fatalf("BeforeProcess() error = %v", err)
	}
	if err := sess.BeforeEverySampling(rc); err != nil {
		t.Fatalf("BeforeEverySampling() error = %v", err)
	}

	p0 := solidImage(16, 16, 10)
	p1 := solidImage(16, 16, 20)
	// Out-of-order invocation must not break pairing.
	if err := sess.PostprocessImage(rc, 1, p1); err != nil {
		t.Fatalf("PostprocessImage(1) error = %v", err)
	}
	if err := sess.PostprocessImage(rc, 0, p0); err != nil {
		t.Fatalf("PostprocessImage(0) error = %v", err)
	}
	if !imageUnchanged(p0, 10) || !imageUnchanged(p1, 20) {
		t.Fatal("PostprocessImage() mutated a produced image")
	}

	result := &host.Result{}
	result.Append(p0, p1)
	sess.Postprocess(rc, result)

	// primaries, then detail variants in generation order, then aux images.
	wantLen := 2 + 2 + len(rc.ExtraResultImages)
	if len(result.Images) != wantLen {
		t.Fatalf("result has %d images, want %d", len(result.Images), wantLen)
	}
	if result.Images[0] != p0 || result.Images[1] != p1 {
		t.Error("primary images are not first")
	}
	// Detail variants keep their primaries' base levels, so ordering is
	// observable even after restoration.
	if result.Images[2].Pix[0] >= result.Images[3].Pix[0] {
		t.Error("detail variants are not paired in generation order")
	}
}

func TestPostprocessImageMattedReference(t *testing.T) {
	// Bright border, dark center: the matte keys the border to the neutral
	// backdrop, so the matted reference differs from the raw upload.
	fg := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			i := y*fg.Stride + x*4
			v := uint8(250)
			if x >= 4 && x < 12 && y >= 4 && y < 12 {
				v = 40
			}
			fg.Pix[i], fg.Pix[i+1], fg.Pix[i+2], fg.Pix[i+3] = v, v, v, 255
		}
	}

	rc := host.NewRunContext(host.Txt2Img, 16, 16)
	raw := rawArgs(true, fg)
	raw[8] = true  // detail_transfer
	raw[9] = false // reference the matted subject
	rc.RawArgs = raw

	sess := NewDispatcher(Select(host.Capabilities{PerSamplingPassHook: true})).NewSession()
	if err := sess.BeforeProcess(rc); err != nil {
		t.Fatalf("BeforeProcess() error = %v", err)
	}

	produced := solidImage(16, 16, 30)
	if err := sess.PostprocessImage(rc, 0, produced); err != nil {
		t.Fatalf("PostprocessImage() error = %v", err)
	}

	result := &host.Result{}
	result.Append(produced)
	sess.Postprocess(rc, result)
	if len(result.Images) < 2 {
		t.Fatalf("result has %d images, want a detail variant after the primary", len(result.Images))
	}
	variant := result.Images[1]

	matted, err := sess.Request().FgRGB()
	if err != nil {
		t.Fatalf("FgRGB() error = %v", err)
	}
	wantMatted, err := detail.RestoreDetail(produced, matted, 5)
	if err != nil {
		t.Fatalf("RestoreDetail() error = %v", err)
	}
	if !imgutil.Equal(variant, wantMatted) {
		t.Error("detail variant was not restored against the matted subject")
	}

	wantRaw, err := detail.RestoreDetail(produced, fg, 5)
	if err != nil {
		t.Fatalf("RestoreDetail() error = %v", err)
	}
	if imgutil.Equal(variant, wantRaw) {
		t.Error("detail variant used the raw upload despite use_raw_input=false")
	}
}

func TestPostprocessImageFailureIsIsolated(t *testing.T) {
	rc := host.NewRunContext(host.Txt2Img, 16, 16)
	raw := rawArgs(true, solidImage(16, 16, 100))
	raw[8] = true
	raw[9] = true
	rc.RawArgs = raw

	sess := NewDispatcher(Select(host.Capabilities{PerSamplingPassHook: true})).NewSession()
	if err := sess.BeforeProcess(rc); err != nil {
		t.Fatalf("BeforeProcess() error = %v", err)
	}

	empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	if err := sess.PostprocessImage(rc, 0, empty); err == nil {
		t.Fatal("PostprocessImage() accepted an empty image")
	}
	ok := solidImage(16, 16, 30)
	if err := sess.PostprocessImage(rc, 1, ok); err != nil {
		t.Fatalf("PostprocessImage() error after isolated failure = %v", err)
	}

	result := &host.Result{}
	result.Append(empty, ok)
	sess.Postprocess(rc, result)
	// 2 primaries + 1 surviving variant + aux.
	if len(result.Images) != 3+len(rc.ExtraResultImages) {
		t.Errorf("result has %d images, want %d", len(result.Images), 3+len(rc.ExtraResultImages))
	}
}

func imageUnchanged(img *image.NRGBA, v uint8) bool {
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != v {
			return false
		}
	}
	return true
}
