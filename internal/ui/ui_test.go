package ui

import (
	"testing"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/args"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/host"
)

func TestInitialChoiceSets(t *testing.T) {
	t2i := Initial(host.Txt2Img)
	if len(t2i.ModelTypeChoices) != 2 {
		t.Errorf("txt2img model choices = %v, want FC and FBC", t2i.ModelTypeChoices)
	}
	if t2i.BgSourceFC != args.BGSourceFCNone {
		t.Errorf("txt2img initial FC source = %q, want None", t2i.BgSourceFC)
	}

	i2i := Initial(host.Img2Img)
	if len(i2i.ModelTypeChoices) != 1 || i2i.ModelTypeChoices[0] != args.FC {
		t.Errorf("img2img model choices = %v, want FC only", i2i.ModelTypeChoices)
	}
	if i2i.BgSourceFC != args.BGSourceFCCustom {
		t.Errorf("img2img initial FC source = %q, want Custom LightMap", i2i.BgSourceFC)
	}
	for _, c := range i2i.BgSourceFCChoices {
		if c == args.BGSourceFCNone {
			t.Error("img2img offers the None source")
		}
	}
}

func TestReduceModelTypeChange(t *testing.T) {
	s := Initial(host.Txt2Img)

	next, err := Reduce(s, ModelTypeChanged{ModelType: args.FBC})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if !next.ShowUploadedBg || !next.ShowBgSourceFBC {
		t.Error("switching to FBC must reveal the background controls")
	}
	if next.Description != DescTxt2ImgFBC {
		t.Error("switching to FBC must swap the description")
	}

	back, err := Reduce(next, ModelTypeChanged{ModelType: args.FC})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if back.ShowUploadedBg || back.ShowBgSourceFBC {
		t.Error("switching back to FC must hide the background controls")
	}
}

func TestReduceRejectsFBCInImg2Img(t *testing.T) {
	s := Initial(host.Img2Img)
	if _, err := Reduce(s, ModelTypeChanged{ModelType: args.FBC}); err == nil {
		t.Error("Reduce() offered FBC in an img2img context")
	}
}

func TestReduceBackgroundSourcePreview(t *testing.T) {
	s := Initial(host.Img2Img)

	next, err := Reduce(s, BackgroundSourceChanged{Source: args.BGSourceFCLeft})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if next.InitImagePreview == nil {
		t.Fatal("selecting a synthesized preset must request an init image preview")
	}
	if next.InitImagePreview.Source != args.BGSourceFCLeft {
		t.Errorf("preview source = %q, want Left Light", next.InitImagePreview.Source)
	}

	// Custom carries no synthesized preview.
	next, err = Reduce(next, BackgroundSourceChanged{Source: args.BGSourceFCCustom})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if next.InitImagePreview != nil {
		t.Error("Custom LightMap must not request a preview")
	}
}

func TestReduceInitImageUploadSwitchesToCustom(t *testing.T) {
	s := Initial(host.Img2Img)
	s.BgSourceFC = args.BGSourceFCTop

	next, err := Reduce(s, InitImageUploaded{})
	if err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if next.BgSourceFC != args.BGSourceFCCustom {
		t.Errorf("after upload FC source = %q, want Custom LightMap", next.BgSourceFC)
	}
}

func TestReduceIsPure(t *testing.T) {
	s := Initial(host.Txt2Img)
	before := s

	if _, err := Reduce(s, ModelTypeChanged{ModelType: args.FBC}); err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if s.ModelType != before.ModelType || s.ShowUploadedBg != before.ShowUploadedBg ||
		s.Description != before.Description {
		t.Error("Reduce() mutated its input state")
	}
}
