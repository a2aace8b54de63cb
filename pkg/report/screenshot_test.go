package report

import (
	"bytes"
	"image/png"
	"os"
	"testing"

	"github.com/SH1NK10KU/shin-macaca/pkg/webdriver/wdtest"
)

func pngSize(t *testing.T, path string) (int, int) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestDownscale(t *testing.T) {
	src := wdtest.SolidPNG(2048, 1536)

	out, err := Downscale(src, 1024)
	if err != nil {
		t.Fatalf("Downscale failed: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 1024 || cfg.Height != 768 {
		t.Errorf("size = %dx%d, want 1024x768", cfg.Width, cfg.Height)
	}
}

func TestDownscale_AlreadySmall(t *testing.T) {
	src := wdtest.SolidPNG(100, 50)
	out, err := Downscale(src, 1024)
	if err != nil {
		t.Fatalf("Downscale failed: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Error("expected unchanged bytes")
	}
}

func TestDownscale_Invalid(t *testing.T) {
	if _, err := Downscale([]byte("garbage"), 10); err == nil {
		t.Error("expected error for invalid image")
	}
}
