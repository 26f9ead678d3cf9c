// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/devblok/texel/gfx"
	"github.com/devblok/texel/texture"
	"github.com/devblok/texel/utility/ktex"
)

func TestFactoryFromRaw(t *testing.T) {
	dev := &stubDevice{}
	factory := texture.NewFactory(dev, nil)

	spec := texture.ImageSpec{
		Width:    64,
		Height:   64,
		Format:   gfx.FormatR8G8B8A8Unorm,
		RowPitch: 256,
	}
	wrap, err := factory.FromRaw(spec, make([]byte, 64*256), "checker")
	if err != nil {
		t.Fatalf("FromRaw failed: %s", err)
	}
	if wrap.Width() != 64 || wrap.Height() != 64 {
		t.Errorf("wrap is %dx%d, want 64x64", wrap.Width(), wrap.Height())
	}
	if wrap.Label() != "checker" {
		t.Errorf("label is %q", wrap.Label())
	}
	desc := dev.lastCreated()
	if desc.Format != gfx.FormatR8G8B8A8Unorm || desc.RowPitch != 256 {
		t.Errorf("device saw desc %+v", desc)
	}
	if _, err := wrap.View(); err != nil {
		t.Errorf("view unavailable: %s", err)
	}
}

func TestFactoryFromRawRejectsShortPayload(t *testing.T) {
	factory := texture.NewFactory(&stubDevice{}, nil)
	spec := texture.ImageSpec{Width: 8, Height: 8, Format: gfx.FormatR8G8B8A8Unorm}
	if _, err := factory.FromRaw(spec, make([]byte, 16), "short"); !errors.Is(err, texture.ErrImageSpec) {
		t.Errorf("expected ErrImageSpec, got %v", err)
	}
}

func TestFactoryDeviceRejection(t *testing.T) {
	dev := &stubDevice{createErr: errors.New("out of memory")}
	factory := texture.NewFactory(dev, nil)
	spec := texture.ImageSpec{Width: 4, Height: 4, Format: gfx.FormatR8G8B8A8Unorm}
	if _, err := factory.FromRaw(spec, make([]byte, 64), "oom"); !errors.Is(err, texture.ErrDeviceRejected) {
		t.Errorf("expected ErrDeviceRejected, got %v", err)
	}
}

func TestFactoryViewFailureReleasesTexture(t *testing.T) {
	dev := &stubDevice{viewErr: errors.New("view refused")}
	factory := texture.NewFactory(dev, nil)
	spec := texture.ImageSpec{Width: 4, Height: 4, Format: gfx.FormatR8G8B8A8Unorm}
	if _, err := factory.FromRaw(spec, make([]byte, 64), "noview"); !errors.Is(err, texture.ErrDeviceRejected) {
		t.Fatalf("expected ErrDeviceRejected, got %v", err)
	}
	if dev.createCount() != 1 {
		t.Fatalf("expected one creation, got %d", dev.createCount())
	}
}

func TestFactoryContainerUnsupportedFormatFallsBack(t *testing.T) {
	dev := &stubDevice{supported: map[gfx.Format]bool{
		gfx.FormatB8G8R8A8Unorm: true,
	}}
	factory := texture.NewFactory(dev, nil)

	buf, err := ktex.Decode(containerBytes(gfx.FormatR8G8B8A8Unorm, 8, 8, 0, solidPixels(8, 8, 4, 0x7f)))
	if err != nil {
		t.Fatalf("decode failed: %s", err)
	}
	wrap, err := factory.FromContainer(buf, "fallback")
	if err != nil {
		t.Fatalf("FromContainer failed: %s", err)
	}
	defer wrap.Release()

	if got := dev.lastCreated().Format; got != gfx.FormatB8G8R8A8Unorm {
		t.Errorf("uploaded format %v, want B8G8R8A8", got)
	}
	if dev.supportCalls != 1 {
		t.Errorf("support queried %d times, want once", dev.supportCalls)
	}
}

func TestFactoryContainerSupportedFormatUploadsDirect(t *testing.T) {
	dev := &stubDevice{supported: map[gfx.Format]bool{
		gfx.FormatR8G8B8A8Unorm: true,
	}}
	factory := texture.NewFactory(dev, nil)

	buf, err := ktex.Decode(containerBytes(gfx.FormatR8G8B8A8Unorm, 8, 8, 0, solidPixels(8, 8, 4, 0x20)))
	if err != nil {
		t.Fatalf("decode failed: %s", err)
	}
	wrap, err := factory.FromContainer(buf, "direct")
	if err != nil {
		t.Fatalf("FromContainer failed: %s", err)
	}
	defer wrap.Release()

	if got := dev.lastCreated().Format; got != gfx.FormatR8G8B8A8Unorm {
		t.Errorf("uploaded format %v, want R8G8B8A8", got)
	}
}

func TestFactoryContainerConvertFlagSkipsQuery(t *testing.T) {
	dev := &stubDevice{}
	factory := texture.NewFactory(dev, nil)

	buf, err := ktex.Decode(containerBytes(gfx.FormatR8G8B8A8Unorm, 4, 4, ktex.FlagConvert, solidPixels(4, 4, 4, 0x01)))
	if err != nil {
		t.Fatalf("decode failed: %s", err)
	}
	wrap, err := factory.FromContainer(buf, "flagged")
	if err != nil {
		t.Fatalf("FromContainer failed: %s", err)
	}
	defer wrap.Release()

	if dev.supportCalls != 0 {
		t.Errorf("support queried %d times, want none", dev.supportCalls)
	}
	if got := dev.lastCreated().Format; got != gfx.FormatB8G8R8A8Unorm {
		t.Errorf("uploaded format %v, want B8G8R8A8", got)
	}
}

func TestFactoryFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 7, 5))
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			img.Set(x, y, color.NRGBA{R: byte(x), G: byte(y), B: 0x40, A: 0xff})
		}
	}
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		t.Fatalf("png encode: %s", err)
	}

	dev := &stubDevice{}
	factory := texture.NewFactory(dev, nil)
	wrap, err := factory.FromImage(encoded.Bytes(), "decoded")
	if err != nil {
		t.Fatalf("FromImage failed: %s", err)
	}
	defer wrap.Release()

	if wrap.Width() != 7 || wrap.Height() != 5 {
		t.Errorf("wrap is %dx%d, want 7x5", wrap.Width(), wrap.Height())
	}
	if got := dev.lastCreated().Format; got != gfx.FormatR8G8B8A8Unorm {
		t.Errorf("uploaded format %v, want R8G8B8A8", got)
	}
}

func TestFactoryEncodedImageRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 12, 9))
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		t.Fatalf("png encode: %s", err)
	}

	dev := &stubDevice{}
	factory := texture.NewFactory(dev, nil)
	decoded, err := factory.FromImage(encoded.Bytes(), "round")
	if err != nil {
		t.Fatalf("FromImage failed: %s", err)
	}
	defer decoded.Release()

	spec := dev.lastCreated()
	raw, err := factory.FromRaw(texture.ImageSpec{
		Width:    spec.Width,
		Height:   spec.Height,
		Format:   spec.Format,
		RowPitch: spec.RowPitch,
	}, make([]byte, int(spec.RowPitch)*int(spec.Height)), "round-raw")
	if err != nil {
		t.Fatalf("FromRaw failed: %s", err)
	}
	defer raw.Release()

	if raw.Width() != decoded.Width() || raw.Height() != decoded.Height() {
		t.Errorf("handles disagree: %dx%d vs %dx%d",
			raw.Width(), raw.Height(), decoded.Width(), decoded.Height())
	}
}

func TestFactoryFromImageRejectsGarbage(t *testing.T) {
	factory := texture.NewFactory(&stubDevice{}, nil)
	if _, err := factory.FromImage([]byte("definitely not an image"), "junk"); !errors.Is(err, texture.ErrUnsupportedEncoding) {
		t.Errorf("expected ErrUnsupportedEncoding, got %v", err)
	}
}

func TestFactoryFormatSupportedQueryFailure(t *testing.T) {
	dev := &stubDevice{supportErr: errors.New("device lost")}
	factory := texture.NewFactory(dev, nil)
	if factory.FormatSupported(gfx.FormatR8G8B8A8Unorm) {
		t.Error("query failure must count as unsupported")
	}
}

func TestWrapReleaseIsExactlyOnce(t *testing.T) {
	factory := texture.NewFactory(&stubDevice{}, nil)
	spec := texture.ImageSpec{Width: 2, Height: 2, Format: gfx.FormatR8G8B8A8Unorm}
	wrap, err := factory.FromRaw(spec, make([]byte, 16), "once")
	if err != nil {
		t.Fatalf("FromRaw failed: %s", err)
	}
	if err := wrap.Release(); err != nil {
		t.Fatalf("first release failed: %s", err)
	}
	if err := wrap.Release(); !errors.Is(err, texture.ErrReleased) {
		t.Errorf("second release: expected ErrReleased, got %v", err)
	}
	if _, err := wrap.View(); !errors.Is(err, texture.ErrReleased) {
		t.Errorf("view after release: expected ErrReleased, got %v", err)
	}
}
