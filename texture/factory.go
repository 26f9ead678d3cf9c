// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"bytes"
	"fmt"
	"image"

	// Codecs for the encoded-image path.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/texel/gfx"
	"github.com/devblok/texel/utility/ktex"
)

// NewFactory creates a texture factory over the given device. The
// factory is stateless apart from the device and logger, and safe for
// concurrent use.
func NewFactory(dev gfx.Device, logger log.FieldLogger) *Factory {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Factory{
		device: dev,
		log:    logger,
	}
}

// Factory performs the individual texture creations. It holds no
// resources of its own; ownership of everything created passes to the
// returned Wrap.
type Factory struct {
	device gfx.Device
	log    log.FieldLogger
}

// FromRaw creates a texture directly from raw pixel data. The spec is
// trusted as given; only its consistency with the payload is checked.
func (f *Factory) FromRaw(spec ImageSpec, pix []byte, name string) (*Wrap, error) {
	if err := spec.validate(pix); err != nil {
		return nil, err
	}

	desc := gfx.TextureDesc{
		Width:    spec.Width,
		Height:   spec.Height,
		Format:   spec.Format,
		RowPitch: spec.pitch(),
	}
	tex, err := f.device.CreateTexture2D(desc, pix)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceRejected, err)
	}
	view, err := f.device.CreateView(tex)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("%w: %s", ErrDeviceRejected, err)
	}

	f.log.WithFields(log.Fields{
		"name":   name,
		"format": spec.Format,
		"size":   fmt.Sprintf("%dx%d", spec.Width, spec.Height),
	}).Debug("texture created")
	return newWrap(tex, view, spec, name), nil
}

// FromContainer creates a texture from a decoded container buffer,
// converting to the fallback format when the container asks for it or
// the device cannot sample the declared format. Device support is
// queried at most once per creation.
func (f *Factory) FromContainer(buf *ktex.Buffer, name string) (*Wrap, error) {
	if buf.NeedsConvert || !f.FormatSupported(buf.Format) {
		converted, err := ktex.Convert(buf, gfx.FormatB8G8R8A8Unorm)
		if err != nil {
			return nil, fmt.Errorf("container %s: %w", name, err)
		}
		buf = converted
	}
	spec := ImageSpec{
		Width:  buf.Width,
		Height: buf.Height,
		Format: buf.Format,
	}
	return f.FromRaw(spec, buf.Pix, name)
}

// FromImage decodes encoded image bytes (PNG, JPEG, GIF, BMP, TIFF)
// and creates a texture from the result.
func (f *Factory) FromImage(data []byte, name string) (*Wrap, error) {
	img, kind, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, err)
	}
	pix, spec := pixelsRGBA(img)
	f.log.WithFields(log.Fields{
		"name": name,
		"kind": kind,
	}).Debug("image decoded")
	return f.FromRaw(spec, pix, name)
}

// FormatSupported reports whether the device can sample 2D textures of
// the given format. Query failures count as unsupported.
func (f *Factory) FormatSupported(format gfx.Format) bool {
	features, err := f.device.FormatSupport(format)
	if err != nil {
		f.log.WithField("format", format).Warnf("format support query: %s", err)
		return false
	}
	return features&gfx.FormatFeatureSampledImage2D != 0
}
