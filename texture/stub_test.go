// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture_test

import (
	"bytes"
	"sync"

	"github.com/devblok/texel/gfx"
	"github.com/devblok/texel/utility/ktex"
)

// stubDevice records creations and answers format queries from a
// fixed table.
type stubDevice struct {
	mu sync.Mutex

	created  []gfx.TextureDesc
	views    int
	released bool

	createErr    error
	viewErr      error
	createGate   chan struct{}
	supported    map[gfx.Format]bool
	supportErr   error
	supportCalls int
}

func (d *stubDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
}

func (d *stubDevice) CreateTexture2D(desc gfx.TextureDesc, data []byte) (gfx.Texture, error) {
	if d.createGate != nil {
		<-d.createGate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createErr != nil {
		return nil, d.createErr
	}
	d.created = append(d.created, desc)
	return &stubTexture{}, nil
}

func (d *stubDevice) CreateView(tex gfx.Texture) (gfx.TextureView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.viewErr != nil {
		return nil, d.viewErr
	}
	d.views++
	return &stubView{}, nil
}

func (d *stubDevice) FormatSupport(format gfx.Format) (gfx.FormatFeatures, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.supportCalls++
	if d.supportErr != nil {
		return 0, d.supportErr
	}
	if d.supported[format] {
		return gfx.FormatFeatureSampledImage2D | gfx.FormatFeatureTransferDst, nil
	}
	return 0, nil
}

func (d *stubDevice) lastCreated() gfx.TextureDesc {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[len(d.created)-1]
}

func (d *stubDevice) createCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.created)
}

type stubTexture struct {
	released bool
}

func (t *stubTexture) Release() { t.released = true }

type stubView struct {
	released bool
}

func (v *stubView) Release() { v.released = true }

// containerBytes encodes a ktex container for test input.
func containerBytes(format gfx.Format, width, height uint32, flags uint32, pix []byte) []byte {
	var buf bytes.Buffer
	header := ktex.Header{
		Format:  format,
		Width:   width,
		Height:  height,
		Flags:   flags,
		RawSize: int64(len(pix)),
	}
	if err := ktex.Encode(&buf, header, pix); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func solidPixels(width, height, pixelSize int, value byte) []byte {
	pix := make([]byte, width*height*pixelSize)
	for i := range pix {
		pix[i] = value
	}
	return pix
}
