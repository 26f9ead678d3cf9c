// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package texture creates device textures from raw pixels, container
// files and encoded images. The Manager schedules creations through a
// bounded throttler, the Factory performs them, and the Wrap carries
// the resulting view with exclusive ownership.
package texture

import (
	"fmt"
	"sync/atomic"

	"github.com/devblok/texel/gfx"
)

// ImageSpec describes a block of raw pixel data.
type ImageSpec struct {

	// Width and Height in pixels, both non-zero.
	Width, Height uint32

	// Format of the pixel data.
	Format gfx.Format

	// RowPitch is the stride in bytes between rows. Zero means tightly
	// packed (Width times the pixel size).
	RowPitch uint32
}

// pitch resolves the effective row pitch.
func (s ImageSpec) pitch() uint32 {
	if s.RowPitch != 0 {
		return s.RowPitch
	}
	return s.Width * uint32(s.Format.PixelSize())
}

// validate checks the spec against the pixel payload.
func (s ImageSpec) validate(pix []byte) error {
	if s.Width == 0 || s.Height == 0 {
		return fmt.Errorf("%w: zero dimension %dx%d", ErrImageSpec, s.Width, s.Height)
	}
	if s.Format.PixelSize() == 0 {
		return fmt.Errorf("%w: unknown format", ErrImageSpec)
	}
	pitch := s.pitch()
	if pitch < s.Width*uint32(s.Format.PixelSize()) {
		return fmt.Errorf("%w: row pitch %d too small", ErrImageSpec, pitch)
	}
	if need := int(pitch) * int(s.Height); len(pix) < need {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrImageSpec, len(pix), need)
	}
	return nil
}

// Wrap carries a created texture together with its view. It owns both
// exclusively unless constructed borrowing, and releases them exactly
// once.
type Wrap struct {
	tex   gfx.Texture
	view  gfx.TextureView
	owns  bool
	label string

	width, height uint32

	released atomic.Bool
}

func newWrap(tex gfx.Texture, view gfx.TextureView, spec ImageSpec, label string) *Wrap {
	return &Wrap{
		tex:    tex,
		view:   view,
		owns:   true,
		label:  label,
		width:  spec.Width,
		height: spec.Height,
	}
}

// Borrow makes a wrap over a view owned elsewhere. Release only marks
// the wrap unusable without touching the view.
func Borrow(view gfx.TextureView, width, height uint32, label string) *Wrap {
	return &Wrap{
		view:   view,
		label:  label,
		width:  width,
		height: height,
	}
}

// Width gets the texture width in pixels.
func (w *Wrap) Width() uint32 { return w.width }

// Height gets the texture height in pixels.
func (w *Wrap) Height() uint32 { return w.height }

// Label gets the debug label given at creation.
func (w *Wrap) Label() string { return w.label }

// View returns the texture view, or ErrReleased after Release.
func (w *Wrap) View() (gfx.TextureView, error) {
	if w.released.Load() {
		return nil, ErrReleased
	}
	return w.view, nil
}

// Release frees the view and its texture. The second and any further
// call reports ErrReleased.
func (w *Wrap) Release() error {
	if !w.released.CompareAndSwap(false, true) {
		return ErrReleased
	}
	if !w.owns {
		return nil
	}
	w.view.Release()
	if w.tex != nil {
		w.tex.Release()
	}
	return nil
}
