// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package ktex is an api for an lz4 backed texture container format.
// A ktex file bundles pixel-format metadata with a single raw pixel
// payload, so a loader knows the exact upload parameters before it has
// touched the payload. The header is gob encoded and uncompressed; the
// payload is lz4 compressed and decompressed on the fly while reading.
package ktex

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/devblok/texel/gfx"
	"github.com/pierrec/lz4"
)

// package errors
var (
	ErrFileFormat = errors.New("ktex: corrupted or not a ktex container")
	ErrPixelData  = errors.New("ktex: payload does not match header dimensions")
	ErrConversion = errors.New("ktex: unsupported pixel conversion")
)

// Sizes relevant to the header of the file.
const (
	MagicLength            = 4
	HeaderSizeNumberLength = binary.MaxVarintLen64
)

var magic = [MagicLength]byte{'K', 'T', 'E', 'X'}

// Header flag bits.
const (
	// FlagConvert marks a payload whose channel layout is not directly
	// consumable and must be converted on the CPU before upload, no
	// matter what the device reports for the declared format.
	FlagConvert uint32 = 1 << iota
)

// Header is the file header for ktex files.
type Header struct {
	Format  gfx.Format
	Width   uint32
	Height  uint32
	Flags   uint32
	RawSize int64
}

// Buffer is the decoded payload of a container file, ready for format
// negotiation and upload.
type Buffer struct {
	Format gfx.Format
	Width  uint32
	Height uint32
	Pix    []byte

	// NeedsConvert reflects FlagConvert from the header.
	NeedsConvert bool
}

// Decode reads a complete ktex container from data.
func Decode(data []byte) (*Buffer, error) {
	return DecodeFrom(bytes.NewReader(data))
}

// DecodeFrom reads a complete ktex container from r. It verifies the
// magic and header before touching the compressed payload.
func DecodeFrom(r io.Reader) (*Buffer, error) {
	var m [MagicLength]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return nil, ErrFileFormat
	}
	if m != magic {
		return nil, ErrFileFormat
	}

	sizeBytes := make([]byte, HeaderSizeNumberLength)
	if _, err := io.ReadFull(r, sizeBytes); err != nil {
		return nil, ErrFileFormat
	}
	headerSize, n := binary.Varint(sizeBytes)
	if n <= 0 || headerSize <= 0 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, ErrFileFormat
	}

	var header Header
	if err := gob.NewDecoder(bytes.NewReader(headerBytes)).Decode(&header); err != nil {
		return nil, ErrFileFormat
	}

	pixelSize := header.Format.PixelSize()
	if pixelSize == 0 || header.Width == 0 || header.Height == 0 {
		return nil, ErrFileFormat
	}
	if header.RawSize != int64(header.Width)*int64(header.Height)*int64(pixelSize) {
		return nil, ErrPixelData
	}

	pix := make([]byte, header.RawSize)
	if _, err := io.ReadFull(lz4.NewReader(r), pix); err != nil {
		return nil, fmt.Errorf("ktex: payload decompression: %w", err)
	}

	return &Buffer{
		Format:       header.Format,
		Width:        header.Width,
		Height:       header.Height,
		Pix:          pix,
		NeedsConvert: header.Flags&FlagConvert != 0,
	}, nil
}

// Encode writes a complete ktex container to w. The RawSize field of
// the header is derived from pix and does not need to be filled in.
func Encode(w io.Writer, header Header, pix []byte) error {
	pixelSize := header.Format.PixelSize()
	if pixelSize == 0 || header.Width == 0 || header.Height == 0 {
		return ErrFileFormat
	}
	if int64(len(pix)) != int64(header.Width)*int64(header.Height)*int64(pixelSize) {
		return ErrPixelData
	}
	header.RawSize = int64(len(pix))

	var headerBytes bytes.Buffer
	if err := gob.NewEncoder(&headerBytes).Encode(&header); err != nil {
		return err
	}

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	sizeBytes := make([]byte, HeaderSizeNumberLength)
	binary.PutVarint(sizeBytes, int64(headerBytes.Len()))
	if _, err := w.Write(sizeBytes); err != nil {
		return err
	}
	if _, err := w.Write(headerBytes.Bytes()); err != nil {
		return err
	}

	zw := lz4.NewWriter(w)
	if _, err := zw.Write(pix); err != nil {
		return err
	}
	return zw.Close()
}
