// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command texc compiles ordinary image files into ktex containers
// that the texture loader consumes directly.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/draw"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/texel/gfx"
	"github.com/devblok/texel/utility/ktex"
)

var (
	input   = flag.String("i", "", "Image file to compile (png, jpeg, gif, bmp, tiff)")
	dstFile = flag.String("f", "out.ktex", "Destination file")
	bgra    = flag.Bool("bgra", false, "Store pixels pre-swizzled as BGRA")
	convert = flag.Bool("convert", false, "Mark the container for conversion at load time")
	silent  = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()

	if *silent {
		log.SetLevel(log.ErrorLevel)
	}

	if *input == "" {
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := compile(); err != nil {
		log.Fatalf("compile %s: %s", *input, err)
	}
	log.WithFields(log.Fields{
		"in":  *input,
		"out": *dstFile,
	}).Info("compiled")
}

func compile() error {
	if _, err := os.Stat(*dstFile); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	src, err := os.Open(*input)
	if err != nil {
		return err
	}
	defer src.Close()

	img, kind, err := image.Decode(src)
	if err != nil {
		return fmt.Errorf("decode: %s", err)
	}
	log.WithField("kind", kind).Debug("image decoded")

	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)

	buf := &ktex.Buffer{
		Format: gfx.FormatR8G8B8A8Unorm,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Pix:    canvas.Pix,
	}
	if *bgra {
		converted, err := ktex.Convert(buf, gfx.FormatB8G8R8A8Unorm)
		if err != nil {
			return err
		}
		buf = converted
	}

	var flags uint32
	if *convert {
		flags |= ktex.FlagConvert
	}

	dst, err := os.Create(*dstFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	header := ktex.Header{
		Format:  buf.Format,
		Width:   buf.Width,
		Height:  buf.Height,
		Flags:   flags,
		RawSize: int64(len(buf.Pix)),
	}
	return ktex.Encode(dst, header, buf.Pix)
}
