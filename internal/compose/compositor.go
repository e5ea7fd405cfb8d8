// Package compose turns the AI-edited image into the final booth output:
// a cover-crop into the fixed target resolution with the event's frame
// overlay drawn on top.
package compose

import (
	"bytes"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"photobooth/internal/domain"
)

const jpegQuality = 92

// CoverScale returns the minimal scale at which a srcW x srcH image fully
// covers the target canvas. The larger axis overflows and gets cropped.
func CoverScale(srcW, srcH, targetW, targetH int) float64 {
	return math.Max(float64(targetW)/float64(srcW), float64(targetH)/float64(srcH))
}

// coverSize rounds the scaled dimensions up so coverage survives integer
// truncation.
func coverSize(srcW, srcH, targetW, targetH int) (int, int) {
	scale := CoverScale(srcW, srcH, targetW, targetH)
	w := int(math.Ceil(float64(srcW) * scale))
	h := int(math.Ceil(float64(srcH) * scale))
	if w < targetW {
		w = targetW
	}
	if h < targetH {
		h = targetH
	}
	return w, h
}

// Composite cover-crops the edited image into the target canvas, draws the
// overlay (if any) at full target size on top, and encodes the result as
// JPEG quality 92. A nil overlay yields the cropped image alone. An
// undecodable source image is unrecoverable and fails the run.
func Composite(edited domain.ImageBlob, overlay image.Image, target domain.CompositeTarget) (domain.ImageBlob, error) {
	src, err := imaging.Decode(bytes.NewReader(edited.Data))
	if err != nil {
		return domain.ImageBlob{}, domain.WrapError(domain.CodeComposite,
			"decode generated image", err)
	}

	bounds := src.Bounds()
	w, h := coverSize(bounds.Dx(), bounds.Dy(), target.Width, target.Height)
	resized := imaging.Resize(src, w, h, imaging.Lanczos)
	canvas := imaging.CropCenter(resized, target.Width, target.Height)

	if overlay != nil {
		frame := overlay
		if fb := frame.Bounds(); fb.Dx() != target.Width || fb.Dy() != target.Height {
			frame = imaging.Resize(frame, target.Width, target.Height, imaging.Lanczos)
		}
		canvas = imaging.Overlay(canvas, frame, image.Pt(0, 0), 1.0)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return domain.ImageBlob{}, domain.WrapError(domain.CodeComposite,
			"encode composite", err)
	}
	return domain.ImageBlob{MIME: domain.MIMEJPEG, Data: buf.Bytes()}, nil
}
