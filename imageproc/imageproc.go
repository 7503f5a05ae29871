package imageproc

import (
	"bytes"
	"errors"
	"image"

	"github.com/disintegration/imaging"

	"github.com/SebastianChristoph/brickonizer/datastructures"
)

// Images larger than this are downscaled on upload. Box coordinates always
// refer to the stored (possibly downscaled) image.
const MaxDimension = 1920

var ErrEmptyBox = errors.New("bounding box has no area")

// NormalizeBox flips rectangles that were drawn with a negative drag so that
// width and height are positive. Boxes that still have no area are rejected.
func NormalizeBox(b datastructures.BoundingBox) (datastructures.BoundingBox, error) {
	if b.Width < 0 {
		b.X += b.Width
		b.Width = -b.Width
	}
	if b.Height < 0 {
		b.Y += b.Height
		b.Height = -b.Height
	}
	if b.Width == 0 || b.Height == 0 {
		return b, ErrEmptyBox
	}
	return b, nil
}

// Ingest decodes an uploaded image, downscales it to MaxDimension if needed
// and re-encodes it as JPEG. The returned bytes are what gets stored and
// what all box coordinates refer to.
func Ingest(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}
	return encodeJPEG(img)
}

// Crop cuts the box region out of the stored image, clamped to the image
// bounds, and returns it as JPEG bytes.
func Crop(data []byte, box datastructures.BoundingBox) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	rect := image.Rect(box.X, box.Y, box.X+box.Width, box.Y+box.Height).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, ErrEmptyBox
	}
	return encodeJPEG(imaging.Crop(img, rect))
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
