package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"

	// Decoders for the accepted upload formats.
	_ "image/gif"
	_ "image/png"

	"github.com/apex/log"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
)

const (
	MaxImageDimension = 1920 // Maximum width or height in pixels
	ImageQuality      = 85
	MaxImagePixels    = 50_000_000
)

// ErrTooManyPixels is returned for images larger than MaxImagePixels.
var ErrTooManyPixels = errors.New("image has too many pixels")

// CheckDimensions reads only the image header, so a small file that decodes
// into a huge bitmap is rejected before any pixel memory is allocated.
func CheckDimensions(r io.Reader) (int, int, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return cfg.Width, cfg.Height, ErrTooManyPixels
	}
	return cfg.Width, cfg.Height, nil
}

// GetImageOrientation extracts the EXIF orientation from JPEG data
func GetImageOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}

	orientation, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientVal, err := orientation.Int(0)
	if err != nil {
		return 1
	}

	return orientVal
}

// CorrectImageOrientation applies the EXIF orientation so the image is upright.
func CorrectImageOrientation(img image.Image, orientation int) image.Image {
	if orientation < 2 || orientation > 8 {
		return img
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Orientations 5-8 swap the axes.
	dstW, dstH := width, height
	if orientation >= 5 {
		dstW, dstH = height, width
	}
	newImg := image.NewRGBA(image.Rect(0, 0, dstW, dstH))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var dx, dy int
			switch orientation {
			case 2: // Flip horizontal
				dx, dy = width-1-x, y
			case 3: // Rotate 180
				dx, dy = width-1-x, height-1-y
			case 4: // Flip vertical
				dx, dy = x, height-1-y
			case 5: // Transpose
				dx, dy = y, x
			case 6: // Rotate 90 clockwise
				dx, dy = height-1-y, x
			case 7: // Transverse
				dx, dy = height-1-y, width-1-x
			case 8: // Rotate 90 counter-clockwise
				dx, dy = y, width-1-x
			}
			newImg.Set(dx, dy, img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return newImg
}

// FitDimensions scales width x height down to fit within limit on both axes,
// preserving the aspect ratio. Smaller images keep their size.
func FitDimensions(width, height, limit int) (int, int) {
	if width <= limit && height <= limit {
		return width, height
	}
	scale := float64(limit) / float64(width)
	if s := float64(limit) / float64(height); s < scale {
		scale = s
	}
	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	if newWidth > limit {
		newWidth = limit
	}
	if newHeight > limit {
		newHeight = limit
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}
	return newWidth, newHeight
}

// CompressImage decodes a JPEG, PNG or GIF, fixes its orientation, fits it
// within MaxImageDimension and re-encodes it as JPEG at ImageQuality.
// Transparent areas are flattened onto white.
func CompressImage(imageData []byte) ([]byte, error) {
	if _, _, err := CheckDimensions(bytes.NewReader(imageData)); err != nil {
		return nil, err
	}

	orientation := GetImageOrientation(imageData)

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if orientation != 1 {
		img = CorrectImageOrientation(img, orientation)
		log.Infof("Applied orientation correction: %d", orientation)
	}

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()
	newWidth, newHeight := FitDimensions(originalWidth, originalHeight, MaxImageDimension)

	newImg := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.Draw(newImg, newImg.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if newWidth == originalWidth && newHeight == originalHeight {
		draw.Draw(newImg, newImg.Bounds(), img, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(newImg, newImg.Bounds(), img, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, newImg, &jpeg.Options{Quality: ImageQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode compressed image: %w", err)
	}

	compressedData := buf.Bytes()
	log.Infof("Image compressed: %s %d bytes -> %d bytes (quality: %d, original: %dx%d, new: %dx%d, orientation: %d)",
		format, len(imageData), len(compressedData), ImageQuality, originalWidth, originalHeight, newWidth, newHeight, orientation)

	return compressedData, nil
}
