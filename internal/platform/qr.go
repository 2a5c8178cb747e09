package platform

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
)

// QRMatrix encodes content as a QR code at medium recovery and returns its
// modules, quiet zone included. A true bit is a dark module.
func QRMatrix(content string) ([][]bool, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return q.Bitmap(), nil
}

// PNGEncoder rasterizes bit matrices as grayscale PNG images, Scale pixels per module.
type PNGEncoder struct {
	Scale int
}

// NewPNGEncoder returns an encoder drawing each module as a scale x scale square.
func NewPNGEncoder(scale int) *PNGEncoder {
	if scale < 1 {
		scale = 1
	}
	return &PNGEncoder{Scale: scale}
}

func (e *PNGEncoder) Encode(w io.Writer, bits [][]bool) error {
	img, err := bitmap(bits)
	if err != nil {
		return err
	}
	var out image.Image = img
	if e.Scale > 1 {
		b := img.Bounds()
		out = imaging.Resize(img, b.Dx()*e.Scale, b.Dy()*e.Scale, imaging.NearestNeighbor)
	}
	if err := imaging.Encode(w, out, imaging.PNG); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// bitmap draws one pixel per module. Rows must all have the matrix height.
func bitmap(bits [][]bool) (*image.Gray, error) {
	size := len(bits)
	if size == 0 {
		return nil, errors.New("empty bit matrix")
	}
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y, row := range bits {
		if len(row) != size {
			return nil, fmt.Errorf("bit matrix row %d has %d columns, want %d", y, len(row), size)
		}
		for x, dark := range row {
			c := color.White
			if dark {
				c = color.Black
			}
			img.Set(x, y, c)
		}
	}
	return img, nil
}
