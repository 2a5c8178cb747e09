// Package platform holds the capabilities the planner consumes from the device
// or desktop it runs on. Only narrow interfaces live here, plus the few
// implementations that need nothing beyond a library.
package platform

import (
	"context"
	"errors"
	"io"

	"github.com/example/onlinetravel/internal/models"
)

// ErrUnsupported is returned when the host has no handler for a capability,
// e.g. no map application is installed.
var ErrUnsupported = errors.New("not supported on this platform")

// PlacePicker lets the user choose a place. ok is false when the user backed out.
type PlacePicker interface {
	Pick(ctx context.Context) (place models.Place, ok bool, err error)
}

// QRScanner reads codes from a camera.
type QRScanner interface {
	Start(ctx context.Context) error
	Stop() error
	// Scan blocks until a code is detected and returns its text.
	Scan(ctx context.Context) (string, error)
}

// MapLauncher opens a geo or navigation uri in a map application.
type MapLauncher interface {
	Open(uri string) error
}

// FileChooser asks the user for a local file. ok is false when nothing was chosen.
type FileChooser interface {
	Choose(ctx context.Context, extensions []string) (path string, ok bool, err error)
}

// RasterEncoder turns a bit matrix into an image. A true bit is a dark module.
type RasterEncoder interface {
	Encode(w io.Writer, bits [][]bool) error
}

// Sharer hands text to a sharing facility such as mail.
type Sharer interface {
	Share(ctx context.Context, subject, content string) error
}
