package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/models"
	"github.com/example/onlinetravel/internal/platform"
)

// ShareCode is a share url together with the uploaded picture of its QR code.
type ShareCode struct {
	URL   string `json:"url" yaml:"url"`
	Image string `json:"image" yaml:"image"`
}

// ShareURL returns the share url of a trip, one of its destinations or one of
// a destination's notes.
func (a *App) ShareURL(trip *models.Trip, dest *models.Destination, note *models.Note) (string, error) {
	share, err := a.shares()
	if err != nil {
		return "", err
	}
	return share.ShareURL(trip, dest, note)
}

// ShareQR builds the share url, renders it as a QR code and uploads the
// picture under the id of the innermost shared item.
func (a *App) ShareQR(ctx context.Context, trip *models.Trip, dest *models.Destination, note *models.Note) (ShareCode, error) {
	share, err := a.shares()
	if err != nil {
		return ShareCode{}, err
	}
	u, err := share.ShareURL(trip, dest, note)
	if err != nil {
		return ShareCode{}, err
	}
	bits, err := platform.QRMatrix(u)
	if err != nil {
		return ShareCode{}, err
	}
	var item models.Entity = trip
	switch {
	case note != nil:
		item = note
	case dest != nil:
		item = dest
	}
	img, err := share.UploadQRCode(ctx, item.EntityID(), bits)
	if err != nil {
		return ShareCode{}, err
	}
	a.logger.Info("Shared item", zap.String("kind", string(item.Kind())), zap.String("id", item.EntityID()))
	return ShareCode{URL: u, Image: img}, nil
}

// SendShare hands code to the platform sharing facility.
func (a *App) SendShare(ctx context.Context, code ShareCode) error {
	if a.sharer == nil {
		return platform.ErrUnsupported
	}
	body := fmt.Sprintf("Open %s in Online Travel.\nQR code: %s\n", code.URL, code.Image)
	if err := a.sharer.Share(ctx, "Online Travel", body); err != nil {
		return fmt.Errorf("failed to share: %w", err)
	}
	return nil
}
