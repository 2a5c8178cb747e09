package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/db"
	"github.com/example/onlinetravel/internal/models"
	"github.com/example/onlinetravel/internal/platform"
)

// ShareLink is a parsed share url.
type ShareLink struct {
	Kind          models.Kind
	Owner         string
	TripID        string
	DestinationID string
	NoteID        string
}

// DocumentPath returns the path segments of the linked document below the store root.
func (l ShareLink) DocumentPath() []string {
	p := []string{db.UsersRoot, l.Owner, db.TripsNode, l.TripID}
	if l.DestinationID != "" {
		p = append(p, destinationsNode, l.DestinationID)
	}
	if l.NoteID != "" {
		p = append(p, notesNode, l.NoteID)
	}
	return p
}

// segmentsFor is the number of path segments a share url of each kind carries.
var segmentsFor = map[models.Kind]int{
	models.KindTrip:        2,
	models.KindDestination: 3,
	models.KindNote:        4,
}

// ParseShareURL checks that rawURL points at domain, names a shareable kind in
// its query, and has the path segments that kind needs.
func ParseShareURL(rawURL, domain string) (ShareLink, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ShareLink{}, fmt.Errorf("%w: %v", ErrInvalidShareURL, err)
	}
	if !strings.EqualFold(u.Host, domain) {
		return ShareLink{}, fmt.Errorf("%w: host %q", ErrInvalidShareURL, u.Host)
	}
	kind := models.Kind(u.RawQuery)
	want, ok := segmentsFor[kind]
	if !ok {
		return ShareLink{}, fmt.Errorf("%w: kind %q", ErrInvalidShareURL, u.RawQuery)
	}
	segs := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(segs) != want {
		return ShareLink{}, fmt.Errorf("%w: %s link needs %d path segments, got %d", ErrInvalidShareURL, kind, want, len(segs))
	}
	for _, s := range segs {
		if s == "" {
			return ShareLink{}, fmt.Errorf("%w: empty path segment", ErrInvalidShareURL)
		}
	}

	link := ShareLink{Kind: kind, Owner: segs[0], TripID: segs[1]}
	if want > 2 {
		link.DestinationID = segs[2]
	}
	if want > 3 {
		link.NoteID = segs[3]
	}
	return link, nil
}

// ShareManager builds and resolves share urls and stores QR codes under the
// shared root. Share urls point into the owner's trip list, which every
// signed-in user may read.
type ShareManager struct {
	client     *db.Client
	uid        string
	backendURL string
	domain     string
	encoder    platform.RasterEncoder
	logger     *zap.Logger
}

// NewShareManager creates a manager for uid on an unrooted client.
// backendURL is the scheme and host share urls are built on.
func NewShareManager(client *db.Client, uid, backendURL string, encoder platform.RasterEncoder, logger *zap.Logger) *ShareManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	backendURL = strings.TrimSuffix(backendURL, "/")
	domain := backendURL
	if u, err := url.Parse(backendURL); err == nil && u.Host != "" {
		domain = u.Host
	}
	return &ShareManager{
		client:     client,
		uid:        uid,
		backendURL: backendURL,
		domain:     domain,
		encoder:    encoder,
		logger:     logger,
	}
}

// ShareURL returns the url of the trip, or of the destination or note inside
// it when those are given. A note is only addressable through its destination.
func (m *ShareManager) ShareURL(trip *models.Trip, dest *models.Destination, note *models.Note) (string, error) {
	if trip == nil {
		return "", errors.New("share url: trip is required")
	}
	if note != nil && dest == nil {
		return "", errors.New("share url: a note needs its destination")
	}
	path := []string{m.uid, trip.ID}
	kind := models.KindTrip
	entities := []models.Entity{trip}
	if dest != nil {
		path = append(path, dest.ID)
		kind = models.KindDestination
		entities = append(entities, dest)
	}
	if note != nil {
		path = append(path, note.ID)
		kind = models.KindNote
		entities = append(entities, note)
	}
	if err := requireID(entities...); err != nil {
		return "", err
	}
	return m.backendURL + "/" + strings.Join(path, "/") + "?" + string(kind), nil
}

// ValidateURL reports whether rawURL is a share url of the given kind,
// without reading the store. It fails for urls that are not share urls at all.
func (m *ShareManager) ValidateURL(rawURL string, kind models.Kind) (bool, error) {
	link, err := ParseShareURL(rawURL, m.domain)
	if err != nil {
		return false, err
	}
	return link.Kind == kind, nil
}

// ResolveURL fetches the trip, destination or note a share url points at.
// It returns db.ErrNotFound when the document no longer exists.
func (m *ShareManager) ResolveURL(ctx context.Context, rawURL string) (models.Entity, error) {
	link, err := ParseShareURL(rawURL, m.domain)
	if err != nil {
		return nil, err
	}
	return m.Resolve(ctx, link)
}

// Resolve fetches the document of a parsed link.
func (m *ShareManager) Resolve(ctx context.Context, link ShareLink) (models.Entity, error) {
	raw, err := m.client.Get(ctx, link.DocumentPath()...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", link.Kind, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s %s: %w", link.Kind, strings.Join(link.DocumentPath(), "/"), db.ErrNotFound)
	}
	switch link.Kind {
	case models.KindTrip:
		return models.DecodeTrip(link.TripID, raw)
	case models.KindDestination:
		return models.DecodeDestination(link.DestinationID, raw)
	default:
		return models.DecodeNote(link.NoteID, raw)
	}
}

// UploadQRCode rasterizes bits and stores the image at shared/{entityID}.png.
func (m *ShareManager) UploadQRCode(ctx context.Context, entityID string, bits [][]bool) (string, error) {
	if entityID == "" {
		return "", fmt.Errorf("%w: qr code", ErrMissingID)
	}
	if m.encoder == nil {
		return "", errors.New("upload qr code: no raster encoder configured")
	}
	var buf bytes.Buffer
	if err := m.encoder.Encode(&buf, bits); err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}
	u, err := m.client.PutFile(ctx, &buf, db.SharedRoot, entityID+".png")
	if err != nil {
		return "", fmt.Errorf("failed to upload qr code for %s: %w", entityID, err)
	}
	m.logger.Debug("Uploaded qr code", zap.String("id", entityID), zap.String("url", u))
	return u, nil
}

// Domain is the host share urls must point at.
func (m *ShareManager) Domain() string { return m.domain }
