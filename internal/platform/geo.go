package platform

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/example/onlinetravel/internal/models"
)

// Navigation modes understood by google.navigation uris.
const (
	ModeDriving   = "d"
	ModeWalking   = "w"
	ModeBicycling = "b"
)

// GeoURI builds a uri that shows a map around lat,lng searching for query. A
// zero zoom leaves the zoom level to the map application.
func GeoURI(lat, lng float64, query string, zoom int) string {
	z := ""
	if zoom > 0 {
		z = strconv.Itoa(zoom)
	}
	return fmt.Sprintf("geo:%s,%s?q=%s&z=%s", formatCoord(lat), formatCoord(lng), url.PathEscape(query), z)
}

// NavigationURI builds a turn-by-turn uri to a coordinate.
func NavigationURI(lat, lng float64, mode string) string {
	return fmt.Sprintf("google.navigation:q=%s,%s&mode=%s", formatCoord(lat), formatCoord(lng), navMode(mode))
}

// NavigationURIFor builds a turn-by-turn uri to an address.
func NavigationURIFor(address, mode string) string {
	return fmt.Sprintf("google.navigation:q=%s&mode=%s", url.PathEscape(address), navMode(mode))
}

// PlaceNavigationURI navigates to a place by coordinate, or by address when the
// place has no position.
func PlaceNavigationURI(p models.Place, mode string) string {
	if p.Latitude == 0 && p.Longitude == 0 && p.Address != "" {
		return NavigationURIFor(p.Address, mode)
	}
	return NavigationURI(p.Latitude, p.Longitude, mode)
}

// Center averages the positions of the destinations. ok is false for an empty list.
func Center(dests []*models.Destination) (lat, lng float64, ok bool) {
	n := 0
	for _, d := range dests {
		if d == nil {
			continue
		}
		lat += d.Latitude
		lng += d.Longitude
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return lat / float64(n), lng / float64(n), true
}

func navMode(mode string) string {
	if mode == "" {
		return ModeDriving
	}
	return mode
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
