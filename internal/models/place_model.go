package models

import "fmt"

// Place is the flat value bag returned by an external place lookup.
// PlaceID is the provider's id ("id" on the wire), not the entity id.
type Place struct {
	Address      string  `json:"address,omitempty"`
	Attributions string  `json:"attributions,omitempty"`
	PlaceID      string  `json:"id,omitempty"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	Name         string  `json:"name,omitempty"`
	PhoneNumber  string  `json:"phone_number,omitempty"`
	PlaceTypes   []int   `json:"place_types,omitempty"`
	PriceLevel   int     `json:"price_level,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	WebsiteURI   string  `json:"website_uri,omitempty"`
}

// placeAttrs writes the non-empty place fields into attrs.
func (p Place) placeAttrs(attrs map[string]interface{}) {
	if p.Address != "" {
		attrs["address"] = p.Address
	}
	if p.Attributions != "" {
		attrs["attributions"] = p.Attributions
	}
	if p.PlaceID != "" {
		attrs["id"] = p.PlaceID
	}
	if p.Latitude != 0 || p.Longitude != 0 {
		attrs["latitude"] = p.Latitude
		attrs["longitude"] = p.Longitude
	}
	if p.Name != "" {
		attrs["name"] = p.Name
	}
	if p.PhoneNumber != "" {
		attrs["phone_number"] = p.PhoneNumber
	}
	if len(p.PlaceTypes) > 0 {
		attrs["place_types"] = p.PlaceTypes
	}
	if p.PriceLevel != 0 {
		attrs["price_level"] = p.PriceLevel
	}
	if p.Rating != 0 {
		attrs["rating"] = p.Rating
	}
	if p.WebsiteURI != "" {
		attrs["website_uri"] = p.WebsiteURI
	}
}

// LatLng is the coordinate pair a place picker reports.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// PlaceFromPicker builds a Place from the loosely typed mapping a place picker returns.
// Unknown keys are ignored; a "lat_lng" entry is split into latitude and longitude.
// Values of the wrong type are reported, the remaining fields are still filled.
func PlaceFromPicker(data map[string]interface{}) (Place, error) {
	var (
		p    Place
		errs []string
	)
	str := func(key string, dst *string) {
		v, ok := data[key]
		if !ok || v == nil {
			return
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		*dst = s
	}
	num := func(key string, dst *float64) {
		v, ok := data[key]
		if !ok || v == nil {
			return
		}
		switch n := v.(type) {
		case float64:
			*dst = n
		case float32:
			*dst = float64(n)
		case int:
			*dst = float64(n)
		case int64:
			*dst = float64(n)
		default:
			errs = append(errs, key)
		}
	}

	str("address", &p.Address)
	str("attributions", &p.Attributions)
	str("id", &p.PlaceID)
	str("name", &p.Name)
	str("phone_number", &p.PhoneNumber)
	str("website_uri", &p.WebsiteURI)
	num("latitude", &p.Latitude)
	num("longitude", &p.Longitude)
	num("rating", &p.Rating)

	var level float64
	num("price_level", &level)
	p.PriceLevel = int(level)

	switch ll := data["lat_lng"].(type) {
	case LatLng:
		p.Latitude, p.Longitude = ll.Latitude, ll.Longitude
	case *LatLng:
		if ll != nil {
			p.Latitude, p.Longitude = ll.Latitude, ll.Longitude
		}
	case []float64:
		if len(ll) == 2 {
			p.Latitude, p.Longitude = ll[0], ll[1]
		} else {
			errs = append(errs, "lat_lng")
		}
	case nil:
	default:
		errs = append(errs, "lat_lng")
	}

	switch types := data["place_types"].(type) {
	case []int:
		p.PlaceTypes = append([]int(nil), types...)
	case []interface{}:
		for _, t := range types {
			switch n := t.(type) {
			case int:
				p.PlaceTypes = append(p.PlaceTypes, n)
			case float64:
				p.PlaceTypes = append(p.PlaceTypes, int(n))
			default:
				errs = append(errs, "place_types")
			}
		}
	case nil:
	default:
		errs = append(errs, "place_types")
	}

	if len(errs) > 0 {
		return p, fmt.Errorf("%w: unexpected place field types %v", ErrValidation, errs)
	}
	return p, nil
}
