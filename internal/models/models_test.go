package models_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/onlinetravel/internal/models"
)

func day(n int) *int { return &n }

func sampleTrip() *models.Trip {
	return &models.Trip{
		ID:   "t1",
		Name: "Japan",
		Days: 5,
		Destinations: []*models.Destination{
			{
				ID:    "d1",
				Place: models.Place{Name: "Tokyo", PlaceID: "ChIJ1", Latitude: 35.6, Longitude: 139.7},
				Day:   day(1), Time: "09:00", Transportation: models.Plane,
				Notes:  []*models.Note{{ID: "n1", Content: "sushi", Image: "http://img/n1.jpg"}},
				Spents: []*models.Spent{{ID: "s1", Content: "hotel", Spent: 120}, {ID: "s2", Content: "food", Spent: 30}},
			},
			{
				ID:     "d2",
				Place:  models.Place{Name: "Kyoto"},
				Day:    day(3),
				Spents: []*models.Spent{{ID: "s3", Content: "temple", Spent: 10}},
			},
		},
	}
}

// TestTrip_CalculateBudget verifies that the trip budget is the sum of destination
// budgets, and each destination budget the sum of its expenses.
func TestTrip_CalculateBudget(t *testing.T) {
	trip := sampleTrip()

	total := trip.CalculateBudget()

	require.Equal(t, 160, total)
	assert.Equal(t, 150, trip.Destinations[0].Budget)
	assert.Equal(t, 10, trip.Destinations[1].Budget)
	sum := 0
	for _, d := range trip.Destinations {
		sum += d.Budget
	}
	assert.Equal(t, trip.Budget, sum)
}

// TestDestination_CalculateBudget_noSpents verifies that a destination without
// expenses has a zero budget.
func TestDestination_CalculateBudget_noSpents(t *testing.T) {
	d := &models.Destination{Budget: 99}
	assert.Equal(t, 0, d.CalculateBudget())
}

func TestEntity_Attrs_neverCarriesIDOrDerivedFields(t *testing.T) {
	trip := sampleTrip()
	trip.CalculateBudget()

	entities := []models.Entity{trip, trip.Destinations[0], trip.Destinations[0].Notes[0], trip.Destinations[0].Spents[0]}
	for _, e := range entities {
		attrs := e.Attrs()
		for k := range attrs {
			assert.False(t, strings.HasPrefix(k, "_"), "%s attrs has key %q", e.Kind(), k)
		}
		assert.NotContains(t, attrs, "budget", e.Kind())
		assert.NotContains(t, attrs, "destinations", e.Kind())
		assert.NotContains(t, attrs, "notes", e.Kind())
		assert.NotContains(t, attrs, "spents", e.Kind())
	}
}

func TestDestination_Attrs_placeFields(t *testing.T) {
	d := sampleTrip().Destinations[0]

	attrs := d.Attrs()

	assert.Equal(t, "Tokyo", attrs["name"])
	assert.Equal(t, "ChIJ1", attrs["id"])
	assert.Equal(t, 1, attrs["day"])
	assert.Equal(t, "09:00", attrs["time"])
	assert.Equal(t, "plane", attrs["transportation"])
	assert.NotContains(t, attrs, "address")
}

func TestDestination_Attrs_unscheduled(t *testing.T) {
	d := &models.Destination{Place: models.Place{Name: "Osaka"}}

	attrs := d.Attrs()

	assert.NotContains(t, attrs, "day")
	assert.NotContains(t, attrs, "time")
	assert.NotContains(t, attrs, "transportation")
}

// TestTrip_FullData_roundTrip verifies that decoding a full snapshot reproduces
// the same ids, attrs and nested counts.
func TestTrip_FullData_roundTrip(t *testing.T) {
	trip := sampleTrip()

	got, err := models.DecodeFull(trip.FullData(true))
	require.NoError(t, err)

	require.Equal(t, trip.ID, got.ID)
	assert.Equal(t, trip.Attrs(), got.Attrs())
	assert.Equal(t, 160, got.Budget)
	require.Len(t, got.Destinations, 2)
	for i, want := range trip.Destinations {
		d := got.Destinations[i]
		assert.Equal(t, want.ID, d.ID)
		assert.Equal(t, want.Attrs(), d.Attrs())
		require.Len(t, d.Notes, len(want.Notes))
		require.Len(t, d.Spents, len(want.Spents))
		for j, n := range want.Notes {
			assert.Equal(t, n.ID, d.Notes[j].ID)
			assert.Equal(t, n.Attrs(), d.Notes[j].Attrs())
		}
		for j, s := range want.Spents {
			assert.Equal(t, s.ID, d.Spents[j].ID)
			assert.Equal(t, s.Attrs(), d.Spents[j].Attrs())
		}
	}
}

func TestTrip_FullData_shape(t *testing.T) {
	trip := sampleTrip()

	data := trip.FullData(true)

	assert.Equal(t, "t1", data["_id"])
	assert.Equal(t, 160, data["budget"])
	dests, ok := data["destinations"].(map[string]interface{})
	require.True(t, ok)
	require.Contains(t, dests, "d1")
	d1 := dests["d1"].(map[string]interface{})
	assert.NotContains(t, d1, "_id")
	assert.Equal(t, 150, d1["budget"])
	assert.Contains(t, d1["notes"], "n1")
	assert.Contains(t, d1["spents"], "s2")

	withoutID := trip.FullData(false)
	assert.NotContains(t, withoutID, "_id")
}

func TestDecodeTrip_keyOverridesEmbeddedID(t *testing.T) {
	raw := json.RawMessage(`{"_id":"old","name":"Rome","days":2,"active":true,"budget":999}`)

	trip, err := models.DecodeTrip("new", raw)

	require.NoError(t, err)
	assert.Equal(t, "new", trip.ID)
	assert.True(t, trip.Active)
	assert.Equal(t, 0, trip.Budget)
	assert.Empty(t, trip.Destinations)
}

func TestDecodeTrip_malformed(t *testing.T) {
	_, err := models.DecodeTrip("t1", json.RawMessage(`{"days":"many"}`))
	require.Error(t, err)

	_, err = models.DecodeTrip("t1", json.RawMessage(`null`))
	require.Error(t, err)
}

func TestDecodeDestination_childrenSortedByKey(t *testing.T) {
	raw := json.RawMessage(`{"name":"Paris","day":2,"time":"10:00","spents":{"b":{"content":"y","spent":2},"a":{"content":"x","spent":1}}}`)

	d, err := models.DecodeDestination("d9", raw)

	require.NoError(t, err)
	require.Len(t, d.Spents, 2)
	assert.Equal(t, "a", d.Spents[0].ID)
	assert.Equal(t, "b", d.Spents[1].ID)
	assert.Equal(t, 3, d.Budget)
	require.NotNil(t, d.Day)
	assert.Equal(t, 2, *d.Day)
}

func TestCompareDestinations_ordering(t *testing.T) {
	unscheduled := &models.Destination{ID: "u"}
	day1Late := &models.Destination{ID: "a", Day: day(1), Time: "18:00"}
	day1Early := &models.Destination{ID: "b", Day: day(1), Time: "08:00"}
	day1NoTime := &models.Destination{ID: "c", Day: day(1)}
	day2 := &models.Destination{ID: "d", Day: day(2), Time: "09:00"}

	ds := []*models.Destination{day2, nil, day1Late, unscheduled, day1Early, day1NoTime}
	models.SortDestinations(ds)

	ids := make([]string, 0, len(ds))
	for _, d := range ds {
		if d == nil {
			ids = append(ids, "<nil>")
			continue
		}
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"u", "c", "b", "a", "d", "<nil>"}, ids)
	assert.Negative(t, models.CompareDestinations(unscheduled, day2))
}

func TestSortDestinations_stable(t *testing.T) {
	first := &models.Destination{ID: "first", Day: day(1), Time: "09:00"}
	second := &models.Destination{ID: "second", Day: day(1), Time: "09:00"}

	ds := []*models.Destination{first, second}
	models.SortDestinations(ds)

	assert.Equal(t, "first", ds[0].ID)
	assert.Equal(t, "second", ds[1].ID)
}

func TestTrip_SortedDestinations_leavesSourceOrder(t *testing.T) {
	trip := &models.Trip{Destinations: []*models.Destination{
		{ID: "late", Day: day(2)},
		{ID: "early", Day: day(1)},
	}}

	sorted := trip.SortedDestinations()

	assert.Equal(t, "early", sorted[0].ID)
	assert.Equal(t, "late", trip.Destinations[0].ID)
}

func TestTrip_Validate(t *testing.T) {
	require.NoError(t, (&models.Trip{Name: "Lisbon", Days: 1}).Validate())
	require.ErrorIs(t, (&models.Trip{Name: " ", Days: 1}).Validate(), models.ErrValidation)
	require.ErrorIs(t, (&models.Trip{Name: "Lisbon"}).Validate(), models.ErrValidation)
}

func TestDestination_Validate(t *testing.T) {
	require.NoError(t, (&models.Destination{Day: day(1), Time: "23:59", Transportation: models.Walk}).Validate())
	require.ErrorIs(t, (&models.Destination{Time: "25:00"}).Validate(), models.ErrValidation)
	require.ErrorIs(t, (&models.Destination{Day: day(0)}).Validate(), models.ErrValidation)
	require.ErrorIs(t, (&models.Destination{Transportation: "rocket"}).Validate(), models.ErrValidation)
}

func TestSpent_Validate(t *testing.T) {
	require.NoError(t, (&models.Spent{Content: "taxi", Spent: 0}).Validate())
	require.ErrorIs(t, (&models.Spent{Content: "taxi", Spent: -1}).Validate(), models.ErrValidation)
	require.ErrorIs(t, (&models.Spent{Spent: 5}).Validate(), models.ErrValidation)
}

func TestTrip_RemoveDestination(t *testing.T) {
	trip := sampleTrip()

	assert.True(t, trip.RemoveDestination("d1"))
	assert.False(t, trip.RemoveDestination("d1"))
	require.Len(t, trip.Destinations, 1)
	assert.Nil(t, trip.FindDestination("d1"))
	assert.NotNil(t, trip.FindDestination("d2"))
}

func TestPlaceFromPicker(t *testing.T) {
	p, err := models.PlaceFromPicker(map[string]interface{}{
		"name":        "Louvre",
		"id":          "ChIJLouvre",
		"lat_lng":     models.LatLng{Latitude: 48.86, Longitude: 2.33},
		"place_types": []interface{}{1, 2.0},
		"price_level": 3,
		"rating":      4.5,
		"unknown":     "ignored",
	})

	require.NoError(t, err)
	assert.Equal(t, "Louvre", p.Name)
	assert.Equal(t, "ChIJLouvre", p.PlaceID)
	assert.InDelta(t, 48.86, p.Latitude, 1e-9)
	assert.InDelta(t, 2.33, p.Longitude, 1e-9)
	assert.Equal(t, []int{1, 2}, p.PlaceTypes)
	assert.Equal(t, 3, p.PriceLevel)
}

func TestPlaceFromPicker_badTypes(t *testing.T) {
	p, err := models.PlaceFromPicker(map[string]interface{}{
		"name":    "Somewhere",
		"rating":  "five",
		"lat_lng": "north",
	})

	require.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, "Somewhere", p.Name)
}

func TestTransportation_Valid(t *testing.T) {
	for _, tr := range models.Transportations {
		assert.True(t, tr.Valid(), tr)
	}
	assert.False(t, models.Transportation("teleport").Valid())
}
