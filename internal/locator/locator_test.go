package locator

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDirectory(t *testing.T) *Directory {
	t.Helper()
	dir, err := DefaultDirectory()
	require.NoError(t, err)
	return dir
}

func TestDefaultDirectory(t *testing.T) {
	dir := testDirectory(t)
	assert.NotEmpty(t, dir.Pharmacies)
	assert.NotEmpty(t, dir.Demo)
}

func TestLoadDirectory_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no demo", "pharmacies:\n  - name: A\n    lat: 1\n    lng: 1\n"},
		{"missing name", "pharmacies:\n  - lat: 1\n    lng: 1\ndemo:\n  - name: D\n"},
		{"bad latitude", "pharmacies:\n  - name: A\n    lat: 91\n    lng: 1\ndemo:\n  - name: D\n"},
		{"unnamed demo", "demo:\n  - address: somewhere\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDirectory(strings.NewReader(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidDirectory)
		})
	}

	_, err := LoadDirectory(strings.NewReader("pharmacies: ["))
	assert.Error(t, err)

	_, err = LoadDirectoryFile("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestDistanceKm(t *testing.T) {
	nyc := Coordinates{Lat: 40.7128, Lng: -74.0060}
	london := Coordinates{Lat: 51.5074, Lng: -0.1278}

	assert.InDelta(t, 0, DistanceKm(nyc, nyc), 1e-9)
	assert.InDelta(t, 5570, DistanceKm(nyc, london), 10)
	assert.InDelta(t, DistanceKm(nyc, london), DistanceKm(london, nyc), 1e-9)
}

func TestCoordinates_Valid(t *testing.T) {
	assert.True(t, Coordinates{Lat: 0, Lng: 0}.Valid())
	assert.True(t, Coordinates{Lat: -90, Lng: 180}.Valid())
	assert.False(t, Coordinates{Lat: 90.5, Lng: 0}.Valid())
	assert.False(t, Coordinates{Lat: 0, Lng: -181}.Valid())
	assert.False(t, Coordinates{Lat: math.NaN(), Lng: 0}.Valid())
}

func TestLocator_NearbySorted(t *testing.T) {
	loc := New(testDirectory(t), nil, Config{Delay: time.Millisecond, Timeout: time.Second, DefaultLimit: 3})

	// Next to Bridge Street Pharmacy.
	result := loc.Nearby(context.Background(), &Coordinates{Lat: 40.7005, Lng: -73.9900}, 0)

	assert.False(t, result.Fallback)
	assert.Empty(t, result.Reason)
	require.Len(t, result.Pharmacies, 3)
	assert.Equal(t, "Bridge Street Pharmacy", result.Pharmacies[0].Name)
	for i := 1; i < len(result.Pharmacies); i++ {
		assert.LessOrEqual(t, result.Pharmacies[i-1].DistanceKm, result.Pharmacies[i].DistanceKm)
	}

	all := loc.Nearby(context.Background(), &Coordinates{Lat: 40.7005, Lng: -73.9900}, 100)
	assert.Len(t, all.Pharmacies, len(testDirectory(t).Pharmacies))
}

func TestLocator_Fallbacks(t *testing.T) {
	dir := testDirectory(t)

	tests := []struct {
		name   string
		cfg    Config
		ctx    func() (context.Context, context.CancelFunc)
		coords *Coordinates
		reason string
	}{
		{
			name:   "no location",
			cfg:    Config{Delay: time.Millisecond},
			ctx:    func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			reason: ReasonNoLocation,
		},
		{
			name:   "invalid coordinates",
			cfg:    Config{Delay: time.Millisecond},
			ctx:    func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			coords: &Coordinates{Lat: 200, Lng: 0},
			reason: ReasonInvalidCoordinates,
		},
		{
			name:   "timeout",
			cfg:    Config{Delay: time.Second, Timeout: 10 * time.Millisecond},
			ctx:    func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			coords: &Coordinates{Lat: 40.7, Lng: -74},
			reason: ReasonTimeout,
		},
		{
			name: "canceled",
			cfg:  Config{Delay: time.Second, Timeout: time.Minute},
			ctx: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx, cancel
			},
			coords: &Coordinates{Lat: 40.7, Lng: -74},
			reason: ReasonCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.ctx()
			defer cancel()

			result := New(dir, nil, tt.cfg).Nearby(ctx, tt.coords, 0)
			assert.True(t, result.Fallback)
			assert.Equal(t, tt.reason, result.Reason)
			assert.Equal(t, dir.Demo, result.Pharmacies)
		})
	}
}

func TestLocator_FallbackRespectsLimit(t *testing.T) {
	result := New(testDirectory(t), nil, Config{}).Nearby(context.Background(), nil, 1)
	assert.Len(t, result.Pharmacies, 1)
}

func TestLocator_ResultsAreCopies(t *testing.T) {
	dir := testDirectory(t)
	loc := New(dir, nil, Config{Delay: 0})

	result := loc.Nearby(context.Background(), &Coordinates{Lat: 40.7, Lng: -74}, 1)
	require.Len(t, result.Pharmacies, 1)
	result.Pharmacies[0].Name = "changed"

	for _, p := range dir.Pharmacies {
		assert.NotEqual(t, "changed", p.Name)
		assert.Zero(t, p.DistanceKm)
	}
}

func TestNew_Defaults(t *testing.T) {
	cfg := New(testDirectory(t), nil, Config{Delay: -1}).Config()
	assert.Equal(t, time.Duration(0), cfg.Delay)
	assert.Equal(t, DefaultConfig().Timeout, cfg.Timeout)
	assert.Equal(t, DefaultConfig().DefaultLimit, cfg.DefaultLimit)
}
