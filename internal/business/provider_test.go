package business

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "business_name": "Glow Studio",
  "business_hours": {"start": "09:00", "end": "17:00"},
  "timezone": "Asia/Kolkata",
  "services": [
    {"name": "Classic Facial", "duration_minutes": 60, "price": 45},
    {"name": "Manicure", "duration_minutes": 30, "price": 20.5}
  ]
}`

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestProviderLoad(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider(writeDoc(t, sampleDoc)).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Glow Studio", cfg.BusinessName)
	assert.Equal(t, Hours{Start: "09:00", End: "17:00"}, cfg.BusinessHours)
	require.Len(t, cfg.Services, 2)
	assert.Equal(t, Service{Name: "Classic Facial", DurationMinutes: 60, Price: 45}, cfg.Services[0])
	assert.Equal(t, 20.5, cfg.Services[1].Price)
	assert.Equal(t, "Asia/Kolkata", cfg.Location(time.UTC).String())
}

func TestProviderLoadIsRepeatable(t *testing.T) {
	t.Parallel()

	p := NewProvider(writeDoc(t, sampleDoc))
	first, err := p.Load(context.Background())
	require.NoError(t, err)
	second, err := p.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Services, second.Services)
}

func TestProviderLoadSeesEdits(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, sampleDoc)
	p := NewProvider(path)
	_, err := p.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{
	  "business_name": "Renamed",
	  "business_hours": {"start": "10:00", "end": "12:00"},
	  "services": []
	}`), 0o600))

	cfg, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", cfg.BusinessName)
	assert.Empty(t, cfg.Services)
}

func TestProviderLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewProvider(filepath.Join(t.TempDir(), "nope.json")).Load(context.Background())
	require.Error(t, err)
}

func TestProviderLoadMalformed(t *testing.T) {
	t.Parallel()

	_, err := NewProvider(writeDoc(t, `{"business_name": `)).Load(context.Background())
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad start", Config{BusinessHours: Hours{Start: "nine", End: "17:00"}}},
		{"end before start", Config{BusinessHours: Hours{Start: "17:00", End: "09:00"}}},
		{"unnamed service", Config{
			BusinessHours: Hours{Start: "09:00", End: "17:00"},
			Services:      []Service{{DurationMinutes: 30}},
		}},
		{"zero duration", Config{
			BusinessHours: Hours{Start: "09:00", End: "17:00"},
			Services:      []Service{{Name: "Cut"}},
		}},
		{"duplicate under case folding", Config{
			BusinessHours: Hours{Start: "09:00", End: "17:00"},
			Services:      []Service{{Name: "Cut", DurationMinutes: 30}, {Name: "cut", DurationMinutes: 45}},
		}},
		{"unknown timezone", Config{
			BusinessHours: Hours{Start: "09:00", End: "17:00"},
			Timezone:      "Mars/Olympus",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestFindServiceIgnoresCase(t *testing.T) {
	t.Parallel()

	cfg := Config{Services: []Service{{Name: "Classic Facial", DurationMinutes: 60}}}

	s, err := cfg.FindService("  classic FACIAL ")
	require.NoError(t, err)
	assert.Equal(t, 60, s.DurationMinutes)

	_, err = cfg.FindService("Haircut")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 9, Minute: 30}, c)
	assert.Equal(t, "09:30", c.String())

	_, err = ParseClock("25:00")
	assert.Error(t, err)
}
