// Package business loads the static business document: name, opening hours
// and the service catalog.
package business

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidConfig is returned when the business document fails validation.
	ErrInvalidConfig = errors.New("invalid business config")
	// ErrServiceNotFound is returned when a service name is not in the catalog.
	ErrServiceNotFound = errors.New("service not found")
)

const clockLayout = "15:04"

// Service is one bookable entry of the catalog.
type Service struct {
	Name            string  `json:"name" mapstructure:"name"`
	DurationMinutes int     `json:"duration_minutes" mapstructure:"duration_minutes"`
	Price           float64 `json:"price" mapstructure:"price"`
}

// Duration returns the service length.
func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// Hours is the daily opening window in business-local wall-clock time.
type Hours struct {
	Start string `json:"start" mapstructure:"start"`
	End   string `json:"end" mapstructure:"end"`
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the instant at this clock time on the given day in loc.
func (c Clock) On(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, c.Hour, c.Minute, 0, 0, loc)
}

// ParseClock parses an HH:MM string.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Bounds parses the opening and closing clocks.
func (h Hours) Bounds() (open, close Clock, err error) {
	if open, err = ParseClock(h.Start); err != nil {
		return Clock{}, Clock{}, err
	}
	if close, err = ParseClock(h.End); err != nil {
		return Clock{}, Clock{}, err
	}
	return open, close, nil
}

// Config is the business document.
type Config struct {
	BusinessName  string    `json:"business_name" mapstructure:"business_name"`
	BusinessHours Hours     `json:"business_hours" mapstructure:"business_hours"`
	Services      []Service `json:"services" mapstructure:"services"`
	// Timezone is an IANA zone name; empty means the process default.
	Timezone string `json:"timezone,omitempty" mapstructure:"timezone"`
}

// Validate checks hours and catalog invariants.
func (c *Config) Validate() error {
	open, close, err := c.BusinessHours.Bounds()
	if err != nil {
		return fmt.Errorf("%w: business_hours: %v", ErrInvalidConfig, err)
	}
	if open.Hour*60+open.Minute >= close.Hour*60+close.Minute {
		return fmt.Errorf("%w: business_hours start %s is not before end %s", ErrInvalidConfig, open, close)
	}

	seen := make(map[string]struct{}, len(c.Services))
	for i, s := range c.Services {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("%w: services[%d] has no name", ErrInvalidConfig, i)
		}
		if s.DurationMinutes <= 0 {
			return fmt.Errorf("%w: service %q must have a positive duration_minutes", ErrInvalidConfig, name)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate service name %q", ErrInvalidConfig, name)
		}
		seen[key] = struct{}{}
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("%w: timezone: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// FindService looks a service up by name, ignoring case and surrounding space.
func (c *Config) FindService(name string) (Service, error) {
	name = strings.TrimSpace(name)
	for _, s := range c.Services {
		if strings.EqualFold(strings.TrimSpace(s.Name), name) {
			return s, nil
		}
	}
	return Service{}, fmt.Errorf("%w: %q", ErrServiceNotFound, name)
}

// Location resolves the business timezone, falling back to def when the
// document does not name one.
func (c *Config) Location(def *time.Location) *time.Location {
	if c.Timezone == "" {
		return def
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return def
	}
	return loc
}
