// Package warmup keeps the environment report cache warm for frequently
// inspected locations.
package warmup

import (
	"sort"
	"time"

	"github.com/envicheck/envicheck/internal/geo"
)

// Target is a named group of points refreshed together.
type Target struct {
	Name string

	// Points are typically city centres.
	Points []geo.Coordinate

	// Priority determines refresh order (lower = higher priority).
	Priority int
}

// Config holds configuration for the warm-up job.
type Config struct {
	// Targets are the locations to refresh. If empty, uses DefaultTargets.
	Targets []Target

	// Concurrency is the number of concurrent refreshes.
	// Default: 3
	Concurrency int

	// Timeout bounds each point's refresh.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultConfig returns the default warm-up configuration.
func DefaultConfig() Config {
	return Config{
		Targets:     DefaultTargets(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// DefaultTargets returns a handful of large cities across continents.
func DefaultTargets() []Target {
	return []Target{
		{Name: "London", Priority: 1, Points: []geo.Coordinate{{Lat: 51.5074, Lon: -0.1278}}},
		{Name: "Paris", Priority: 1, Points: []geo.Coordinate{{Lat: 48.8566, Lon: 2.3522}}},
		{Name: "New York", Priority: 1, Points: []geo.Coordinate{{Lat: 40.7128, Lon: -74.0060}}},
		{Name: "Tokyo", Priority: 1, Points: []geo.Coordinate{{Lat: 35.6762, Lon: 139.6503}}},
		{Name: "Delhi", Priority: 2, Points: []geo.Coordinate{{Lat: 28.6139, Lon: 77.2090}}},
		{Name: "Beijing", Priority: 2, Points: []geo.Coordinate{{Lat: 39.9042, Lon: 116.4074}}},
		{Name: "São Paulo", Priority: 2, Points: []geo.Coordinate{{Lat: -23.5505, Lon: -46.6333}}},
		{Name: "Sydney", Priority: 3, Points: []geo.Coordinate{{Lat: -33.8688, Lon: 151.2093}}},
		{Name: "Cairo", Priority: 3, Points: []geo.Coordinate{{Lat: 30.0444, Lon: 31.2357}}},
		{Name: "Mexico City", Priority: 3, Points: []geo.Coordinate{{Lat: 19.4326, Lon: -99.1332}}},
	}
}

// PointsTarget wraps configured points into a single target.
func PointsTarget(points []geo.Coordinate) []Target {
	if len(points) == 0 {
		return nil
	}
	return []Target{{Name: "configured", Priority: 1, Points: points}}
}

// AllPoints returns all points from all targets, ordered by priority.
func (c Config) AllPoints() []geo.Coordinate {
	targets := make([]Target, len(c.Targets))
	copy(targets, c.Targets)
	sort.SliceStable(targets, func(i, j int) bool { return targets[i].Priority < targets[j].Priority })

	var points []geo.Coordinate
	for _, target := range targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to refresh.
func (c Config) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
