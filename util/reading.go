package util

import "time"

// Reading is one distance measurement taken by the platform. A failed
// measurement carries the failure in Err and an unusable DistanceCm.
type Reading struct {
	DistanceCm float64
	Err        error
	Timestamp  time.Time
}

// NewReading creates a Reading for a successful measurement.
func NewReading(distanceCm float64, time time.Time) *Reading {
	inst := Reading{
		DistanceCm: distanceCm,
		Timestamp:  time,
	}
	return &inst
}

// NewFailedReading creates a Reading for a measurement that did not
// produce a usable distance.
func NewFailedReading(err error, time time.Time) *Reading {
	inst := Reading{
		Err:       err,
		Timestamp: time,
	}
	return &inst
}

// Valid reports whether the reading carries a usable distance.
func (r *Reading) Valid() bool {
	return r.Err == nil
}
