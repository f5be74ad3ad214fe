// Package project defines the query interface the intelligence core uses to
// interrogate converted sensor-data containers. The core only reads from a
// project; ownership of persisted instances stays with the implementation.
package project

import "time"

// Instance is one converted/processed container for a single sensor dataset,
// keyed in the project by a relative storage path.
type Instance interface {
	// PrimarySerial returns the primary sonar head serial number
	PrimarySerial() int
	// SecondarySerial returns the secondary (starboard) head serial number,
	// zero for single-head systems
	SecondarySerial() int
	// SonarModel returns the lower-case model tag, e.g. "em710"
	SonarModel() string
	// DataStart returns the UTC start time of the contained data
	DataStart() time.Time
	// ImportedFiles returns the file names already imported for a category
	// ("multibeam", "navigation", "svp")
	ImportedFiles(category string) []string
	// NextProcessingStep names the next outstanding processing step, empty
	// when the instance is fully processed
	NextProcessingStep() string
	// CastTimes returns the sound-velocity cast times already known to the
	// instance
	CastTimes() []time.Time
}

// Project maps relative storage paths to loaded instances
type Project interface {
	// Instances returns the destination-key to instance mapping
	Instances() map[string]Instance
	// LookupBySerial finds the instance matching both serial numbers whose
	// data start falls on the same UTC calendar day
	LookupBySerial(primary, secondary int, sameDayAs time.Time) (string, Instance, bool)
	// SetInstance registers or replaces an instance under a destination key,
	// called after an action produces or updates a container
	SetInstance(destination string, inst Instance)
}
