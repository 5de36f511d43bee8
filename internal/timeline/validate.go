package timeline

import (
	"strings"
)

// ValidationResult lists every rule a value breaks. Valid is true when
// Errors is empty.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func result(errs []string) ValidationResult {
	if errs == nil {
		errs = []string{}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateClip checks time bounds and the ranges of volume, opacity and
// speed. A zero Duration counts as unset.
func ValidateClip(c Clip) ValidationResult {
	var errs []string

	if c.StartTime < 0 {
		errs = append(errs, "start time must be zero or greater")
	}
	if c.EndTime <= 0 {
		errs = append(errs, "end time must be greater than zero")
	}
	if c.StartTime >= c.EndTime {
		errs = append(errs, "end time must be greater than start time")
	}
	if c.Duration < 0 {
		errs = append(errs, "duration must be greater than zero")
	}
	if c.Volume < 0 || c.Volume > MaxVolume {
		errs = append(errs, "volume must be between 0 and 2")
	}
	if c.Opacity < 0 || c.Opacity > 1 {
		errs = append(errs, "opacity must be between 0 and 1")
	}
	if c.Speed <= 0 || c.Speed > MaxSpeed {
		errs = append(errs, "speed must be greater than 0 and at most 4")
	}

	return result(errs)
}

// ValidateTrack requires a name and validates each clip on the track.
func ValidateTrack(tr Track) ValidationResult {
	var errs []string

	if strings.TrimSpace(tr.Name) == "" {
		errs = append(errs, "track name is required")
	}
	for _, c := range tr.Clips {
		errs = append(errs, ValidateClip(c).Errors...)
	}

	return result(errs)
}

// ValidateTimeline requires a name and validates each track. Operations never
// call it; callers run it before saving or exporting.
func ValidateTimeline(t *Timeline) ValidationResult {
	var errs []string

	if strings.TrimSpace(t.Name()) == "" {
		errs = append(errs, "timeline name is required")
	}
	for _, tr := range t.Tracks() {
		errs = append(errs, ValidateTrack(tr).Errors...)
	}

	return result(errs)
}
