package model

import (
	"flash-alliance/internal/apperr"
	"math"
	"time"
)

// MaxDurationSeconds is the longest span a time.Duration can hold, in seconds.
const MaxDurationSeconds = math.MaxInt64 / int64(time.Second)

var (
	ErrNonPositiveSeconds = apperr.New(apperr.KindValidation, "seconds must be positive")
	ErrSecondsOverflow    = apperr.New(apperr.KindValidation, "seconds out of range")
)

// Seconds converts a whole number of seconds to a duration without wrapping.
func Seconds(seconds int64) (time.Duration, error) {
	if seconds <= 0 {
		return 0, ErrNonPositiveSeconds
	}
	if seconds > MaxDurationSeconds {
		return 0, ErrSecondsOverflow
	}
	return time.Duration(seconds) * time.Second, nil
}
