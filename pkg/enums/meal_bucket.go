package enums

import "time"

// MealBucket is a coarse time-of-day label derived from a timestamp. It is a
// contextual signal, never a stored clock value.
type MealBucket string

const (
	MealBucketBreakfast MealBucket = "breakfast"
	MealBucketLunch     MealBucket = "lunch"
	MealBucketDinner    MealBucket = "dinner"
	MealBucketLateNight MealBucket = "late_night"
)

// String implements fmt.Stringer.
func (b MealBucket) String() string {
	return string(b)
}

// MealBucketFor maps a UTC timestamp to its meal bucket:
// 05:00-11:00 breakfast, 11:00-15:00 lunch, 15:00-22:00 dinner, else late night.
func MealBucketFor(t time.Time) MealBucket {
	switch h := t.UTC().Hour(); {
	case h >= 5 && h < 11:
		return MealBucketBreakfast
	case h >= 11 && h < 15:
		return MealBucketLunch
	case h >= 15 && h < 22:
		return MealBucketDinner
	default:
		return MealBucketLateNight
	}
}
