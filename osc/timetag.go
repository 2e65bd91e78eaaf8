package osc

import (
	"encoding/binary"
	"time"
)

const (
	// Immediately is the special time tag (63 zero bits followed by a one)
	// meaning "process on receipt".
	Immediately Timetag = 1

	secondsFrom1900To1970 = 2208988800
)

// Timetag represents an OSC Time Tag.
// An OSC Time Tag is defined as follows:
// Time tags are represented by a 64 bit fixed point number. The first 32 bits
// specify the number of seconds since midnight on January 1, 1900, and the
// last 32 bits specify fractional parts of a second to a precision of about
// 200 picoseconds. This is the representation used by Internet NTP timestamps.
type Timetag uint64

// NewTimetag returns a time tag from its two wire fields.
func NewTimetag(seconds, fraction uint32) Timetag {
	return Timetag(uint64(seconds)<<32 | uint64(fraction))
}

// NewImmediateTimetag returns the "immediately" time tag.
func NewImmediateTimetag() Timetag {
	return Immediately
}

// NewTimetagFromTime returns a new OSC time tag object from a time.Time.
func NewTimetagFromTime(timeStamp time.Time) Timetag {
	return timeToTimetag(timeStamp)
}

// Time returns the time.
func (t Timetag) Time() time.Time {
	return timetagToTime(t)
}

// FractionalSecond returns the last 32 bits of the OSC time tag. Specifies the
// fractional part of a second.
func (t Timetag) FractionalSecond() uint32 {
	return uint32(t)
}

// SecondsSinceEpoch returns the first 32 bits (the number of seconds since the
// midnight 1900) from the OSC time tag.
func (t Timetag) SecondsSinceEpoch() uint32 {
	return uint32(t >> 32)
}

// TimeTag returns the time tag value
func (t Timetag) TimeTag() uint64 {
	return uint64(t)
}

// IsImmediate reports whether t is the special "immediately" value.
func (t Timetag) IsImmediate() bool {
	return t == Immediately
}

// TypeTag implements the Argument interface.
func (Timetag) TypeTag() TypeTag { return TypeTimeTag }

func (t Timetag) appendArgument(b []byte) []byte {
	return binary.BigEndian.AppendUint64(b, uint64(t))
}

// MarshalBinary converts the OSC time tag to a byte array.
func (t Timetag) MarshalBinary() ([]byte, error) {
	return t.appendArgument(make([]byte, 0, bit64Size)), nil
}

// SetTime sets the value of the OSC time tag.
func (t *Timetag) SetTime(time time.Time) {
	*t = timeToTimetag(time)
}

// ExpiresIn calculates the duration until the time tag is reached. It returns
// zero for the immediate time tag and for time tags in the past.
func (t Timetag) ExpiresIn() time.Duration {
	if t <= Immediately {
		return 0
	}

	d := time.Until(timetagToTime(t))
	if d <= 0 {
		return 0
	}
	return d
}

// timeToTimetag converts the given time to an OSC time tag.
func timeToTimetag(t time.Time) Timetag {
	seconds := uint64(t.Unix()+secondsFrom1900To1970) << 32
	fraction := (uint64(t.Nanosecond()) << 32) / uint64(time.Second)
	return Timetag(seconds | fraction)
}

// timetagToTime converts the given timetag to a time object.
func timetagToTime(t Timetag) time.Time {
	nanos := (uint64(t.FractionalSecond()) * uint64(time.Second)) >> 32
	return time.Unix(int64(t.SecondsSinceEpoch())-secondsFrom1900To1970, int64(nanos))
}
