package osc

import (
	"bytes"
	"testing"
	"time"
)

func TestNewImmediateTimetag(t *testing.T) {
	tt := NewImmediateTimetag()
	if i := tt.ExpiresIn(); i != 0 {
		t.Errorf("NewImmediateTimetag().ExpiresIn() = %d, want 0", i)
	}
	if !tt.IsImmediate() {
		t.Errorf("NewImmediateTimetag() = %d, want %d", tt, Immediately)
	}
}

func TestNewTimetag(t *testing.T) {
	tt := NewTimetag(7, 9)
	if tt.SecondsSinceEpoch() != 7 || tt.FractionalSecond() != 9 {
		t.Errorf("NewTimetag(7, 9) = %d/%d", tt.SecondsSinceEpoch(), tt.FractionalSecond())
	}
	if tt.TimeTag() != 7<<32|9 {
		t.Errorf("TimeTag() = %d, want %d", tt.TimeTag(), uint64(7<<32|9))
	}
}

func TestNewTimetagFromTime(t *testing.T) {
	tt := NewTimetagFromTime(time.Now().Add(time.Second))
	if i := tt.ExpiresIn(); i.Round(100*time.Millisecond) != time.Second {
		t.Errorf("ExpiresIn() = %v, want %v", i, time.Second)
	}
}

func TestTimetag_ExpiresIn(t *testing.T) {
	tests := []struct {
		name string
		t    Timetag
		want time.Duration
	}{
		{"one_second", NewTimetagFromTime(time.Now().Add(time.Second)), time.Second},
		{"immediate", NewImmediateTimetag(), 0},
		{"zero", Timetag(0), 0},
		{"late", NewTimetagFromTime(time.Now().Add(-time.Second)), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.ExpiresIn(); got.Round(100*time.Millisecond) != tt.want {
				t.Errorf("ExpiresIn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimetag_Time(t *testing.T) {
	tests := []struct {
		name string
		t    Timetag
		want time.Time
	}{
		{"unix_epoch", NewTimetag(secondsFrom1900To1970, 0), time.Unix(0, 0)},
		{"half_second", NewTimetag(secondsFrom1900To1970+1, 1<<31), time.Unix(1, 500000000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.Time(); !got.Equal(tt.want) {
				t.Errorf("Time() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimetag_SetTime(t *testing.T) {
	want := time.Date(2024, 5, 6, 7, 8, 9, 250000000, time.UTC)
	var tt Timetag
	tt.SetTime(want)
	if got := tt.Time(); got.Sub(want).Abs() > time.Nanosecond {
		t.Errorf("Time() = %v, want %v", got, want)
	}
	if tt.FractionalSecond() != 1<<30 {
		t.Errorf("FractionalSecond() = %d, want %d", tt.FractionalSecond(), 1<<30)
	}
}

func TestTimetag_MarshalBinary(t *testing.T) {
	got, err := NewTimetag(1, 2).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0, 0, 0, 1, 0, 0, 0, 2}; !bytes.Equal(got, want) {
		t.Errorf("MarshalBinary() = %v, want %v", got, want)
	}
}
