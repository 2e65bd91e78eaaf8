package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/osckit/go-osc/osc"
)

// parseArguments parses command line arguments written as type:value.
func parseArguments(raw []string) ([]osc.Argument, error) {
	args := make([]osc.Argument, 0, len(raw))
	for _, r := range raw {
		a, err := parseArgument(r)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

// parseArgument parses one argument. The type is an OSC type tag: i, h, f,
// d, s, b (hex), t (now, immediate, sec.frac or a raw 64-bit value), or a
// bare T, F or N.
func parseArgument(raw string) (osc.Argument, error) {
	switch raw {
	case "T":
		return osc.Bool(true), nil
	case "F":
		return osc.Bool(false), nil
	case "N":
		return osc.Nil{}, nil
	}

	tag, value, ok := strings.Cut(raw, ":")
	if !ok || len(tag) != 1 {
		return nil, fmt.Errorf("argument %q: want type:value", raw)
	}

	switch osc.TypeTag(tag[0]) {
	case osc.TypeInt32:
		v, err := strconv.ParseInt(value, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", raw, err)
		}
		return osc.Int32(v), nil
	case osc.TypeInt64:
		v, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", raw, err)
		}
		return osc.Int64(v), nil
	case osc.TypeFloat32:
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", raw, err)
		}
		return osc.Float32(v), nil
	case osc.TypeFloat64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", raw, err)
		}
		return osc.Float64(v), nil
	case osc.TypeString:
		return osc.String(value), nil
	case osc.TypeBlob:
		v, err := hex.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", raw, err)
		}
		return osc.Blob(v), nil
	case osc.TypeTimeTag:
		t, err := parseTimetag(value)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", raw, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("argument %q: unknown type %q", raw, tag)
	}
}

func parseTimetag(value string) (osc.Timetag, error) {
	switch value {
	case "now":
		return osc.NewTimetagFromTime(time.Now()), nil
	case "immediate", "":
		return osc.Immediately, nil
	}

	if sec, frac, ok := strings.Cut(value, "."); ok {
		s, err := strconv.ParseUint(sec, 10, 32)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseUint(frac, 10, 32)
		if err != nil {
			return 0, err
		}
		return osc.NewTimetag(uint32(s), uint32(f)), nil
	}

	v, err := strconv.ParseUint(value, 0, 64)
	if err != nil {
		return 0, err
	}
	return osc.Timetag(v), nil
}
