package osc

import (
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MaxPacketSize is the largest datagram the server reads.
const MaxPacketSize = 65535

////
// Utility and helper functions
////
var bPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, MaxPacketSize)
		return &b
	},
}

// matchAddress reports whether the OSC address pattern matches addr exactly.
func matchAddress(pattern, addr string) bool {
	if pattern == addr {
		return true
	}
	r, err := getRegEx(pattern)
	if err != nil {
		return false
	}
	return r.MatchString(addr)
}

// getRegEx compiles and returns a regular expression object for the given
// address `pattern`. '*' and '?' never match across a '/'.
func getRegEx(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteByte('^')

	var inBraces, inBrackets, classStart bool
	for _, c := range pattern {
		if classStart {
			classStart = false
			if c == '!' {
				sb.WriteByte('^')
				continue
			}
		}
		switch {
		case c == '*' && !inBrackets:
			sb.WriteString("[^/]*")
		case c == '?' && !inBrackets:
			sb.WriteString("[^/]")
		case c == '{' && !inBrackets && !inBraces:
			inBraces = true
			sb.WriteString("(?:")
		case c == '}' && inBraces:
			inBraces = false
			sb.WriteByte(')')
		case c == ',' && inBraces:
			sb.WriteByte('|')
		case c == '[' && !inBrackets:
			inBrackets, classStart = true, true
			sb.WriteByte('[')
		case c == ']' && inBrackets:
			inBrackets = false
			sb.WriteByte(']')
		case c == '-' && inBrackets:
			sb.WriteByte('-')
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	sb.WriteByte('$')
	return regexp.Compile(sb.String())
}

// loggerOrDefault returns l, or the global zerolog logger when l is nil.
func loggerOrDefault(l *zerolog.Logger) *zerolog.Logger {
	if l != nil {
		return l
	}
	return &log.Logger
}

func remoteString(rc ReplyChannel) string {
	if rc == nil || rc.RemoteAddr() == nil {
		return ""
	}
	return rc.RemoteAddr().String()
}
