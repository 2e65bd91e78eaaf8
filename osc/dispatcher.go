package osc

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Method is an interface for OSC Methods.
type Method interface {
	HandleMessage(msg *Message)
}

// MethodFunc implements the Method interface. Type definition for an OSC Method function.
type MethodFunc func(msg *Message)

// HandleMessage calls itself with the given OSC Message. Implements the Method interface.
func (f MethodFunc) HandleMessage(msg *Message) {
	f(msg)
}

// Dispatcher handles the dispatching of received OSC Packets to Methods for their given Address.
type Dispatcher struct {
	Logger *zerolog.Logger

	mu      sync.RWMutex
	methods map[string]Method
}

// Verify that Dispatcher is a Destination.
var _ Destination = (*Dispatcher)(nil)

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{methods: make(map[string]Method)}
}

// AddMethod adds a new OSC Method for the given OSC Address.
func (d *Dispatcher) AddMethod(addr string, method Method) error {
	if err := validateAddress(addr); err != nil {
		return fmt.Errorf("AddMethod: %w", err)
	}
	if strings.ContainsAny(addr, "*?,[]{}# ") {
		return fmt.Errorf("AddMethod: OSC Method may not contain any characters in \"*?,[]{}# \"")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.methods == nil {
		d.methods = make(map[string]Method)
	}
	if _, ok := d.methods[addr]; ok {
		return fmt.Errorf("AddMethod: OSC Method %q exists already", addr)
	}

	d.methods[addr] = method
	return nil
}

// AddMethodFunc allows you to just pass a MethodFunc.
func (d *Dispatcher) AddMethodFunc(addr string, method MethodFunc) error {
	return d.AddMethod(addr, method)
}

// RemoveMethod removes the method registered for addr, if any.
func (d *Dispatcher) RemoveMethod(addr string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.methods, addr)
}

// TakePacket implements the Destination interface.
func (d *Dispatcher) TakePacket(p Packet) {
	d.Dispatch(p)
}

// Dispatch dispatches OSC Packets. Messages are handled synchronously;
// bundles are handled once their time tag is due, their elements in order.
func (d *Dispatcher) Dispatch(packet Packet) {
	switch p := packet.(type) {
	case *Message:
		d.dispatchMessage(p)

	case *Bundle:
		wait := p.Timetag.ExpiresIn()
		if wait == 0 {
			d.dispatchBundle(p)
			return
		}
		time.AfterFunc(wait, func() {
			defer d.recoverer(p)
			d.dispatchBundle(p)
		})
	}
}

func (d *Dispatcher) dispatchBundle(b *Bundle) {
	for _, elem := range b.Elements {
		switch e := elem.(type) {
		case *Message:
			d.dispatchMessage(e)
		case *Bundle:
			// Nested bundles run no earlier than their own time tag.
			d.Dispatch(e)
		}
	}
}

func (d *Dispatcher) dispatchMessage(msg *Message) {
	r, err := getRegEx(msg.Address())
	if err != nil {
		loggerOrDefault(d.Logger).Debug().Err(err).Str("address", msg.Address()).Msg("osc: invalid address pattern")
		return
	}

	d.mu.RLock()
	var matched []Method
	for addr, method := range d.methods {
		if r.MatchString(addr) {
			matched = append(matched, method)
		}
	}
	d.mu.RUnlock()

	for _, method := range matched {
		d.call(method, msg)
	}
}

func (d *Dispatcher) call(method Method, msg *Message) {
	defer d.recoverer(msg)
	method.HandleMessage(msg)
}

// recoverer logs a panic raised by a Method instead of crashing the server.
func (d *Dispatcher) recoverer(p Packet) {
	if err := recover(); err != nil {
		buf := make([]byte, 4096)
		buf = buf[:runtime.Stack(buf, false)]
		loggerOrDefault(d.Logger).Error().
			Str("remote", remoteString(p.ReplyTo())).
			Interface("panic", err).
			Bytes("stack", buf).
			Msg("osc: panic handling packet")
	}
}
