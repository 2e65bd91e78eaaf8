// Package osc encodes, decodes and transports Open Sound Control packets.
//
// This implementation is based on the Open Sound Control 1.0 Specification (http://opensoundcontrol.org/spec-1_0.html).
//
// Open Sound Control (OSC) is an open, transport-independent, message-based protocol developed for communication among computers,
// sound synthesizers, and other multimedia devices.
//
// # Features
//
// - Supports OSC messages with the following TypeTags:
//
//	's' (String)
//	'i' (Int32)
//	'f' (Float32)
//	'b' (Blob)
//	't' (Timetag)
//	'h' (Int64)
//	'd' (Float64)
//	'T' (Bool true)
//	'F' (Bool false)
//	'N' (Nil)
//
// - Supports OSC bundles, including nested bundles and Timetags.
//
// - Datagram transport over UDP, SLIP framed streams over TCP (see Deframer)
// and binary WebSocket messages.
//
// - OSC Address pattern matching and dispatching.
//
// # Packets
//
// The unit of transmission of OSC is an OSC Packet. Any application that sends OSC Packets is an OSC Client;
// any application that receives OSC Packets is an OSC Server.
//
// An OSC packet consists of its contents, a contiguous block of binary data.
// The size of an OSC packet is always 32-bit aligned.
//
// OSC packets come in two flavors:
//
// OSC Messages: An OSC message consists of an OSC address pattern and zero or more OSC arguments.
//
// OSC Bundles: An OSC Bundle consists of an OSC Timetag, followed by zero or more OSC bundle elements.
// Each bundle element can be another OSC bundle or OSC message.
//
// Decoding is strict: malformed input yields a *DecodeError wrapping one of
// ErrUnrecognizedPacket, ErrTruncated, ErrInvalidEncoding,
// ErrUnsupportedTypeTag or ErrLimitExceeded, never a partial packet.
//
// # Usage
//
// OSC client example:
//
//	client, err := osc.Dial("localhost:8765")
//	if err != nil {
//		return err
//	}
//	msg, err := osc.NewMessage("/osc/address", osc.Int32(111), osc.Bool(true), osc.String("hello"))
//	if err != nil {
//		return err
//	}
//	err = client.Send(msg)
//
// OSC server example:
//
//	d := osc.NewDispatcher()
//	d.AddMethodFunc("/message/address", func(msg *osc.Message) {
//		fmt.Println(msg)
//	})
//
//	server := &osc.Server{
//		Addr:       "127.0.0.1:8765",
//		Dispatcher: d,
//	}
//	server.ListenAndServe(ctx)
package osc
