package osc

import (
	"encoding/binary"
	"net"
	"sync"
)

const zero = string(byte(0))

// nulls returns a string of `i` nulls.
func nulls(i int) string {
	s := ""
	for j := 0; j < i; j++ {
		s += zero
	}
	return s
}

// be32 returns the big-endian encoding of v.
func be32(v uint32) string {
	return string(binary.BigEndian.AppendUint32(nil, v))
}

// be64 returns the big-endian encoding of v.
func be64(v uint64) string {
	return string(binary.BigEndian.AppendUint64(nil, v))
}

type testCase struct {
	name string
	obj  Packet
	raw  []byte
}

var messageTestCases = []testCase{
	{
		"no_arguments",
		MustMessage("/a"),
		[]byte("/a" + nulls(2) + "," + nulls(3)),
	},
	{
		"int32",
		MustMessage("/address", Int32(1)),
		[]byte("/address" + nulls(4) + ",i" + nulls(2) + be32(1)),
	},
	{
		"negative_int32",
		MustMessage("/n", Int32(-2)),
		[]byte("/n" + nulls(2) + ",i" + nulls(2) + "\xff\xff\xff\xfe"),
	},
	{
		"string",
		MustMessage("/s", String("hello")),
		[]byte("/s" + nulls(2) + ",s" + nulls(2) + "hello" + nulls(3)),
	},
	{
		"string_of_four",
		MustMessage("/s", String("four")),
		[]byte("/s" + nulls(2) + ",s" + nulls(2) + "four" + nulls(4)),
	},
	{
		"blob",
		MustMessage("/b", Blob{1, 2, 3}),
		[]byte("/b" + nulls(2) + ",b" + nulls(2) + be32(3) + "\x01\x02\x03" + nulls(1)),
	},
	{
		"empty_blob",
		MustMessage("/b", Blob{}),
		[]byte("/b" + nulls(2) + ",b" + nulls(2) + be32(0)),
	},
	{
		"float32",
		MustMessage("/f", Float32(1)),
		[]byte("/f" + nulls(2) + ",f" + nulls(2) + "\x3f\x80\x00\x00"),
	},
	{
		"int64",
		MustMessage("/h", Int64(-1)),
		[]byte("/h" + nulls(2) + ",h" + nulls(2) + "\xff\xff\xff\xff\xff\xff\xff\xff"),
	},
	{
		"float64",
		MustMessage("/d", Float64(1)),
		[]byte("/d" + nulls(2) + ",d" + nulls(2) + "\x3f\xf0" + nulls(6)),
	},
	{
		"timetag",
		MustMessage("/t", NewTimetag(1, 2)),
		[]byte("/t" + nulls(2) + ",t" + nulls(2) + be32(1) + be32(2)),
	},
	{
		"bools_and_nil",
		MustMessage("/b", Bool(true), Bool(false), Nil{}),
		[]byte("/b" + nulls(2) + ",TFN" + nulls(4)),
	},
	{
		"mixed",
		MustMessage("/mix", Int32(5), String("ab"), Float32(0.5)),
		[]byte("/mix" + nulls(4) + ",isf" + nulls(4) + be32(5) + "ab" + nulls(2) + "\x3f\x00\x00\x00"),
	},
}

var bundleTestCases = []testCase{
	{
		"empty",
		&Bundle{Timetag: NewTimetag(0, 1)},
		[]byte("#bundle" + zero + be64(1)),
	},
	{
		"one_message",
		NewBundle(MustMessage("/a")),
		[]byte("#bundle" + zero + be64(1) +
			be32(8) + "/a" + nulls(2) + "," + nulls(3)),
	},
	{
		"two_messages",
		&Bundle{Timetag: NewTimetag(3, 4), Elements: []Packet{
			MustMessage("/a"),
			MustMessage("/address", Int32(1)),
		}},
		[]byte("#bundle" + zero + be32(3) + be32(4) +
			be32(8) + "/a" + nulls(2) + "," + nulls(3) +
			be32(20) + "/address" + nulls(4) + ",i" + nulls(2) + be32(1)),
	},
	{
		"nested",
		NewBundle(
			MustMessage("/a"),
			&Bundle{Timetag: NewTimetag(0, 2), Elements: []Packet{MustMessage("/b", Int32(1))}},
		),
		[]byte("#bundle" + zero + be64(1) +
			be32(8) + "/a" + nulls(2) + "," + nulls(3) +
			be32(32) + "#bundle" + zero + be64(2) +
			be32(12) + "/b" + nulls(2) + ",i" + nulls(2) + be32(1)),
	},
}

// elementBoundaries returns the offsets at which the elements of the
// top-level bundle raw end. A bundle cut at one of them is itself valid.
func elementBoundaries(raw []byte) map[int]bool {
	b := map[int]bool{16: true}
	for off := 16; off+4 <= len(raw); {
		off += 4 + int(binary.BigEndian.Uint32(raw[off:]))
		b[off] = true
	}
	return b
}

// nestedBundle returns the encoding of depth empty bundles nested inside one
// another.
func nestedBundle(depth int) []byte {
	raw := []byte("#bundle" + zero + be64(1))
	for i := 1; i < depth; i++ {
		outer := []byte("#bundle" + zero + be64(1) + be32(uint32(len(raw))))
		raw = append(outer, raw...)
	}
	return raw
}

// testReply records the packets replied through it.
type testReply struct {
	mu      sync.Mutex
	addr    net.Addr
	replies []Packet
}

func (r *testReply) Reply(p Packet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, p)
	return nil
}

func (r *testReply) RemoteAddr() net.Addr { return r.addr }

// collector is a Destination that records the packets it takes.
type collector struct {
	mu      sync.Mutex
	packets []Packet
}

func (c *collector) TakePacket(p Packet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packets = append(c.packets, p)
}

func (c *collector) get() []Packet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Packet(nil), c.packets...)
}
