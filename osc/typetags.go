package osc

type TypeTag byte

const (
	TypeString  TypeTag = 's'
	TypeInt32   TypeTag = 'i'
	TypeInt64   TypeTag = 'h'
	TypeFloat32 TypeTag = 'f'
	TypeFloat64 TypeTag = 'd'
	TypeBlob    TypeTag = 'b'
	TypeTimeTag TypeTag = 't'
	TypeNil     TypeTag = 'N'
	TypeTrue    TypeTag = 'T'
	TypeFalse   TypeTag = 'F'
	TypeInvalid TypeTag = 0
)

// Supported reports whether arguments with this tag can be decoded.
func (t TypeTag) Supported() bool {
	switch t {
	case TypeString, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64,
		TypeBlob, TypeTimeTag, TypeNil, TypeTrue, TypeFalse:
		return true
	}
	return false
}

func (t TypeTag) String() string { return string(rune(t)) }

// GetTypeTag returns the OSC type tag string for the given arguments,
// including the leading ','.
func GetTypeTag(args []Argument) string {
	tt := make([]byte, 1, len(args)+1)
	tt[0] = ','
	for _, a := range args {
		if a == nil {
			tt = append(tt, byte(TypeInvalid))
			continue
		}
		tt = append(tt, byte(a.TypeTag()))
	}
	return string(tt)
}
