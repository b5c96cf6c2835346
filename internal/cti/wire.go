package cti

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when a buffer ends in the middle of a declared
// fixed field or floating field body.
var ErrTruncated = errors.New("cti: truncated message")

// HeaderSize is the encoded size of an MHDR: two u32 big-endian fields.
const HeaderSize = 8

// Header is the fixed MHDR prefixing every CTI message.
type Header struct {
	Length uint32 // body bytes following the 8-byte header
	Type   MessageType
	Raw    uint32 // original wire value of the message type field
}

// EncodeHeader returns the 8-byte wire form of an MHDR.
func EncodeHeader(bodyLen uint32, t MessageType) []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], bodyLen)
	binary.BigEndian.PutUint32(buf[4:8], uint32(t))
	return buf
}

// DecodeHeader reads an 8-byte MHDR from the front of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrTruncated
	}
	length := binary.BigEndian.Uint32(b[0:4])
	raw := binary.BigEndian.Uint32(b[4:8])
	return Header{Length: length, Type: messageTypeFromRaw(raw), Raw: raw}, nil
}

func putU16(dst []byte, v uint16) { binary.BigEndian.PutUint16(dst, v) }
func putU32(dst []byte, v uint32) { binary.BigEndian.PutUint32(dst, v) }

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	putU16(b[:], v)
	return append(buf, b[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	putU32(b[:], v)
	return append(buf, b[:]...)
}

func appendI32(buf []byte, v int32) []byte { return appendU32(buf, uint32(v)) }

// appendBool writes the CTI two-byte boolean: truth is any nonzero bit.
func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 0, 1)
	}
	return append(buf, 0, 0)
}

func decodeU16(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, ErrTruncated
	}
	return binary.BigEndian.Uint16(b), nil
}

func decodeU32(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, ErrTruncated
	}
	return binary.BigEndian.Uint32(b), nil
}

func decodeI32(b []byte) (int32, error) {
	v, err := decodeU32(b)
	return int32(v), err
}

func decodeBool(b []byte) (bool, error) {
	if len(b) < 2 {
		return false, ErrTruncated
	}
	return (b[0] | b[1]) != 0, nil
}

// encodeCString appends the NUL-terminated UTF-8 encoding of s; the NUL is
// part of the declared length on the wire.
func encodeCString(s string) []byte {
	return append([]byte(s), 0)
}

// decodeCString reads a NUL-terminated string out of a TLV body whose
// declared length already bounds b. The NUL (if present) is consumed.
func decodeCString(b []byte) (string, error) {
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		return string(b[:idx]), nil
	}
	// Tolerate a body with no trailing NUL rather than reject it outright.
	return string(b), nil
}

// appendFloatingField appends a complete tag+length+body TLV to buf.
func appendFloatingField(buf []byte, tag Tag, body []byte) []byte {
	buf = appendU16(buf, uint16(tag))
	buf = appendU16(buf, uint16(len(body)))
	return append(buf, body...)
}

func appendFloatingString(buf []byte, tag Tag, s *string) []byte {
	if s == nil {
		return buf
	}
	return appendFloatingField(buf, tag, encodeCString(*s))
}

func appendFloatingU16(buf []byte, tag Tag, v *uint16) []byte {
	if v == nil {
		return buf
	}
	var body [2]byte
	putU16(body[:], *v)
	return appendFloatingField(buf, tag, body[:])
}

func appendFloatingU32(buf []byte, tag Tag, v *uint32) []byte {
	if v == nil {
		return buf
	}
	var body [4]byte
	putU32(body[:], *v)
	return appendFloatingField(buf, tag, body[:])
}

func appendFloatingI32(buf []byte, tag Tag, v *int32) []byte {
	if v == nil {
		return buf
	}
	return appendFloatingU32(buf, tag, uint32Ptr(uint32(*v)))
}

func uint32Ptr(v uint32) *uint32 { return &v }

// fieldHandler is invoked with a floating field's raw body once its TLV
// header has been consumed. length==0 fields are never dispatched (they
// carry no datum) but their 4-byte header is always consumed first, which
// is what keeps the loop below from spinning forever on a placeholder.
type fieldHandler func(body []byte) error

// walkFloatingFields repeatedly reads tag+length+body triples from body
// and dispatches known tags to the handlers in table. Unknown tags and
// zero-length fields are silently skipped; the 4-byte TLV header is always
// consumed before any length check, so termination is guaranteed regardless
// of what length a field declares.
func walkFloatingFields(body []byte, table map[Tag]fieldHandler) error {
	i := 0
	for i < len(body) {
		if i+4 > len(body) {
			return fmt.Errorf("%w: floating field header", ErrTruncated)
		}
		tag := Tag(binary.BigEndian.Uint16(body[i : i+2]))
		length := int(binary.BigEndian.Uint16(body[i+2 : i+4]))
		i += 4
		if i+length > len(body) {
			return fmt.Errorf("%w: floating field body", ErrTruncated)
		}
		fbody := body[i : i+length]
		i += length
		if length == 0 {
			continue
		}
		if h, ok := table[tag]; ok {
			if err := h(fbody); err != nil {
				return err
			}
		}
	}
	return nil
}
