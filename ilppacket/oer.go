package ilppacket

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// MaxVarOctetLengthBytes bounds how many bytes we'll read to decode a
// var-octet-string's length prefix, guarding against a hostile prefix like
// 0xFF followed by an enormous declared length.
const MaxVarOctetLengthBytes = 8

// timestampLayout is the fixed 17-byte wire encoding of expires_at:
// YYYYMMDDHHMMSSfff, always UTC, millisecond resolution.
const timestampLayout = "20060102150405.000"

const timestampWireLen = 17

// readVarOctetLength reads an OER length prefix: a single byte n (n<128), or
// a byte 0x80|k followed by a k-byte big-endian length.
func readVarOctetLength(r *bytes.Reader) (int, error) {
	lengthByte, err := r.ReadByte()
	if err != nil {
		return 0, wrapParseError(Truncated, "missing length prefix", err)
	}

	if lengthByte < 128 {
		return int(lengthByte), nil
	}

	numLengthBytes := int(lengthByte & 0x7f)
	if numLengthBytes == 0 || numLengthBytes > MaxVarOctetLengthBytes {
		return 0, &ParseError{
			Kind: InvalidLength,
			Message: fmt.Sprintf(
				"long-form length prefix uses %d bytes",
				numLengthBytes,
			),
		}
	}

	lengthBytes := make([]byte, numLengthBytes)
	if _, err := io.ReadFull(r, lengthBytes); err != nil {
		return 0, wrapParseError(
			Truncated, "truncated long-form length prefix", err,
		)
	}

	var length uint64
	for _, b := range lengthBytes {
		length = length<<8 | uint64(b)
	}
	if length > uint64(r.Len()) {
		return 0, &ParseError{
			Kind: InvalidLength,
			Message: fmt.Sprintf(
				"declared length %d exceeds remaining input", length,
			),
		}
	}

	return int(length), nil
}

// readVarOctetString reads an OER length-prefixed octet string.
func readVarOctetString(r *bytes.Reader) ([]byte, error) {
	length, err := readVarOctetLength(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, wrapParseError(Truncated, "truncated octet string", err)
	}

	return buf, nil
}

// writeVarOctetString writes data with its OER length prefix.
func writeVarOctetString(w *bytes.Buffer, data []byte) {
	n := len(data)
	switch {
	case n < 128:
		w.WriteByte(byte(n))

	default:
		lengthBytes := encodeLengthBigEndian(uint64(n))
		w.WriteByte(0x80 | byte(len(lengthBytes)))
		w.Write(lengthBytes)
	}

	w.Write(data)
}

// encodeLengthBigEndian returns the minimal big-endian encoding of n (no
// leading zero byte, except for n==0 which returns a single zero byte).
func encodeLengthBigEndian(n uint64) []byte {
	if n == 0 {
		return []byte{0}
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)

	i := 0
	for i < len(buf)-1 && buf[i] == 0 {
		i++
	}

	return buf[i:]
}

// readUint64 reads a fixed 8-byte big-endian unsigned integer.
func readUint64(r *bytes.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapParseError(Truncated, "truncated uint64", err)
	}

	return binary.BigEndian.Uint64(buf[:]), nil
}

// writeUint64 appends a fixed 8-byte big-endian unsigned integer.
func writeUint64(w *bytes.Buffer, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	w.Write(buf[:])
}

// readFixed reads exactly n bytes.
func readFixed(r *bytes.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, wrapParseError(Truncated, "truncated fixed field", err)
	}

	return buf, nil
}

// readTimestamp reads the 17-byte ASCII "YYYYMMDDHHMMSSfff" wire timestamp.
func readTimestamp(r *bytes.Reader) (time.Time, error) {
	raw, err := readFixed(r, timestampWireLen)
	if err != nil {
		return time.Time{}, err
	}

	// Insert the decimal point the stdlib layout expects: ...SS.fff.
	withDot := string(raw[:14]) + "." + string(raw[14:])

	t, err := time.Parse(timestampLayout, withDot)
	if err != nil {
		return time.Time{}, wrapParseError(
			Truncated, fmt.Sprintf("malformed timestamp %q", raw), err,
		)
	}

	return t.UTC(), nil
}

// writeTimestamp appends t as the 17-byte ASCII wire timestamp.
func writeTimestamp(w *bytes.Buffer, t time.Time) {
	formatted := t.UTC().Format(timestampLayout)
	// formatted is "20060102150405.000"; drop the dot to get the wire form.
	w.WriteString(formatted[:14])
	w.WriteString(formatted[15:])
}
