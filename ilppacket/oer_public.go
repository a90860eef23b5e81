package ilppacket

import "bytes"

// NewOerReader wraps raw for use with the exported Read* helpers below.
// Sub-protocols whose payload travels inside a Prepare/Fulfill's opaque
// data field (ILDCP, Echo) decode that payload with these rather than
// reaching into this package's internals.
func NewOerReader(raw []byte) *bytes.Reader {
	return bytes.NewReader(raw)
}

// ReadVarOctetString reads an OER length-prefixed octet string.
func ReadVarOctetString(r *bytes.Reader) ([]byte, error) {
	return readVarOctetString(r)
}

// WriteVarOctetString writes data with its OER length prefix.
func WriteVarOctetString(w *bytes.Buffer, data []byte) {
	writeVarOctetString(w, data)
}

// ReadUint8 reads a single unsigned byte.
func ReadUint8(r *bytes.Reader) (uint8, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, wrapParseError(Truncated, "truncated uint8", err)
	}

	return b, nil
}

// ReadFixed reads exactly n bytes.
func ReadFixed(r *bytes.Reader, n int) ([]byte, error) {
	return readFixed(r, n)
}
