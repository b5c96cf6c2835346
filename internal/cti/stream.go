package cti

import "io"

// StreamCodec reads and writes CTI messages directly against a stream, one
// message at a time. ReadMessage blocks on io.ReadFull because the MHDR carries
// the exact body length: there is never a need to guess how far ahead to
// buffer, only to wait for the bytes the header already promised.
type StreamCodec struct{}

// ReadMessage blocks until one complete message (header + body) has been
// read from r, or r errs. The returned slice is header and body
// concatenated, ready for Decode.
func (StreamCodec) ReadMessage(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	hdr, err := DecodeHeader(header)
	if err != nil {
		return nil, err
	}
	if hdr.Length == 0 {
		return header, nil
	}
	body := make([]byte, hdr.Length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return append(header, body...), nil
}

// WriteMessage writes an already-encoded message to w in a single call.
func (StreamCodec) WriteMessage(w io.Writer, msg []byte) error {
	_, err := w.Write(msg)
	return err
}
