package transport

import (
	"io"

	"github.com/kstaniek/ctmonitor/internal/cti"
)

// MessageReader decodes a single framed message from a stream.
type MessageReader interface {
	ReadMessage(r io.Reader) ([]byte, error)
}

// MessageWriter writes one already-framed message to w.
type MessageWriter interface {
	WriteMessage(w io.Writer, msg []byte) error
}

// Compile-time assertions that cti.StreamCodec, the session engine's actual
// upstream codec, satisfies both capabilities.
var (
	_ MessageReader = cti.StreamCodec{}
	_ MessageWriter = cti.StreamCodec{}
)
