package cti

// Message is the decoded payload of any message type this codec knows,
// tagged by its header type. The broker type-switches Body into the
// matching concrete struct. Body is nil for a
// message type outside the registry: ICM is free to send types this client
// doesn't model, and those pass through as an opaque Message rather than
// failing the whole decode.
type Message struct {
	Header Header
	Body   any
}

// Decode peeks the MHDR off raw and dispatches to the matching per-type
// decoder. raw must hold a complete message (HeaderSize + Header.Length
// bytes); the caller (StreamCodec.ReadMessage) is responsible for that
// framing.
func Decode(raw []byte) (Message, error) {
	hdr, err := DecodeHeader(raw)
	if err != nil {
		return Message{}, err
	}
	if len(raw) < HeaderSize+int(hdr.Length) {
		return Message{}, ErrTruncated
	}
	full := raw[:HeaderSize+int(hdr.Length)]

	var body any
	switch hdr.Type {
	case MessageTypeOpenReq:
		body, err = DecodeOpenReq(full)
	case MessageTypeOpenConf:
		body, err = DecodeOpenConf(full)
	case MessageTypeHeartbeatReq:
		body, err = DecodeHeartbeatReq(full)
	case MessageTypeAgentTeamConfigEvent:
		body, err = DecodeAgentTeamConfigEvent(full)
	case MessageTypeAgentStateEvent:
		body, err = DecodeAgentStateEvent(full)
	case MessageTypeQueryAgentStateReq:
		body, err = DecodeQueryAgentStateReq(full)
	case MessageTypeQueryAgentStateConf:
		body, err = DecodeQueryAgentStateConf(full)
	default:
		return Message{Header: hdr, Body: nil}, nil
	}
	if err != nil {
		return Message{}, err
	}
	return Message{Header: hdr, Body: body}, nil
}

// Encoder is implemented by every outbound message struct.
type Encoder interface {
	Encode() []byte
}
