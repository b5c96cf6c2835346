package cti

// HeartbeatReq is the outbound keep-alive sent on the heartbeat timer.
type HeartbeatReq struct {
	InvokeID uint32
}

// Encode returns the full wire message (header + body).
func (m HeartbeatReq) Encode() []byte {
	body := appendU32(make([]byte, 0, 4), m.InvokeID)
	return append(EncodeHeader(uint32(len(body)), MessageTypeHeartbeatReq), body...)
}

// DecodeHeartbeatReq parses a full HEARTBEAT_REQ message (header included).
func DecodeHeartbeatReq(raw []byte) (HeartbeatReq, error) {
	if _, err := DecodeHeader(raw); err != nil {
		return HeartbeatReq{}, err
	}
	body := raw[HeaderSize:]
	v, err := decodeU32(body)
	return HeartbeatReq{InvokeID: v}, err
}
