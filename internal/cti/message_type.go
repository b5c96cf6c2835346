package cti

import "fmt"

// MessageType identifies the kind of a CTI message. The registry is closed;
// a raw value outside it decodes to MessageTypeUnknown with Header.Raw
// preserving the original wire value so it can still be logged or passed
// through unmolested.
type MessageType uint32

const (
	MessageTypeUnknown              MessageType = 0
	MessageTypeOpenReq              MessageType = 0x0101
	MessageTypeOpenConf             MessageType = 0x0102
	MessageTypeHeartbeatReq         MessageType = 0x0110
	MessageTypeAgentTeamConfigEvent MessageType = 0x0201
	MessageTypeAgentStateEvent      MessageType = 0x0202
	MessageTypeQueryAgentStateReq   MessageType = 0x0301
	MessageTypeQueryAgentStateConf  MessageType = 0x0302
)

var messageTypeNames = map[MessageType]string{
	MessageTypeOpenReq:              "OPEN_REQ",
	MessageTypeOpenConf:             "OPEN_CONF",
	MessageTypeHeartbeatReq:         "HEARTBEAT_REQ",
	MessageTypeAgentTeamConfigEvent: "AGENT_TEAM_CONFIG_EVENT",
	MessageTypeAgentStateEvent:      "AGENT_STATE_EVENT",
	MessageTypeQueryAgentStateReq:   "QUERY_AGENT_STATE_REQ",
	MessageTypeQueryAgentStateConf:  "QUERY_AGENT_STATE_CONF",
}

func (t MessageType) String() string {
	if n, ok := messageTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("UNKNOWN(0x%08x)", uint32(t))
}

// messageTypeFromRaw maps a raw wire value to a known MessageType, or to
// MessageTypeUnknown when it is not in the registry.
func messageTypeFromRaw(raw uint32) MessageType {
	if _, ok := messageTypeNames[MessageType(raw)]; ok {
		return MessageType(raw)
	}
	return MessageTypeUnknown
}
