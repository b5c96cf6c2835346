package cti

// QueryAgentStateReq is the outbound request the session engine sends in
// response to a BrokerEvent.RequestAgentStateEvent.
type QueryAgentStateReq struct {
	InvokeID     uint32
	PeripheralID uint32
	MRDID        int32
	ICMAgentID   int32

	AgentExtension  *string
	AgentID         *string
	AgentInstrument *string
}

// Encode returns the full wire message (header + body).
func (m QueryAgentStateReq) Encode() []byte {
	body := make([]byte, 0, 32)
	body = appendU32(body, m.InvokeID)
	body = appendU32(body, m.PeripheralID)
	body = appendI32(body, m.MRDID)
	body = appendI32(body, m.ICMAgentID)
	body = appendFloatingString(body, TagAgentExtension, m.AgentExtension)
	body = appendFloatingString(body, TagAgentID, m.AgentID)
	body = appendFloatingString(body, TagAgentInstrument, m.AgentInstrument)
	return append(EncodeHeader(uint32(len(body)), MessageTypeQueryAgentStateReq), body...)
}

// DecodeQueryAgentStateReq parses a full QUERY_AGENT_STATE_REQ message
// (header included).
func DecodeQueryAgentStateReq(raw []byte) (QueryAgentStateReq, error) {
	if _, err := DecodeHeader(raw); err != nil {
		return QueryAgentStateReq{}, err
	}
	body := raw[HeaderSize:]
	if len(body) < 16 {
		return QueryAgentStateReq{}, ErrTruncated
	}
	var out QueryAgentStateReq
	off := 0
	readU32 := func() (uint32, error) { v, err := decodeU32(body[off : off+4]); off += 4; return v, err }
	readI32 := func() (int32, error) { v, err := decodeI32(body[off : off+4]); off += 4; return v, err }
	var err error
	if out.InvokeID, err = readU32(); err != nil {
		return out, err
	}
	if out.PeripheralID, err = readU32(); err != nil {
		return out, err
	}
	if out.MRDID, err = readI32(); err != nil {
		return out, err
	}
	if out.ICMAgentID, err = readI32(); err != nil {
		return out, err
	}

	err = walkFloatingFields(body[off:], map[Tag]fieldHandler{
		TagAgentExtension: func(b []byte) error {
			s, err := decodeCString(b)
			out.AgentExtension = &s
			return err
		},
		TagAgentID: func(b []byte) error {
			s, err := decodeCString(b)
			out.AgentID = &s
			return err
		},
		TagAgentInstrument: func(b []byte) error {
			s, err := decodeCString(b)
			out.AgentInstrument = &s
			return err
		},
	})
	return out, err
}

// QueryAgentStateConf is the inbound answer to QueryAgentStateReq.
type QueryAgentStateConf struct {
	InvokeID                uint32
	AgentState              uint16
	NumSkillGroups          uint16
	MRDID                   int32
	NumTask                 uint32
	AgentMode               uint16
	MaxTaskLimit            uint32
	ICMAgentID              int32
	AgentAvailabilityStatus uint32
	DepartmentID            int32

	AgentID             *string
	AgentExtension      *string
	AgentInstrument     *string
	SkillGroupNumber    *uint32
	SkillGroupID        *uint32
	SkillGroupPriority  *uint16
	SkillGroupState     *uint16
	InternalAgentState  *uint16
	MaxBeyondTaskLimit  *uint32
}

// DecodeQueryAgentStateConf parses a full QUERY_AGENT_STATE_CONF message
// (header included).
func DecodeQueryAgentStateConf(raw []byte) (QueryAgentStateConf, error) {
	if _, err := DecodeHeader(raw); err != nil {
		return QueryAgentStateConf{}, err
	}
	body := raw[HeaderSize:]
	if len(body) < 34 {
		return QueryAgentStateConf{}, ErrTruncated
	}
	var m QueryAgentStateConf
	off := 0
	readU32 := func() (uint32, error) { v, err := decodeU32(body[off : off+4]); off += 4; return v, err }
	readU16 := func() (uint16, error) { v, err := decodeU16(body[off : off+2]); off += 2; return v, err }
	readI32 := func() (int32, error) { v, err := decodeI32(body[off : off+4]); off += 4; return v, err }

	var err error
	if m.InvokeID, err = readU32(); err != nil {
		return m, err
	}
	if m.AgentState, err = readU16(); err != nil {
		return m, err
	}
	if m.NumSkillGroups, err = readU16(); err != nil {
		return m, err
	}
	if m.MRDID, err = readI32(); err != nil {
		return m, err
	}
	if m.NumTask, err = readU32(); err != nil {
		return m, err
	}
	if m.AgentMode, err = readU16(); err != nil {
		return m, err
	}
	if m.MaxTaskLimit, err = readU32(); err != nil {
		return m, err
	}
	if m.ICMAgentID, err = readI32(); err != nil {
		return m, err
	}
	if m.AgentAvailabilityStatus, err = readU32(); err != nil {
		return m, err
	}
	if m.DepartmentID, err = readI32(); err != nil {
		return m, err
	}

	err = walkFloatingFields(body[off:], map[Tag]fieldHandler{
		TagAgentID: func(b []byte) error {
			s, err := decodeCString(b)
			m.AgentID = &s
			return err
		},
		TagAgentExtension: func(b []byte) error {
			s, err := decodeCString(b)
			m.AgentExtension = &s
			return err
		},
		TagAgentInstrument: func(b []byte) error {
			s, err := decodeCString(b)
			m.AgentInstrument = &s
			return err
		},
		TagSkillGroupNumber: func(b []byte) error {
			v, err := decodeU32(b)
			m.SkillGroupNumber = &v
			return err
		},
		TagSkillGroupID: func(b []byte) error {
			v, err := decodeU32(b)
			m.SkillGroupID = &v
			return err
		},
		TagSkillGroupPriority: func(b []byte) error {
			v, err := decodeU16(b)
			m.SkillGroupPriority = &v
			return err
		},
		TagSkillGroupState: func(b []byte) error {
			v, err := decodeU16(b)
			m.SkillGroupState = &v
			return err
		},
		TagInternalAgentState: func(b []byte) error {
			v, err := decodeU16(b)
			m.InternalAgentState = &v
			return err
		},
		TagMaxBeyondTaskLimit: func(b []byte) error {
			v, err := decodeU32(b)
			m.MaxBeyondTaskLimit = &v
			return err
		},
	})
	return m, err
}

// Encode returns the full wire message (header + body); used by mock
// upstream servers in tests.
func (m QueryAgentStateConf) Encode() []byte {
	body := make([]byte, 0, 48)
	body = appendU32(body, m.InvokeID)
	body = appendU16(body, m.AgentState)
	body = appendU16(body, m.NumSkillGroups)
	body = appendI32(body, m.MRDID)
	body = appendU32(body, m.NumTask)
	body = appendU16(body, m.AgentMode)
	body = appendU32(body, m.MaxTaskLimit)
	body = appendI32(body, m.ICMAgentID)
	body = appendU32(body, m.AgentAvailabilityStatus)
	body = appendI32(body, m.DepartmentID)
	body = appendFloatingString(body, TagAgentID, m.AgentID)
	body = appendFloatingString(body, TagAgentExtension, m.AgentExtension)
	body = appendFloatingString(body, TagAgentInstrument, m.AgentInstrument)
	body = appendFloatingU32(body, TagSkillGroupNumber, m.SkillGroupNumber)
	body = appendFloatingU32(body, TagSkillGroupID, m.SkillGroupID)
	body = appendFloatingU16(body, TagSkillGroupPriority, m.SkillGroupPriority)
	body = appendFloatingU16(body, TagSkillGroupState, m.SkillGroupState)
	body = appendFloatingU16(body, TagInternalAgentState, m.InternalAgentState)
	body = appendFloatingU32(body, TagMaxBeyondTaskLimit, m.MaxBeyondTaskLimit)
	return append(EncodeHeader(uint32(len(body)), MessageTypeQueryAgentStateConf), body...)
}
