package cti

// AgentStateEvent carries an agent's new state plus any call context
// (skill group, direction) attached to it.
type AgentStateEvent struct {
	MonitorID               uint32
	PeripheralID             uint32
	SessionID                uint32
	PeripheralType           uint16
	SkillGroupState          uint16
	StateDuration            uint32
	SkillGroupNumber         uint32
	SkillGroupID             uint32
	SkillGroupPriority       uint16
	AgentState               uint16
	EventReasonCode          uint16
	MRDID                    int32
	NumTasks                 uint32
	AgentMode                uint16
	MaxTaskLimit             uint32
	ICMAgentID               int32
	AgentAvailabilityStatus  uint32
	NumFltSkillGroups        uint16
	DepartmentID             int32

	CTIClientSignature    *string
	AgentID               *string
	AgentExtension        *string
	ActiveTerminal        *string
	AgentInstrument       *string
	Duration              *uint32
	NextAgentState        *uint16
	Direction             *uint32
	FltSkillGroupNumber   *int32
	FltSkillGroupID       *uint32
	FltSkillGroupPriority *uint16
	FltSkillGroupState    *uint16
	MaxBeyondTaskLimit    *uint32
}

// DecodeAgentStateEvent parses a full AGENT_STATE_EVENT message (header
// included).
func DecodeAgentStateEvent(raw []byte) (AgentStateEvent, error) {
	if _, err := DecodeHeader(raw); err != nil {
		return AgentStateEvent{}, err
	}
	body := raw[HeaderSize:]
	if len(body) < 62 {
		return AgentStateEvent{}, ErrTruncated
	}
	var m AgentStateEvent
	off := 0
	readU32 := func() (uint32, error) { v, err := decodeU32(body[off : off+4]); off += 4; return v, err }
	readU16 := func() (uint16, error) { v, err := decodeU16(body[off : off+2]); off += 2; return v, err }
	readI32 := func() (int32, error) { v, err := decodeI32(body[off : off+4]); off += 4; return v, err }

	var err error
	fields := []struct {
		set func() error
	}{
		{func() error { m.MonitorID, err = readU32(); return err }},
		{func() error { m.PeripheralID, err = readU32(); return err }},
		{func() error { m.SessionID, err = readU32(); return err }},
		{func() error { m.PeripheralType, err = readU16(); return err }},
		{func() error { m.SkillGroupState, err = readU16(); return err }},
		{func() error { m.StateDuration, err = readU32(); return err }},
		{func() error { m.SkillGroupNumber, err = readU32(); return err }},
		{func() error { m.SkillGroupID, err = readU32(); return err }},
		{func() error { m.SkillGroupPriority, err = readU16(); return err }},
		{func() error { m.AgentState, err = readU16(); return err }},
		{func() error { m.EventReasonCode, err = readU16(); return err }},
		{func() error { m.MRDID, err = readI32(); return err }},
		{func() error { m.NumTasks, err = readU32(); return err }},
		{func() error { m.AgentMode, err = readU16(); return err }},
		{func() error { m.MaxTaskLimit, err = readU32(); return err }},
		{func() error { m.ICMAgentID, err = readI32(); return err }},
		{func() error { m.AgentAvailabilityStatus, err = readU32(); return err }},
		{func() error { m.NumFltSkillGroups, err = readU16(); return err }},
		{func() error { m.DepartmentID, err = readI32(); return err }},
	}
	for _, f := range fields {
		if err := f.set(); err != nil {
			return m, err
		}
	}

	err = walkFloatingFields(body[off:], map[Tag]fieldHandler{
		TagCTIClientSignature: func(b []byte) error {
			s, err := decodeCString(b)
			m.CTIClientSignature = &s
			return err
		},
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
		TagActiveConnDevID: func(b []byte) error {
			s, err := decodeCString(b)
			m.ActiveTerminal = &s
			return err
		},
		TagAgentInstrument: func(b []byte) error {
			s, err := decodeCString(b)
			m.AgentInstrument = &s
			return err
		},
		TagDuration: func(b []byte) error {
			v, err := decodeU32(b)
			m.Duration = &v
			return err
		},
		TagNextAgentState: func(b []byte) error {
			v, err := decodeU16(b)
			m.NextAgentState = &v
			return err
		},
		TagDirection: func(b []byte) error {
			v, err := decodeU32(b)
			m.Direction = &v
			return err
		},
		TagSkillGroupNumber: func(b []byte) error {
			v, err := decodeI32(b)
			m.FltSkillGroupNumber = &v
			return err
		},
		TagSkillGroupID: func(b []byte) error {
			v, err := decodeU32(b)
			m.FltSkillGroupID = &v
			return err
		},
		TagSkillGroupPriority: func(b []byte) error {
			v, err := decodeU16(b)
			m.FltSkillGroupPriority = &v
			return err
		},
		TagSkillGroupState: func(b []byte) error {
			v, err := decodeU16(b)
			m.FltSkillGroupState = &v
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

// Encode returns the full wire message (header + body).
func (m AgentStateEvent) Encode() []byte {
	body := make([]byte, 0, 80)
	body = appendU32(body, m.MonitorID)
	body = appendU32(body, m.PeripheralID)
	body = appendU32(body, m.SessionID)
	body = appendU16(body, m.PeripheralType)
	body = appendU16(body, m.SkillGroupState)
	body = appendU32(body, m.StateDuration)
	body = appendU32(body, m.SkillGroupNumber)
	body = appendU32(body, m.SkillGroupID)
	body = appendU16(body, m.SkillGroupPriority)
	body = appendU16(body, m.AgentState)
	body = appendU16(body, m.EventReasonCode)
	body = appendI32(body, m.MRDID)
	body = appendU32(body, m.NumTasks)
	body = appendU16(body, m.AgentMode)
	body = appendU32(body, m.MaxTaskLimit)
	body = appendI32(body, m.ICMAgentID)
	body = appendU32(body, m.AgentAvailabilityStatus)
	body = appendU16(body, m.NumFltSkillGroups)
	body = appendI32(body, m.DepartmentID)

	body = appendFloatingString(body, TagCTIClientSignature, m.CTIClientSignature)
	body = appendFloatingString(body, TagAgentID, m.AgentID)
	body = appendFloatingString(body, TagAgentExtension, m.AgentExtension)
	body = appendFloatingString(body, TagActiveConnDevID, m.ActiveTerminal)
	body = appendFloatingString(body, TagAgentInstrument, m.AgentInstrument)
	body = appendFloatingU32(body, TagDuration, m.Duration)
	body = appendFloatingU16(body, TagNextAgentState, m.NextAgentState)
	body = appendFloatingU32(body, TagDirection, m.Direction)
	body = appendFloatingI32(body, TagSkillGroupNumber, m.FltSkillGroupNumber)
	body = appendFloatingU32(body, TagSkillGroupID, m.FltSkillGroupID)
	body = appendFloatingU16(body, TagSkillGroupPriority, m.FltSkillGroupPriority)
	body = appendFloatingU16(body, TagSkillGroupState, m.FltSkillGroupState)
	body = appendFloatingU32(body, TagMaxBeyondTaskLimit, m.MaxBeyondTaskLimit)
	return append(EncodeHeader(uint32(len(body)), MessageTypeAgentStateEvent), body...)
}
