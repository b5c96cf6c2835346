package cti

// AgentTeamConfigAgent is one record of the AGENT_TEAM_CONFIG_EVENT
// repeating group. A record is closed by ATC_AGENT_STATE_DURATION; the
// next ATC_AGENT_ID opens a new one. Floating fields arriving between an
// ATC_AGENT_ID and its closing duration are keyed back to this record
// regardless of ordering, per spec — servers are not required to send the
// four tags in strict order.
type AgentTeamConfigAgent struct {
	AgentID       *string
	AgentFlags    *uint16
	AgentState    *uint16
	StateDuration *uint32
}

// AgentTeamConfigEvent announces (or updates) a team roster.
type AgentTeamConfigEvent struct {
	PeripheralID    uint32
	TeamID          uint32
	NumberOfAgents  uint16
	ConfigOperation uint16
	DepartmentID    int32

	AgentTeamName *string
	Agents        []AgentTeamConfigAgent
}

// DecodeAgentTeamConfigEvent parses a full AGENT_TEAM_CONFIG_EVENT message
// (header included). number_of_agents is informational only; the agent
// slice is driven entirely by the ATC_AGENT_ID tag sequence observed, per
// the design note not to trust a count some servers over/under-report.
func DecodeAgentTeamConfigEvent(raw []byte) (AgentTeamConfigEvent, error) {
	if _, err := DecodeHeader(raw); err != nil {
		return AgentTeamConfigEvent{}, err
	}
	body := raw[HeaderSize:]
	if len(body) < 16 {
		return AgentTeamConfigEvent{}, ErrTruncated
	}
	var m AgentTeamConfigEvent
	off := 0
	readU32 := func() (uint32, error) { v, err := decodeU32(body[off : off+4]); off += 4; return v, err }
	readU16 := func() (uint16, error) { v, err := decodeU16(body[off : off+2]); off += 2; return v, err }
	readI32 := func() (int32, error) { v, err := decodeI32(body[off : off+4]); off += 4; return v, err }

	var err error
	if m.PeripheralID, err = readU32(); err != nil {
		return m, err
	}
	if m.TeamID, err = readU32(); err != nil {
		return m, err
	}
	if m.NumberOfAgents, err = readU16(); err != nil {
		return m, err
	}
	if m.ConfigOperation, err = readU16(); err != nil {
		return m, err
	}
	if m.DepartmentID, err = readI32(); err != nil {
		return m, err
	}

	current := func() *AgentTeamConfigAgent {
		if len(m.Agents) == 0 {
			return nil
		}
		return &m.Agents[len(m.Agents)-1]
	}

	err = walkFloatingFields(body[off:], map[Tag]fieldHandler{
		TagAgentTeamName: func(b []byte) error {
			s, err := decodeCString(b)
			m.AgentTeamName = &s
			return err
		},
		TagATCAgentID: func(b []byte) error {
			s, err := decodeCString(b)
			m.Agents = append(m.Agents, AgentTeamConfigAgent{AgentID: &s})
			return err
		},
		TagAgentFlags: func(b []byte) error {
			v, err := decodeU16(b)
			if c := current(); c != nil {
				c.AgentFlags = &v
			}
			return err
		},
		TagATCAgentState: func(b []byte) error {
			v, err := decodeU16(b)
			if c := current(); c != nil {
				c.AgentState = &v
			}
			return err
		},
		TagATCAgentStateDuration: func(b []byte) error {
			v, err := decodeU32(b)
			if c := current(); c != nil {
				c.StateDuration = &v
			}
			return err
		},
	})
	return m, err
}

// Encode returns the full wire message (header + body). Used by tests to
// exercise the round-trip law and by mock upstream servers.
func (m AgentTeamConfigEvent) Encode() []byte {
	body := make([]byte, 0, 32)
	body = appendU32(body, m.PeripheralID)
	body = appendU32(body, m.TeamID)
	body = appendU16(body, m.NumberOfAgents)
	body = appendU16(body, m.ConfigOperation)
	body = appendI32(body, m.DepartmentID)
	body = appendFloatingString(body, TagAgentTeamName, m.AgentTeamName)
	for _, a := range m.Agents {
		body = appendFloatingString(body, TagATCAgentID, a.AgentID)
		body = appendFloatingU16(body, TagAgentFlags, a.AgentFlags)
		body = appendFloatingU16(body, TagATCAgentState, a.AgentState)
		body = appendFloatingU32(body, TagATCAgentStateDuration, a.StateDuration)
	}
	return append(EncodeHeader(uint32(len(body)), MessageTypeAgentTeamConfigEvent), body...)
}
