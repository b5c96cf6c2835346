package cti

import "testing"

func u16p(v uint16) *uint16 { return &v }
func u32p(v uint32) *uint32 { return &v }
func i32p(v int32) *int32   { return &v }

func TestOpenReqRoundTrip(t *testing.T) {
	want := OpenReq{
		InvokeID:          1,
		VersionNumber:     24,
		IdleTimeout:       100,
		PeripheralID:      5000,
		ServicesRequested: 0x8000_0000 | 0x04 | 0x10 | 0x80,
		CallMsgMask:       0xFFFFFFFF,
		AgentStateMask:    0x3FFF,
		ConfigMsgMask:     0,
		ClientID:          strPtr("ctmonitor"),
		ClientPassword:    strPtr(""),
		AgentID:           strPtr("1001"),
		ApplicationPathID: i32p(7),
	}
	got, err := DecodeOpenReq(want.Encode())
	if err != nil {
		t.Fatalf("DecodeOpenReq: %v", err)
	}
	if got.InvokeID != want.InvokeID || got.VersionNumber != want.VersionNumber ||
		got.ServicesRequested != want.ServicesRequested || got.CallMsgMask != want.CallMsgMask {
		t.Fatalf("fixed fields mismatch: %+v", got)
	}
	if got.ClientID == nil || *got.ClientID != "ctmonitor" {
		t.Fatalf("ClientID = %v", got.ClientID)
	}
	if got.ClientPassword == nil || *got.ClientPassword != "" {
		t.Fatalf("ClientPassword = %v", got.ClientPassword)
	}
	if got.AgentID == nil || *got.AgentID != "1001" {
		t.Fatalf("AgentID = %v", got.AgentID)
	}
	if got.ApplicationPathID == nil || *got.ApplicationPathID != 7 {
		t.Fatalf("ApplicationPathID = %v", got.ApplicationPathID)
	}
	if got.UniqueInstanceID != nil {
		t.Fatalf("UniqueInstanceID should remain unset, got %v", got.UniqueInstanceID)
	}
}

func TestOpenConfRoundTrip(t *testing.T) {
	want := OpenConf{
		InvokeID:                 1,
		ServiceGranted:           0x8000_0000,
		MonitorID:                99,
		PeripheralOnline:         true,
		PeripheralType:           1,
		AgentState:               1,
		SessionType:              1,
		AgentID:                  strPtr("1001"),
		NumPeripherals:           u16p(1),
	}
	got, err := DecodeOpenConf(want.Encode())
	if err != nil {
		t.Fatalf("DecodeOpenConf: %v", err)
	}
	if !got.PeripheralOnline {
		t.Fatal("PeripheralOnline should round-trip true")
	}
	if got.AgentID == nil || *got.AgentID != "1001" {
		t.Fatalf("AgentID = %v", got.AgentID)
	}
	if got.NumPeripherals == nil || *got.NumPeripherals != 1 {
		t.Fatalf("NumPeripherals = %v", got.NumPeripherals)
	}
}

func TestOpenConfPeripheralOfflineRoundTrip(t *testing.T) {
	want := OpenConf{InvokeID: 1, PeripheralOnline: false}
	got, err := DecodeOpenConf(want.Encode())
	if err != nil {
		t.Fatalf("DecodeOpenConf: %v", err)
	}
	if got.PeripheralOnline {
		t.Fatal("PeripheralOnline should round-trip false")
	}
}

func TestOpenConfTruncatedFixedPrefix(t *testing.T) {
	raw := EncodeHeader(20, MessageTypeOpenConf)
	raw = append(raw, make([]byte, 20)...)
	if _, err := DecodeOpenConf(raw); err != ErrTruncated {
		t.Fatalf("want ErrTruncated, got %v", err)
	}
}

func TestHeartbeatReqRoundTrip(t *testing.T) {
	want := HeartbeatReq{InvokeID: 42}
	got, err := DecodeHeartbeatReq(want.Encode())
	if err != nil {
		t.Fatalf("DecodeHeartbeatReq: %v", err)
	}
	if got.InvokeID != 42 {
		t.Fatalf("InvokeID = %d", got.InvokeID)
	}
}

func TestAgentTeamConfigEventRoundTrip(t *testing.T) {
	want := AgentTeamConfigEvent{
		PeripheralID:    5000,
		TeamID:          1,
		NumberOfAgents:  2,
		ConfigOperation: 1,
		AgentTeamName:   strPtr("Team Alpha"),
		Agents: []AgentTeamConfigAgent{
			{AgentID: strPtr("1001"), AgentFlags: u16p(0), AgentState: u16p(1), StateDuration: u32p(0)},
			{AgentID: strPtr("1002"), AgentFlags: u16p(0), AgentState: u16p(1), StateDuration: u32p(0)},
		},
	}
	got, err := DecodeAgentTeamConfigEvent(want.Encode())
	if err != nil {
		t.Fatalf("DecodeAgentTeamConfigEvent: %v", err)
	}
	if len(got.Agents) != 2 {
		t.Fatalf("want 2 agents, got %d", len(got.Agents))
	}
	if *got.Agents[0].AgentID != "1001" || *got.Agents[1].AgentID != "1002" {
		t.Fatalf("agent ids mismatch: %+v", got.Agents)
	}
	if got.AgentTeamName == nil || *got.AgentTeamName != "Team Alpha" {
		t.Fatalf("AgentTeamName = %v", got.AgentTeamName)
	}
}

// TestAgentTeamConfigEventOutOfOrderFields exercises the spec's robustness
// requirement: floating fields belonging to a record must key off the most
// recently opened ATC_AGENT_ID even if a server interleaves them unusually,
// as long as every record still opens with its own ATC_AGENT_ID field.
func TestAgentTeamConfigEventOutOfOrderFields(t *testing.T) {
	var body []byte
	body = appendU32(body, 5000)
	body = appendU32(body, 1)
	body = appendU16(body, 1)
	body = appendU16(body, 1)
	body = appendI32(body, 0)
	body = appendFloatingString(body, TagATCAgentID, strPtr("1001"))
	body = appendFloatingU16(body, TagATCAgentState, u16p(1))
	body = appendFloatingU16(body, TagAgentFlags, u16p(0))
	body = appendFloatingU32(body, TagATCAgentStateDuration, u32p(5))
	raw := append(EncodeHeader(uint32(len(body)), MessageTypeAgentTeamConfigEvent), body...)

	got, err := DecodeAgentTeamConfigEvent(raw)
	if err != nil {
		t.Fatalf("DecodeAgentTeamConfigEvent: %v", err)
	}
	if len(got.Agents) != 1 {
		t.Fatalf("want 1 agent, got %d", len(got.Agents))
	}
	a := got.Agents[0]
	if a.AgentState == nil || *a.AgentState != 1 || a.AgentFlags == nil || *a.AgentFlags != 0 || a.StateDuration == nil || *a.StateDuration != 5 {
		t.Fatalf("fields not attributed to the open record: %+v", a)
	}
}

func TestAgentStateEventRoundTrip(t *testing.T) {
	want := AgentStateEvent{
		MonitorID:               1,
		PeripheralID:             5000,
		SessionID:                2,
		AgentState:               4,
		EventReasonCode:          0,
		MRDID:                    1,
		AgentID:                  strPtr("1001"),
		AgentExtension:           strPtr("4001"),
		Direction:                u32p(1),
		FltSkillGroupID:          u32p(10),
		FltSkillGroupState:       u16p(1),
	}
	got, err := DecodeAgentStateEvent(want.Encode())
	if err != nil {
		t.Fatalf("DecodeAgentStateEvent: %v", err)
	}
	if got.AgentState != 4 || got.PeripheralID != 5000 {
		t.Fatalf("fixed fields mismatch: %+v", got)
	}
	if got.AgentID == nil || *got.AgentID != "1001" {
		t.Fatalf("AgentID = %v", got.AgentID)
	}
	if got.Direction == nil || *got.Direction != 1 {
		t.Fatalf("Direction = %v", got.Direction)
	}
	if got.FltSkillGroupID == nil || *got.FltSkillGroupID != 10 {
		t.Fatalf("FltSkillGroupID = %v", got.FltSkillGroupID)
	}
}

func TestAgentStateEventTruncatedFixedPrefix(t *testing.T) {
	raw := EncodeHeader(40, MessageTypeAgentStateEvent)
	raw = append(raw, make([]byte, 40)...)
	if _, err := DecodeAgentStateEvent(raw); err != ErrTruncated {
		t.Fatalf("want ErrTruncated, got %v", err)
	}
}

func TestQueryAgentStateReqRoundTrip(t *testing.T) {
	want := QueryAgentStateReq{
		InvokeID:     3,
		PeripheralID: 5000,
		MRDID:        1,
		ICMAgentID:   1001,
		AgentID:      strPtr("1001"),
	}
	got, err := DecodeQueryAgentStateReq(want.Encode())
	if err != nil {
		t.Fatalf("DecodeQueryAgentStateReq: %v", err)
	}
	if got.InvokeID != 3 || got.PeripheralID != 5000 || got.ICMAgentID != 1001 {
		t.Fatalf("fixed fields mismatch: %+v", got)
	}
	if got.AgentID == nil || *got.AgentID != "1001" {
		t.Fatalf("AgentID = %v", got.AgentID)
	}
}

func TestQueryAgentStateReqTruncated(t *testing.T) {
	raw := EncodeHeader(8, MessageTypeQueryAgentStateReq)
	raw = append(raw, make([]byte, 8)...)
	if _, err := DecodeQueryAgentStateReq(raw); err != ErrTruncated {
		t.Fatalf("want ErrTruncated, got %v", err)
	}
}

func TestQueryAgentStateConfRoundTrip(t *testing.T) {
	want := QueryAgentStateConf{
		InvokeID:                4,
		AgentState:              4,
		NumSkillGroups:          1,
		MRDID:                   1,
		NumTask:                 1,
		AgentMode:                0,
		MaxTaskLimit:            5,
		ICMAgentID:              1001,
		AgentAvailabilityStatus: 1,
		DepartmentID:            0,
		AgentID:                 strPtr("1001"),
		SkillGroupID:            u32p(10),
		SkillGroupState:         u16p(1),
	}
	got, err := DecodeQueryAgentStateConf(want.Encode())
	if err != nil {
		t.Fatalf("DecodeQueryAgentStateConf: %v", err)
	}
	if got.AgentState != 4 || got.ICMAgentID != 1001 {
		t.Fatalf("fixed fields mismatch: %+v", got)
	}
	if got.SkillGroupID == nil || *got.SkillGroupID != 10 {
		t.Fatalf("SkillGroupID = %v", got.SkillGroupID)
	}
	if got.SkillGroupState == nil || *got.SkillGroupState != 1 {
		t.Fatalf("SkillGroupState = %v", got.SkillGroupState)
	}
}

func TestQueryAgentStateConfTruncated(t *testing.T) {
	raw := EncodeHeader(20, MessageTypeQueryAgentStateConf)
	raw = append(raw, make([]byte, 20)...)
	if _, err := DecodeQueryAgentStateConf(raw); err != ErrTruncated {
		t.Fatalf("want ErrTruncated, got %v", err)
	}
}

func TestDecodeDispatchesOnHeaderType(t *testing.T) {
	raw := HeartbeatReq{InvokeID: 7}.Encode()
	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	hb, ok := msg.Body.(HeartbeatReq)
	if !ok {
		t.Fatalf("Body is %T, want HeartbeatReq", msg.Body)
	}
	if hb.InvokeID != 7 {
		t.Fatalf("InvokeID = %d", hb.InvokeID)
	}
}

func TestDecodeUnknownMessageTypePassesThroughOpaque(t *testing.T) {
	raw := EncodeHeader(0, MessageType(0xFFFF))
	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Body != nil {
		t.Fatalf("Body = %v, want nil for an unrecognized message type", msg.Body)
	}
	if msg.Header.Raw != 0xFFFF {
		t.Fatalf("Header.Raw = %#x, want 0xffff", msg.Header.Raw)
	}
}

func TestDecodeRejectsIncompleteBody(t *testing.T) {
	raw := EncodeHeader(100, MessageTypeHeartbeatReq)
	if _, err := Decode(raw); err != ErrTruncated {
		t.Fatalf("want ErrTruncated, got %v", err)
	}
}
