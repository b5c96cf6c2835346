package cti

// OpenReq is the outbound session-open request. VersionNumber 24 is the
// version this codec speaks; services_requested/call_msg_mask/etc. are set
// by the session engine per spec, not by the codec.
type OpenReq struct {
	InvokeID          uint32
	VersionNumber     uint32
	IdleTimeout       uint32
	PeripheralID      uint32
	ServicesRequested uint32
	CallMsgMask       uint32
	AgentStateMask    uint32
	ConfigMsgMask     uint32
	Reserved1         uint32
	Reserved2         uint32
	Reserved3         uint32

	ClientID          *string
	ClientPassword    *string
	ClientSignature   *string
	AgentExtension    *string
	AgentID           *string
	AgentInstrument   *string
	ApplicationPathID *int32
	UniqueInstanceID  *int32
}

// Encode returns the full wire message (header + body).
func (m OpenReq) Encode() []byte {
	body := make([]byte, 0, 64)
	body = appendU32(body, m.InvokeID)
	body = appendU32(body, m.VersionNumber)
	body = appendU32(body, m.IdleTimeout)
	body = appendU32(body, m.PeripheralID)
	body = appendU32(body, m.ServicesRequested)
	body = appendU32(body, m.CallMsgMask)
	body = appendU32(body, m.AgentStateMask)
	body = appendU32(body, m.ConfigMsgMask)
	body = appendU32(body, m.Reserved1)
	body = appendU32(body, m.Reserved2)
	body = appendU32(body, m.Reserved3)
	body = appendFloatingString(body, TagClientID, m.ClientID)
	body = appendFloatingString(body, TagClientPassword, m.ClientPassword)
	body = appendFloatingString(body, TagClientSignature, m.ClientSignature)
	body = appendFloatingString(body, TagAgentExtension, m.AgentExtension)
	body = appendFloatingString(body, TagAgentID, m.AgentID)
	body = appendFloatingString(body, TagAgentInstrument, m.AgentInstrument)
	body = appendFloatingI32(body, TagApplicationPathID, m.ApplicationPathID)
	body = appendFloatingI32(body, TagUniqueInstanceID, m.UniqueInstanceID)
	return append(EncodeHeader(uint32(len(body)), MessageTypeOpenReq), body...)
}

// DecodeOpenReq parses a full OPEN_REQ message (header included).
func DecodeOpenReq(raw []byte) (OpenReq, error) {
	hdr, err := DecodeHeader(raw)
	if err != nil {
		return OpenReq{}, err
	}
	body := raw[HeaderSize:]
	if len(body) < 44 {
		return OpenReq{}, ErrTruncated
	}
	var m OpenReq
	_ = hdr
	off := 0
	readU32 := func() uint32 {
		v, _ := decodeU32(body[off : off+4])
		off += 4
		return v
	}
	m.InvokeID = readU32()
	m.VersionNumber = readU32()
	m.IdleTimeout = readU32()
	m.PeripheralID = readU32()
	m.ServicesRequested = readU32()
	m.CallMsgMask = readU32()
	m.AgentStateMask = readU32()
	m.ConfigMsgMask = readU32()
	m.Reserved1 = readU32()
	m.Reserved2 = readU32()
	m.Reserved3 = readU32()

	err = walkFloatingFields(body[off:], map[Tag]fieldHandler{
		TagClientID: func(b []byte) error {
			s, err := decodeCString(b)
			m.ClientID = &s
			return err
		},
		TagClientPassword: func(b []byte) error {
			s, err := decodeCString(b)
			m.ClientPassword = &s
			return err
		},
		TagClientSignature: func(b []byte) error {
			s, err := decodeCString(b)
			m.ClientSignature = &s
			return err
		},
		TagAgentExtension: func(b []byte) error {
			s, err := decodeCString(b)
			m.AgentExtension = &s
			return err
		},
		TagAgentID: func(b []byte) error {
			s, err := decodeCString(b)
			m.AgentID = &s
			return err
		},
		TagAgentInstrument: func(b []byte) error {
			s, err := decodeCString(b)
			m.AgentInstrument = &s
			return err
		},
		TagApplicationPathID: func(b []byte) error {
			v, err := decodeI32(b)
			m.ApplicationPathID = &v
			return err
		},
		TagUniqueInstanceID: func(b []byte) error {
			v, err := decodeI32(b)
			m.UniqueInstanceID = &v
			return err
		},
	})
	return m, err
}

// OpenConf is the inbound confirmation of a session open.
type OpenConf struct {
	InvokeID                 uint32
	ServiceGranted            uint32
	MonitorID                 uint32
	PGStatus                  uint32
	ICMCentralControllerTime  uint32
	PeripheralOnline          bool
	PeripheralType            uint16
	AgentState                uint16
	DepartmentID              int32
	SessionType               uint16

	AgentExtension          *string
	AgentID                 *string
	AgentInstrument         *string
	NumPeripherals          *uint16
	PeripheralIDV11         *uint32
	MultiLineAgentControl   *uint16
}

// DecodeOpenConf parses a full OPEN_CONF message (header included).
func DecodeOpenConf(raw []byte) (OpenConf, error) {
	if _, err := DecodeHeader(raw); err != nil {
		return OpenConf{}, err
	}
	body := raw[HeaderSize:]
	if len(body) < 32 {
		return OpenConf{}, ErrTruncated
	}
	var m OpenConf
	off := 0
	readU32 := func() (uint32, error) { v, err := decodeU32(body[off : off+4]); off += 4; return v, err }
	readU16 := func() (uint16, error) { v, err := decodeU16(body[off : off+2]); off += 2; return v, err }
	readI32 := func() (int32, error) { v, err := decodeI32(body[off : off+4]); off += 4; return v, err }

	var err error
	if m.InvokeID, err = readU32(); err != nil {
		return m, err
	}
	if m.ServiceGranted, err = readU32(); err != nil {
		return m, err
	}
	if m.MonitorID, err = readU32(); err != nil {
		return m, err
	}
	if m.PGStatus, err = readU32(); err != nil {
		return m, err
	}
	if m.ICMCentralControllerTime, err = readU32(); err != nil {
		return m, err
	}
	if m.PeripheralOnline, err = decodeBool(body[off : off+2]); err != nil {
		return m, err
	}
	off += 2
	if m.PeripheralType, err = readU16(); err != nil {
		return m, err
	}
	if m.AgentState, err = readU16(); err != nil {
		return m, err
	}
	if m.DepartmentID, err = readI32(); err != nil {
		return m, err
	}
	if m.SessionType, err = readU16(); err != nil {
		return m, err
	}

	err = walkFloatingFields(body[off:], map[Tag]fieldHandler{
		TagAgentExtension: func(b []byte) error {
			s, err := decodeCString(b)
			m.AgentExtension = &s
			return err
		},
		TagAgentID: func(b []byte) error {
			s, err := decodeCString(b)
			m.AgentID = &s
			return err
		},
		TagAgentInstrument: func(b []byte) error {
			s, err := decodeCString(b)
			m.AgentInstrument = &s
			return err
		},
		TagNumPeripherals: func(b []byte) error {
			v, err := decodeU16(b)
			m.NumPeripherals = &v
			return err
		},
		TagPeripheralIDV11: func(b []byte) error {
			v, err := decodeU32(b)
			m.PeripheralIDV11 = &v
			return err
		},
		TagMultiLineAgentControl: func(b []byte) error {
			v, err := decodeU16(b)
			m.MultiLineAgentControl = &v
			return err
		},
	})
	return m, err
}

// Encode returns the full wire message (header + body), every fixed field
// plus each floating field that is set; used by tests and test doubles.
func (m OpenConf) Encode() []byte {
	body := make([]byte, 0, 32)
	body = appendU32(body, m.InvokeID)
	body = appendU32(body, m.ServiceGranted)
	body = appendU32(body, m.MonitorID)
	body = appendU32(body, m.PGStatus)
	body = appendU32(body, m.ICMCentralControllerTime)
	body = appendBool(body, m.PeripheralOnline)
	body = appendU16(body, m.PeripheralType)
	body = appendU16(body, m.AgentState)
	body = appendI32(body, m.DepartmentID)
	body = appendU16(body, m.SessionType)
	body = appendFloatingString(body, TagAgentExtension, m.AgentExtension)
	body = appendFloatingString(body, TagAgentID, m.AgentID)
	body = appendFloatingString(body, TagAgentInstrument, m.AgentInstrument)
	body = appendFloatingU16(body, TagNumPeripherals, m.NumPeripherals)
	body = appendFloatingU32(body, TagPeripheralIDV11, m.PeripheralIDV11)
	body = appendFloatingU16(body, TagMultiLineAgentControl, m.MultiLineAgentControl)
	return append(EncodeHeader(uint32(len(body)), MessageTypeOpenConf), body...)
}
