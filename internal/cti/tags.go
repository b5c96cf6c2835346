// Package cti implements the Cisco-ICM CTI wire codec: the MHDR header,
// the floating-field TLV trailer, and the per-message-type structs observed
// on an agent/team/call monitor connection.
package cti

// Tag identifies a floating field. The registry is closed: an unknown tag
// is skipped using its declared length, never rejected.
type Tag uint16

const (
	TagClientID Tag = 0x0001 + iota
	TagClientPassword
	TagClientSignature
	TagAgentExtension
	TagAgentID
	TagAgentInstrument
	TagApplicationPathID
	TagUniqueInstanceID
	TagNumPeripherals
	TagPeripheralIDV11
	TagMultiLineAgentControl
	TagAgentTeamName
	TagATCAgentID
	TagAgentFlags
	TagATCAgentState
	TagATCAgentStateDuration
	TagCTIClientSignature
	TagActiveConnDevID
	TagDuration
	TagNextAgentState
	TagDirection
	TagSkillGroupNumber
	TagSkillGroupID
	TagSkillGroupPriority
	TagSkillGroupState
	TagInternalAgentState
	TagMaxBeyondTaskLimit
)
