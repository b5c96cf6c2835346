// Package agent holds the agent-state projection: a map from agent_id to
// its derived AgentInfo, mutated only through invariant-enforcing setters.
package agent

// Agent state values the setters below key off. The full registry of
// states a peripheral can report is larger; these are the only ones the
// projection's invariants care about.
const (
	StateLogout        = 1
	StateNotReady      = 2
	StateTalking       = 4
	StateReserved      = 7
	StateWorkNotReady  = 8
	StateHold          = 10
	StateUnknown       = 9
)

// Info is the derived, broadcast-ready record for one agent. Callers must
// call SetAgentState before any of SetReasonCode, SetSkillGroupID,
// SetDirection, or SetAgentExtension, since those consult the already
// updated AgentState to decide whether to retain or clear their value.
type Info struct {
	AgentID        string `msgpack:"agent_id"`
	ICMAgentID     int32  `msgpack:"icm_agent_id"`
	AgentState     uint16 `msgpack:"agent_state"`
	StateDuration  uint64 `msgpack:"state_duration"`
	ReasonCode     uint16 `msgpack:"reason_code"`
	SkillGroupID   uint16 `msgpack:"skill_group_id"`
	Direction      uint32 `msgpack:"direction"`
	AgentExtension string `msgpack:"agent_extension"`
}

// New seeds a fresh record for an agent first sighted in a team roster.
func New(agentID string, state uint16, stateDurationStart uint64) *Info {
	return &Info{AgentID: agentID, AgentState: state, StateDuration: stateDurationStart}
}

// SetAgentState updates the state driving every other setter's invariant.
// It must be called first, before the state-conditional setters below.
func (a *Info) SetAgentState(state uint16) { a.AgentState = state }

// SetStateDuration records the wall-clock start of the current state,
// computed by the caller as nowUnixSeconds - incomingDurationSeconds.
func (a *Info) SetStateDuration(start uint64) { a.StateDuration = start }

// SetReasonCode retains the code only while AgentState is LOGOUT or
// NOT_READY; otherwise it is forced to 0.
func (a *Info) SetReasonCode(code uint16) {
	switch a.AgentState {
	case StateLogout, StateNotReady:
		a.ReasonCode = code
	default:
		a.ReasonCode = 0
	}
}

// SetSkillGroupID retains the id only while AgentState is TALKING or HOLD;
// otherwise it is forced to 0.
func (a *Info) SetSkillGroupID(id uint16) {
	switch a.AgentState {
	case StateTalking, StateHold:
		a.SkillGroupID = id
	default:
		a.SkillGroupID = 0
	}
}

// SetDirection retains the value only while AgentState is TALKING,
// RESERVED, WORK_NOT_READY, or HOLD; otherwise it is forced to 0.
func (a *Info) SetDirection(direction uint32) {
	switch a.AgentState {
	case StateTalking, StateReserved, StateWorkNotReady, StateHold:
		a.Direction = direction
	default:
		a.Direction = 0
	}
}

// SetAgentExtension clears the extension when AgentState is LOGOUT or
// UNKNOWN; otherwise it is set to the incoming value.
func (a *Info) SetAgentExtension(ext string) {
	switch a.AgentState {
	case StateLogout, StateUnknown:
		a.AgentExtension = ""
	default:
		a.AgentExtension = ext
	}
}

// SetICMAgentID is an unconditional passthrough; the field carries no
// state-dependent invariant.
func (a *Info) SetICMAgentID(id int32) { a.ICMAgentID = id }
