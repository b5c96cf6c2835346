package agent

import "github.com/kstaniek/ctmonitor/internal/cti"

// Clock returns the current wall-clock time as Unix seconds. Production
// wiring passes time.Now().Unix(); tests pass a fixed value to make the
// state_duration arithmetic deterministic.
type Clock func() uint64

// Projection owns the agent_id -> *Info map. It is not safe for concurrent
// use; the broker serializes all access to a single goroutine, per design.
type Projection struct {
	now    Clock
	agents map[string]*Info
}

// NewProjection constructs an empty projection driven by now.
func NewProjection(now Clock) *Projection {
	return &Projection{now: now, agents: make(map[string]*Info)}
}

// Get returns the current record for an agent, or nil if never sighted.
func (p *Projection) Get(agentID string) *Info {
	return p.agents[agentID]
}

// Snapshot returns every known agent's current Info, for replay to a
// newly connected downstream client.
func (p *Projection) Snapshot() []Info {
	out := make([]Info, 0, len(p.agents))
	for _, a := range p.agents {
		out = append(out, *a)
	}
	return out
}

// ApplyTeamConfig processes one AGENT_TEAM_CONFIG_EVENT agent record,
// creating the agent on first sighting or updating agent_state and
// state_duration on subsequent ones. It returns the updated record and
// false when the record carries no agent_id; on success the caller issues a
// QUERY_AGENT_STATE_REQ for rec.AgentID to fetch the fields this event
// doesn't carry (skill group, ICM agent id, extension).
func (p *Projection) ApplyTeamConfig(rec cti.AgentTeamConfigAgent) (Info, bool) {
	if rec.AgentID == nil {
		return Info{}, false
	}
	state := uint16(0)
	if rec.AgentState != nil {
		state = *rec.AgentState
	}
	var duration uint32
	if rec.StateDuration != nil {
		duration = *rec.StateDuration
	}
	start := p.now() - uint64(duration)

	a, ok := p.agents[*rec.AgentID]
	if !ok {
		a = New(*rec.AgentID, state, start)
		p.agents[*rec.AgentID] = a
	} else {
		a.SetAgentState(state)
		a.SetStateDuration(start)
	}
	return *a, true
}

// ApplyQueryAgentStateConf applies a QUERY_AGENT_STATE_CONF answer to an
// already-known agent. Unknown agents are dropped silently, as the spec
// requires: this projection never creates a record from a query reply.
func (p *Projection) ApplyQueryAgentStateConf(m cti.QueryAgentStateConf) (Info, bool) {
	if m.AgentID == nil {
		return Info{}, false
	}
	a, ok := p.agents[*m.AgentID]
	if !ok {
		return Info{}, false
	}
	a.SetAgentState(m.AgentState)
	var skillGroupID uint16
	if m.SkillGroupID != nil {
		skillGroupID = uint16(*m.SkillGroupID)
	}
	a.SetSkillGroupID(skillGroupID)
	a.SetICMAgentID(m.ICMAgentID)
	var extension string
	if m.AgentExtension != nil {
		extension = *m.AgentExtension
	}
	a.SetAgentExtension(extension)
	return *a, true
}

// ApplyAgentStateEvent applies an AGENT_STATE_EVENT to an already-known
// agent. Unknown agents are dropped silently.
func (p *Projection) ApplyAgentStateEvent(m cti.AgentStateEvent) (Info, bool) {
	if m.AgentID == nil {
		return Info{}, false
	}
	a, ok := p.agents[*m.AgentID]
	if !ok {
		return Info{}, false
	}
	a.SetAgentState(m.AgentState)
	a.SetSkillGroupID(uint16(m.SkillGroupID))
	a.SetICMAgentID(m.ICMAgentID)
	var extension string
	if m.AgentExtension != nil {
		extension = *m.AgentExtension
	}
	a.SetAgentExtension(extension)
	var direction uint32
	if m.Direction != nil {
		direction = *m.Direction
	}
	a.SetDirection(direction)
	a.SetReasonCode(m.EventReasonCode)
	a.SetStateDuration(p.now() - uint64(m.StateDuration))
	return *a, true
}
