package domain

// AgentID identifies one acting marketplace participant. The empty string
// means "nobody" (e.g. a listing with no bidder).
type AgentID string

// Agent is the identity under which the bot lists and bids. It is passed
// explicitly into every workflow call; there is no ambient bot identity.
type Agent struct {
	ID   AgentID
	Name string
}
