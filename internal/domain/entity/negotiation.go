package entity

import "time"

type NegotiationStatus string

const (
	NegotiationProposed  NegotiationStatus = "proposed"
	NegotiationCountered NegotiationStatus = "countered"
	NegotiationAccepted  NegotiationStatus = "accepted"
	NegotiationActive    NegotiationStatus = "active"
	NegotiationCompleted NegotiationStatus = "completed"
	NegotiationDeclined  NegotiationStatus = "declined"
	NegotiationCancelled NegotiationStatus = "cancelled"
)

// transitions is the full lifecycle graph. "countered" is re-entrant: a
// counter-offer can itself be countered. Terminal states have no outgoing
// edges and a negotiation is never deleted, only terminalized.
var transitions = map[NegotiationStatus][]NegotiationStatus{
	NegotiationProposed:  {NegotiationAccepted, NegotiationDeclined, NegotiationCountered},
	NegotiationCountered: {NegotiationAccepted, NegotiationDeclined, NegotiationCountered},
	NegotiationAccepted:  {NegotiationActive},
	NegotiationActive:    {NegotiationCompleted, NegotiationCancelled},
	NegotiationDeclined:  {},
	NegotiationCompleted: {},
	NegotiationCancelled: {},
}

func (s NegotiationStatus) CanTransitionTo(next NegotiationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s NegotiationStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// TradeOffer is one side's offer within a negotiation round.
type TradeOffer struct {
	OfferedSkills   []string `json:"offered_skills" firestore:"offeredSkills"`
	RequestedSkills []string `json:"requested_skills" firestore:"requestedSkills"`
	Credits         int      `json:"credits" firestore:"credits"`
}

func (o *TradeOffer) IsEmpty() bool {
	return o == nil || (len(o.OfferedSkills) == 0 && len(o.RequestedSkills) == 0 && o.Credits == 0)
}

type Negotiation struct {
	ID              string            `json:"id" firestore:"id"`
	InitiatorID     string            `json:"initiator_id" firestore:"initiatorId"`
	CounterpartyID  string            `json:"counterparty_id" firestore:"counterpartyId"`
	Participants    []string          `json:"participants" firestore:"participants"`
	OfferedSkills   []string          `json:"offered_skills" firestore:"offeredSkills"`
	RequestedSkills []string          `json:"requested_skills" firestore:"requestedSkills"`
	Credits         int               `json:"credits" firestore:"credits"`
	Status          NegotiationStatus `json:"status" firestore:"status"`

	// ProposerID is the party whose offer is currently on the table; a
	// counter flips it to the responder for the next round.
	ProposerID   string      `json:"proposer_id" firestore:"proposerId"`
	CounterOffer *TradeOffer `json:"counter_offer,omitempty" firestore:"counterOffer,omitempty"`

	TerminationReason string `json:"termination_reason,omitempty" firestore:"terminationReason,omitempty"`

	// Version backs the optimistic-concurrency commit protocol: every
	// committed transition increments it, a commit presenting a stale
	// version fails with CONFLICT.
	Version int64 `json:"version" firestore:"version"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// ResponderID returns the non-proposing party for the current round.
func (n *Negotiation) ResponderID() string {
	if n.ProposerID == n.InitiatorID {
		return n.CounterpartyID
	}
	return n.InitiatorID
}

func (n *Negotiation) IsParticipant(userID string) bool {
	return userID == n.InitiatorID || userID == n.CounterpartyID
}
