package models

import (
	"fmt"
	"regexp"
)

// participantEmailRegex is a deliberately loose shape check: something,
// an @, something, a dot, something. Deliverability is not our problem.
var participantEmailRegex = regexp.MustCompile(`^.+@.+\..+$`)

// Participant binds one identity (email) to one purchased ticket unit
type Participant struct {
	TicketTypeID int    `json:"ticket_type_id"`
	Email        string `json:"email"`
}

// ParticipantList is the ordered assignment of identities to ticket units.
// Its length must always equal the cart's total unit count.
type ParticipantList []Participant

// NewParticipantList builds an empty assignment sized to the cart, one slot
// per ticket unit in cart order. The first slot defaults to the buyer's own
// email when known.
func NewParticipantList(cart *CartSnapshot, buyerEmail string) ParticipantList {
	list := make(ParticipantList, 0, cart.TotalUnits())
	for _, item := range cart.Items {
		for i := 0; i < item.Quantity; i++ {
			list = append(list, Participant{TicketTypeID: item.TicketTypeID})
		}
	}

	if len(list) > 0 && buyerEmail != "" {
		list[0].Email = buyerEmail
	}

	return list
}

// Resize rebuilds the list against a changed cart, preserving existing
// emails by position and leaving new slots empty. Slot zero keeps the
// buyer-email default when it would otherwise become empty.
func (p ParticipantList) Resize(cart *CartSnapshot, buyerEmail string) ParticipantList {
	resized := NewParticipantList(cart, buyerEmail)
	for i := range resized {
		if i < len(p) && p[i].Email != "" {
			resized[i].Email = p[i].Email
		}
	}
	return resized
}

// IsComplete returns true only if every slot holds a shape-valid email
func (p ParticipantList) IsComplete() bool {
	if len(p) == 0 {
		return false
	}
	for _, entry := range p {
		if !participantEmailRegex.MatchString(entry.Email) {
			return false
		}
	}
	return true
}

// ValidCount returns how many slots hold a shape-valid email
func (p ParticipantList) ValidCount() int {
	count := 0
	for _, entry := range p {
		if participantEmailRegex.MatchString(entry.Email) {
			count++
		}
	}
	return count
}

// Progress returns the advisory completion ratio in [0,1]. It is for
// display only; the submission gate is strict completeness.
func (p ParticipantList) Progress() float64 {
	if len(p) == 0 {
		return 0
	}
	return float64(p.ValidCount()) / float64(len(p))
}

// Validate enforces the submission gate: the list length must match the
// cart's unit count exactly and every entry must pass the shape check.
func (p ParticipantList) Validate(cart *CartSnapshot) error {
	if got, want := len(p), cart.TotalUnits(); got != want {
		return fmt.Errorf("expected %d participants, got %d", want, got)
	}

	for i, entry := range p {
		if entry.Email == "" {
			return fmt.Errorf("participant %d is missing an email", i+1)
		}
		if !participantEmailRegex.MatchString(entry.Email) {
			return fmt.Errorf("participant %d has an invalid email", i+1)
		}
	}

	return nil
}
