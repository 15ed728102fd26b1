package domain

import "time"

// PadStatus tracks a pad directive's lifecycle.
type PadStatus string

const (
	PadStatusArmed        PadStatus = "armed"
	PadStatusMaterialized PadStatus = "materialized"
	PadStatusUnused       PadStatus = "unused"
)

// PendingPad is an armed pad waiting for the balance assertion that will
// materialize it. A later pad for the same account supersedes an armed one;
// pads still armed when processing finishes are reported unused.
type PendingPad struct {
	Date          time.Time
	Account       AccountName
	SourceAccount AccountName
	Status        PadStatus
	UsedAt        *time.Time // assertion date that consumed the pad
	Source        SourceLoc
}

// Materialize marks the pad consumed by an assertion.
func (p *PendingPad) Materialize() error {
	if p.Status != PadStatusArmed {
		return ErrPadNotArmed
	}
	p.Status = PadStatusMaterialized
	return nil
}
