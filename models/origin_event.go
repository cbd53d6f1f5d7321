package models

import (
	"encoding/json"
	"fmt"
)

// OriginKind discriminates which downstream ledger an invoice feeds.
type OriginKind string

const (
	OriginTip    OriginKind = "tip"
	OriginPledge OriginKind = "pledge"
)

// OriginEvent is the opaque payload attached to an invoice at creation.
// The gateway never interprets Payload; it only reads Kind to pick the
// outbound event type after a payment lands.
type OriginEvent struct {
	Kind    OriginKind      `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (o OriginEvent) Validate() error {
	switch o.Kind {
	case OriginTip, OriginPledge:
		return nil
	}
	return fmt.Errorf("unknown origin event kind: %q", o.Kind)
}
