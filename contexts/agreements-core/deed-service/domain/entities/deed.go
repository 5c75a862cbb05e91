package entities

import (
	"strings"
	"time"
)

type DeedKind string

const (
	DeedKindNeed       DeedKind = "need_deed"
	DeedKindFeed       DeedKind = "feed_deed"
	DeedKindAssignment DeedKind = "assignment_deed"
)

type DeedStatus string

const (
	DeedStatusDraft            DeedStatus = "draft"
	DeedStatusOpenForSignature DeedStatus = "open_for_signature"
	DeedStatusSigned           DeedStatus = "signed"
	DeedStatusExecuted         DeedStatus = "executed"
	DeedStatusActive           DeedStatus = "active"
	DeedStatusFulfilled        DeedStatus = "fulfilled"
	DeedStatusVoided           DeedStatus = "voided"
)

type SignerKind string

const (
	SignerKindBacker    SignerKind = "backer"
	SignerKindSupplier  SignerKind = "supplier"
	SignerKindInitiator SignerKind = "initiator"
)

type SignerStatus string

const (
	SignerStatusPending SignerStatus = "pending"
	SignerStatusSigned  SignerStatus = "signed"
)

// DeedDocument is the canonical content the content hash is computed over.
// Field order does not matter; the hash is taken over the canonical JSON
// serialization.
type DeedDocument struct {
	Title     string         `json:"title"`
	ContextID string         `json:"context_id"`
	Terms     map[string]any `json:"terms"`
	Rows      []DocumentRow  `json:"rows"`
	DraftedAt time.Time      `json:"drafted_at"`
}

type DocumentRow struct {
	ItemRef   string  `json:"item_ref"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Deed is an immutable-once-signed legal record. Amendment never updates a
// row in place: it creates a new row with version+1 and prev_deed_id set,
// forming a singly linked version chain.
type Deed struct {
	DeedID      string
	Kind        DeedKind
	Status      DeedStatus
	ContextType string
	ContextID   string
	Document    DeedDocument
	ContentHash string
	Version     int
	PrevDeedID  string
	Signers     []DeedSigner
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SignedAt    *time.Time
}

type DeedSigner struct {
	DeedID   string
	UserID   string
	Kind     SignerKind
	Status   SignerStatus
	SignedAt *time.Time
}

// IsImmutable reports whether the deed may no longer be mutated in place.
// Open-for-signature counts: once signatures are being collected the
// content is frozen.
func (d Deed) IsImmutable() bool {
	switch d.Status {
	case DeedStatusOpenForSignature, DeedStatusSigned, DeedStatusExecuted, DeedStatusActive, DeedStatusFulfilled:
		return true
	default:
		return false
	}
}

// SignerFor returns the declared signer slot for the user.
func (d Deed) SignerFor(userID string) (DeedSigner, bool) {
	trimmed := strings.TrimSpace(userID)
	for _, signer := range d.Signers {
		if signer.UserID == trimmed {
			return signer, true
		}
	}
	return DeedSigner{}, false
}

// SignatureComplete reports whether every required signer kind present on
// the deed has a signed signer.
func (d Deed) SignatureComplete() bool {
	if len(d.Signers) == 0 {
		return false
	}
	signedKinds := make(map[SignerKind]bool)
	requiredKinds := make(map[SignerKind]bool)
	for _, signer := range d.Signers {
		requiredKinds[signer.Kind] = true
		if signer.Status == SignerStatusSigned {
			signedKinds[signer.Kind] = true
		}
	}
	for kind := range requiredKinds {
		if !signedKinds[kind] {
			return false
		}
	}
	return true
}

func (d Deed) Validate() bool {
	if !IsSupportedDeedKind(d.Kind) {
		return false
	}
	if strings.TrimSpace(d.ContextType) == "" || strings.TrimSpace(d.ContextID) == "" {
		return false
	}
	seen := make(map[string]bool, len(d.Signers))
	for _, signer := range d.Signers {
		if strings.TrimSpace(signer.UserID) == "" || !IsSupportedSignerKind(signer.Kind) {
			return false
		}
		if seen[signer.UserID] {
			return false
		}
		seen[signer.UserID] = true
	}
	return true
}

func IsSupportedDeedKind(value DeedKind) bool {
	switch value {
	case DeedKindNeed, DeedKindFeed, DeedKindAssignment:
		return true
	default:
		return false
	}
}

func IsSupportedSignerKind(value SignerKind) bool {
	switch value {
	case SignerKindBacker, SignerKindSupplier, SignerKindInitiator:
		return true
	default:
		return false
	}
}
