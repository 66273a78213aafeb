package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"swiftpolicy/pkg/domain"
)

const ContentTypeText = "text/plain; charset=utf-8"

// Certificate is the content of an insurance certificate as issued. It is a
// snapshot: later edits to the policy do not change an issued certificate.
type Certificate struct {
	DocumentID   domain.DocumentID
	PolicyID     domain.PolicyID
	OwnerID      domain.CustomerID
	HolderName   string
	VRM          domain.VRM
	Make         string
	Model        string
	VehicleClass domain.VehicleClass
	Cover        domain.CoverType
	Duration     domain.Duration
	Premium      decimal.Decimal
	ValidFrom    time.Time
	ValidTo      time.Time
	IssuedAt     time.Time
	// Token is the signed compact JWT printed on the certificate.
	Token string
}

// StorageKey is where the rendered certificate lives in document storage.
func (c Certificate) StorageKey() string {
	return StorageKey(c.PolicyID, c.DocumentID)
}

func StorageKey(policyID domain.PolicyID, docID domain.DocumentID) string {
	return fmt.Sprintf("certificates/%s/%s.txt", policyID, docID)
}

// Document is a stored rendered certificate.
type Document struct {
	ID          domain.DocumentID
	PolicyID    domain.PolicyID
	StorageKey  string
	ContentType string
	Content     []byte
	Token       string
	CreatedAt   time.Time
}

func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Content = append([]byte(nil), d.Content...)
	return &out
}
