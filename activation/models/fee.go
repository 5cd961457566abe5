package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// prices are rendered as JSON numbers for the payment page
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	LabelVAT              = "VAT (value added tax)"
	LabelCardActivation   = "Card activation"
	LabelCardMaintenance  = "Card maintenance"
	LabelSecureConnection = "3D visa/master/verve secure connection"
)

// FeeLabels is the canonical set of fee line items, in display order.
var FeeLabels = []string{LabelVAT, LabelCardActivation, LabelCardMaintenance, LabelSecureConnection}

type FeeLineItem struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Price     decimal.Decimal `json:"price"`
	Position  int             `json:"-"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// FeeUpdate carries the four fee values an admin submits. Values may be JSON
// numbers or numeric strings.
type FeeUpdate struct {
	VAT              FormValue `json:"vat"`
	CardActivation   FormValue `json:"cardActivation"`
	CardMaintenance  FormValue `json:"cardMaintenance"`
	SecureConnection FormValue `json:"secureConnection"`
}

// Values returns the update's fields in FeeLabels order.
func (u FeeUpdate) Values() []FormValue {
	return []FormValue{u.VAT, u.CardActivation, u.CardMaintenance, u.SecureConnection}
}
