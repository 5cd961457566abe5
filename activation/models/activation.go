package models

import "time"

// MaxDailyLimit is the highest daily spending limit a card can be activated with.
const MaxDailyLimit = 5000

// Currencies lists the settlement currencies a card can be activated in.
var Currencies = []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "CNY", "INR", "ZAR"}

func IsSupportedCurrency(currency string) bool {
	for _, c := range Currencies {
		if c == currency {
			return true
		}
	}
	return false
}

type Activation struct {
	ID            string    `json:"id"`
	CardType      string    `json:"cardType"`
	LastSixDigits string    `json:"lastSixDigits"`
	HolderName    string    `json:"holderName"`
	Currency      string    `json:"currency"`
	DailyLimit    int       `json:"dailyLimit"`
	Accept        bool      `json:"accept"`
	PINHash       string    `json:"-"`
	UserIP        string    `json:"userIp,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ActivationRequest is the activation form as submitted by the card holder.
// Digit fields, the limit and accept may arrive as JSON strings, numbers
// or booleans.
type ActivationRequest struct {
	CardType      string    `json:"cardType"`
	LastSixDigits FormValue `json:"lastSixDigits"`
	HolderName    string    `json:"holderName"`
	Currency      string    `json:"currency"`
	DailyLimit    FormValue `json:"dailyLimit"`
	Accept        FormValue `json:"accept"`
	PIN           FormValue `json:"pin"`
}

type DigitsRequest struct {
	LastSixDigits FormValue `json:"lastSixDigits"`
}
