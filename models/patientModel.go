package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used for wallets created without an explicit currency.
const DefaultCurrency = "NGN"

// TransactionTypePayment marks a ledger entry that settled an invoice.
const TransactionTypePayment = "Payment"

// Patient model
type Patient struct {
	Base
	FacilityID  string `gorm:"column:facility_id;size:36;not null;index" json:"facility_id"`
	FirstName   string `gorm:"column:first_name;size:100;not null" json:"first_name"`
	LastName    string `gorm:"column:last_name;size:100;not null;index" json:"last_name"`
	PatientCode string `gorm:"column:patient_code;size:20;not null;uniqueIndex" json:"patient_code"`
	Phone       string `gorm:"column:phone;size:20" json:"phone"`
	Email       string `gorm:"column:email;size:100;index" json:"email"`
	DateOfBirth string `gorm:"column:date_of_birth;size:10;not null" json:"date_of_birth"`
	Gender      string `gorm:"column:gender;size:10" json:"gender"`
	Address     string `gorm:"column:address;size:500" json:"address"`
}

func (Patient) TableName() string {
	return "patients"
}

// FullName joins first and last name.
func (p Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Wallet is the prepaid balance owned by exactly one patient.
type Wallet struct {
	Base
	PatientID           string          `gorm:"column:patient_id;size:36;not null;uniqueIndex" json:"patient_id"`
	Balance             decimal.Decimal `gorm:"column:balance;type:numeric(18,2);not null;default:0" json:"balance"`
	Currency            string          `gorm:"column:currency;size:3;not null" json:"currency"`
	LastTransactionDate time.Time       `gorm:"column:last_transaction_date" json:"last_transaction_date"`
}

func (Wallet) TableName() string {
	return "patient_wallets"
}

// WalletTransaction is an append-only ledger entry against a wallet.
type WalletTransaction struct {
	Base
	WalletID        string          `gorm:"column:wallet_id;size:36;not null;index" json:"wallet_id"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	TransactionType string          `gorm:"column:transaction_type;size:20;not null" json:"transaction_type"`
	Description     string          `gorm:"column:description;size:500" json:"description"`
	Reference       string          `gorm:"column:reference;size:50;index" json:"reference"`
	BalanceBefore   decimal.Decimal `gorm:"column:balance_before;type:numeric(18,2);not null" json:"balance_before"`
	BalanceAfter    decimal.Decimal `gorm:"column:balance_after;type:numeric(18,2);not null" json:"balance_after"`
	InvoiceID       *string         `gorm:"column:invoice_id;size:36;index" json:"invoice_id,omitempty"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
