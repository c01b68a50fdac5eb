package ledger

import "bitcash/internal/models"

type partyRule int

const (
	partyForbidden partyRule = iota
	partyOptional
	partyRequired
)

// typeRule describes which parties a transaction type moves money between.
type typeRule struct {
	sender   partyRule
	receiver partyRule
	prefix   string
}

var typeRules = map[models.TransactionType]typeRule{
	models.TransactionTypeTransfer:   {sender: partyRequired, receiver: partyRequired, prefix: "TRF"},
	models.TransactionTypePayment:    {sender: partyRequired, receiver: partyRequired, prefix: "PAY"},
	models.TransactionTypeWithdrawal: {sender: partyRequired, receiver: partyOptional, prefix: "WDR"},
	models.TransactionTypeDeposit:    {sender: partyForbidden, receiver: partyRequired, prefix: "DEP"},
}

const agentReferencePrefix = "AG"
