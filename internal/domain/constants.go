package domain

const (
	RoleClient   = "CLIENT"
	RoleProvider = "PROVIDER"
	RoleAdmin    = "ADMIN"
)

// TransactionKind classifies a ledger entry. Amounts are stored positive;
// the kind carries the sign.
type TransactionKind string

const (
	TxKindCredit     TransactionKind = "CREDIT"
	TxKindDebit      TransactionKind = "DEBIT"
	TxKindRefund     TransactionKind = "REFUND"
	TxKindWithdrawal TransactionKind = "WITHDRAWAL"
)

// Sign returns +1 for balance-increasing kinds and -1 for balance-decreasing ones.
func (k TransactionKind) Sign() int {
	switch k {
	case TxKindCredit, TxKindRefund:
		return 1
	case TxKindDebit, TxKindWithdrawal:
		return -1
	}
	return 0
}

func (k TransactionKind) Valid() bool {
	return k.Sign() != 0
}

// DefaultCurrency is the marketplace settlement currency.
const DefaultCurrency = "ZAR"
