package domain

// UserRecords bundles the immutable snapshots one user's signal
// detectors consume. It is fetched once per user at the pipeline entry;
// the detectors themselves perform no I/O.
type UserRecords struct {
	UserID       string
	Accounts     []Account
	Transactions []Transaction
	Liabilities  []Liability
}

// AccountByID returns the account with the given ID, if present.
func (r UserRecords) AccountByID(accountID string) (Account, bool) {
	for _, a := range r.Accounts {
		if a.AccountID == accountID {
			return a, true
		}
	}
	return Account{}, false
}
