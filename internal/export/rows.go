package export

var (
	balanceHeader = []any{"Currency", "Account", "Balance", "Decimals", "Amount"}
	totalHeader   = []any{"Currency", "Accounts", "Balance", "Amount"}
)

// balanceValues lays out the balances sheet.
// Columns: Currency | Account | Balance | Decimals | Amount
func balanceValues(st Statement) [][]any {
	data := make([][]any, 0, len(st.Rows)+1)
	data = append(data, balanceHeader)
	for _, r := range st.Rows {
		data = append(data, []any{
			r.Currency.String(), r.Account, r.Balance.String(), int(r.Decimals), r.Display,
		})
	}
	return data
}

// totalValues lays out the totals sheet.
// Columns: Currency | Accounts | Balance | Amount
func totalValues(st Statement) [][]any {
	totals := st.Totals()
	data := make([][]any, 0, len(totals)+1)
	data = append(data, totalHeader)
	for _, t := range totals {
		data = append(data, []any{t.Currency.String(), t.Accounts, t.Balance.String(), t.Display})
	}
	return data
}
