package cqrs

// ---------- Ledger queries ----------

// ListTransactionsQuery filters the session user's history. Search matches
// sender name, recipient name or description case-insensitively; Direction
// is one of "", "all", "sent", "received".
type ListTransactionsQuery struct {
	Search    string
	Direction string
}

// ---------- Admin queries ----------

// AdminUsersQuery searches the directory by name or email.
type AdminUsersQuery struct {
	Search string
}

// AdminTransactionsQuery searches the whole log by names or description.
type AdminTransactionsQuery struct {
	Search string
}

type RecentActivityQuery struct {
	Limit int
}
