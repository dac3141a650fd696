package ticket

// QueryTicketsModel holds the filters for listing tickets.
type QueryTicketsModel struct {
	Ids         []int64
	CustomerIds []int64
	Status      string
	Limit       int
	Offset      int
}
