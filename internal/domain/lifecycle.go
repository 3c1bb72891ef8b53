package domain

// Lifecycle is the state of a chat session.
type Lifecycle int

const (
	Idle Lifecycle = iota
	Parsing
	Indexing
	Ready
	Querying
)

func (l Lifecycle) String() string {
	switch l {
	case Idle:
		return "idle"
	case Parsing:
		return "parsing"
	case Indexing:
		return "indexing"
	case Ready:
		return "ready"
	case Querying:
		return "querying"
	default:
		return "unknown"
	}
}

// Busy reports whether an ingestion or a query is in flight.
func (l Lifecycle) Busy() bool {
	return l == Parsing || l == Indexing || l == Querying
}
