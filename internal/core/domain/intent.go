package domain

// Intent is the coarse legal topic of a question. It filters retrieval.
type Intent string

const (
	IntentTenancy   Intent = "tenancy"
	IntentConsumer  Intent = "consumer"
	IntentContracts Intent = "contracts"
	// IntentUnknown is only produced when retrieval runs degraded.
	IntentUnknown Intent = "unknown"
)

// IsTopic reports whether the intent names a topic guides can be filed under.
func (i Intent) IsTopic() bool {
	switch i {
	case IntentTenancy, IntentConsumer, IntentContracts:
		return true
	default:
		return false
	}
}

func (i Intent) String() string {
	return string(i)
}
