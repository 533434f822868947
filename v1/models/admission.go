package models

// AdmissionOutcome is the terminal result of one admission attempt
type AdmissionOutcome string

const (
	AdmissionAccepted        AdmissionOutcome = "accepted"
	AdmissionAlreadyJoined   AdmissionOutcome = "already_joined"
	AdmissionExpired         AdmissionOutcome = "expired"
	AdmissionNotFound        AdmissionOutcome = "not_found"
	AdmissionInvalidPhone    AdmissionOutcome = "invalid_phone"
	AdmissionTransportFailed AdmissionOutcome = "transport_failed"
	AdmissionStoreFailed     AdmissionOutcome = "store_failed"
)

// AdmissionResult is the decision value returned by the admission engine.
// Business outcomes are values here, never errors. InviteLink is set only
// when Outcome is AdmissionAccepted.
type AdmissionResult struct {
	Outcome    AdmissionOutcome
	InviteLink string
}

// EvictionStats aggregates the counts of a single eviction pass
type EvictionStats struct {
	Evicted int
	Failed  int
	Pages   int
}
