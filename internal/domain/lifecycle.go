package domain

// InterestStatus is a node of the lead lifecycle graph:
//
//	INTERESTED -> CONTACT_SHARED -> PAID_ACCESS
//	INTERESTED | CONTACT_SHARED -> CANCELLED
type InterestStatus string

const (
	InterestInterested    InterestStatus = "INTERESTED"
	InterestContactShared InterestStatus = "CONTACT_SHARED"
	InterestPaidAccess    InterestStatus = "PAID_ACCESS"
	InterestCancelled     InterestStatus = "CANCELLED"
)

var interestEdges = map[InterestStatus][]InterestStatus{
	InterestInterested:    {InterestContactShared, InterestCancelled},
	InterestContactShared: {InterestPaidAccess, InterestCancelled},
}

// CanTransition reports whether the graph has an edge from s to next.
func (s InterestStatus) CanTransition(next InterestStatus) bool {
	for _, to := range interestEdges[s] {
		if to == next {
			return true
		}
	}
	return false
}

// Predecessors returns the states from which next is reachable in one step.
func Predecessors(next InterestStatus) []InterestStatus {
	var out []InterestStatus
	for _, from := range []InterestStatus{InterestInterested, InterestContactShared} {
		if from.CanTransition(next) {
			out = append(out, from)
		}
	}
	return out
}

// Terminal reports whether no transition leaves s.
func (s InterestStatus) Terminal() bool { return len(interestEdges[s]) == 0 }
