package enrollment

// Status is the lifecycle state of a learner's enrollment in a course.
// It gates every write into the progress store.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// transitions lists the allowed moves. completed is reached only through
// the completion evaluator, never by a direct caller request; it is listed
// here so the store can validate the machine uniformly.
var transitions = map[Status][]Status{
	StatusPending: {StatusActive, StatusRejected},
	StatusActive:  {StatusCompleted, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether s -> to is a legal machine move.
func (s Status) CanTransitionTo(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// CanWrite reports whether a record in this state may accept new
// lesson/quiz/exam/assignment writes.
func (s Status) CanWrite() bool {
	return s == StatusActive || s == StatusCompleted
}

// Terminal reports whether the state has no outgoing transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Initial picks the starting state for a new record: free courses enroll
// straight to active, priced courses wait for an approval event.
func Initial(price float64) Status {
	if price <= 0 {
		return StatusActive
	}
	return StatusPending
}
