package enrollment

import "testing"

func TestTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusActive, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCompleted, false},
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusRejected, false},
		{StatusRejected, StatusActive, false},
		{StatusCancelled, StatusActive, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestCanWrite(t *testing.T) {
	writable := map[Status]bool{
		StatusPending:   false,
		StatusActive:    true,
		StatusCompleted: true,
		StatusRejected:  false,
		StatusCancelled: false,
	}
	for s, want := range writable {
		if got := s.CanWrite(); got != want {
			t.Errorf("CanWrite(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestInitial(t *testing.T) {
	if got := Initial(0); got != StatusActive {
		t.Errorf("free course should enroll active, got %s", got)
	}
	if got := Initial(49.99); got != StatusPending {
		t.Errorf("priced course should enroll pending, got %s", got)
	}
}
