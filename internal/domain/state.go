package domain

// AppointmentState is the lifecycle position of an appointment.
type AppointmentState string

const (
	StatePending  AppointmentState = "pending"
	StateAccepted AppointmentState = "accepted"
	StateRejected AppointmentState = "rejected"
)

// Valid reports whether s is one of the known states.
func (s AppointmentState) Valid() bool {
	switch s {
	case StatePending, StateAccepted, StateRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s AppointmentState) Terminal() bool {
	return s == StateAccepted || s == StateRejected
}

// CanTransition reports whether an appointment may move from s to next.
// Only pending appointments can be decided.
func (s AppointmentState) CanTransition(next AppointmentState) bool {
	return s == StatePending && next.Terminal()
}
