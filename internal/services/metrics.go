package services

import "github.com/prometheus/client_golang/prometheus"

// Cascade reasons.
const (
	reasonSlotTaken     = "slot_taken"
	reasonGuestRebooked = "guest_rebooked"
)

var (
	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointment_transitions_total",
			Help: "Appointments entering a state (pending on creation, accepted or rejected on decision).",
		},
		[]string{"state"},
	)
	cascadeRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appointment_cascade_rejections_total",
			Help: "Pending appointments rejected as a side effect, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(transitions, cascadeRejections)
}
