package status

// Status represents callback lifecycle status
type Status int

const (
	// Initiated - call placed at the telephony provider
	Initiated Status = iota + 1
	// CallCompleted - end-of-call report received
	CallCompleted
	// SummaryGenerated - final step, summary persisted and user notified
	SummaryGenerated
)

var (
	statusName = map[Status]string{Initiated: "initiated", CallCompleted: "call_completed",
		SummaryGenerated: "summary_generated"}
	nameStatus = map[string]Status{"initiated": Initiated, "call_completed": CallCompleted,
		"summary_generated": SummaryGenerated}
)

func (st Status) String() string {
	return statusName[st]
}

// From returns status obj from string
func From(st string) Status {
	return nameStatus[st]
}
