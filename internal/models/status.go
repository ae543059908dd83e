// internal/models/status.go
package models

// ApplicationStatus is the closed set of review outcomes plus the catch-all
// for anything the backend sends that we do not recognise.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "Pending"
	StatusApproved ApplicationStatus = "Approved"
	StatusRejected ApplicationStatus = "Rejected"
	StatusInReview ApplicationStatus = "In Review"
)

// ParseStatus never fails: unrecognised values map to StatusInReview.
func ParseStatus(s string) ApplicationStatus {
	switch ApplicationStatus(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return ApplicationStatus(s)
	}
	return StatusInReview
}

// Final reports whether the review has concluded.
func (s ApplicationStatus) Final() bool {
	return s == StatusApproved || s == StatusRejected
}

// Progress is the completion percentage shown on the tracker bar.
func (s ApplicationStatus) Progress() int {
	switch s {
	case StatusPending:
		return 0
	case StatusApproved, StatusRejected:
		return 100
	}
	return 33
}

func (s ApplicationStatus) Description() string {
	switch s {
	case StatusApproved:
		return "Congratulations! Your application has been approved."
	case StatusRejected:
		return "We're sorry, but your application has been rejected."
	}
	return "Your application is currently under review by our team."
}

// StepState is the rendering state of one tracker step.
type StepState string

const (
	StepDone     StepState = "done"
	StepCurrent  StepState = "current"
	StepUpcoming StepState = "upcoming"
	StepFailed   StepState = "failed"
)

type TrackingStep struct {
	Label string    `json:"label"`
	State StepState `json:"state"`
}

// TrackingSteps renders Submitted, Under Review and Completed for a status.
func (s ApplicationStatus) TrackingSteps() []TrackingStep {
	steps := []TrackingStep{
		{Label: "Submitted", State: StepDone},
		{Label: "Under Review", State: StepUpcoming},
		{Label: "Completed", State: StepUpcoming},
	}
	switch s {
	case StatusPending:
		steps[1].State = StepCurrent
	case StatusApproved:
		steps[1].State = StepDone
		steps[2].State = StepDone
	case StatusRejected:
		steps[1].State = StepDone
		steps[2].State = StepFailed
	default:
		steps[1].State = StepCurrent
	}
	return steps
}
