package game

// Status represents where a match is in its lifecycle. Transitions only move
// forward: WAITING -> ACTIVE -> FINISHED.
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
)
