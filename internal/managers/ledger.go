package managers

import "studyroom/internal/models"

// StudyTimeLedger is the external study-time collaborator: cumulative
// minutes per registered member. Lookups feed join-time snapshots;
// increments happen on disconnect. Failures never fail a room
// operation, callers degrade to zero.
type StudyTimeLedger interface {
	TotalMinutes(userDBID uint) (int64, error)
	AddMinutes(userDBID uint, minutes int64) error
}

// PresencePublisher mirrors room lifecycle onto an advisory channel
// for other services. Best effort only.
type PresencePublisher interface {
	Publish(event models.PresenceEvent)
}
