package game

import "github.com/lifegoals/quest-api/models"

// Cue names the sound-effect events the original UI played. The state
// machine fires them without knowing what, if anything, listens.
type Cue string

const (
	CueCorrect   Cue = "correct"
	CueIncorrect Cue = "incorrect"
	CueComplete  Cue = "complete"
	CueSuccess   Cue = "success"
)

// Notifier receives fire-and-forget game events. Implementations must not
// block: the session lock is held when cues fire.
type Notifier interface {
	Notify(token string, cue Cue)
}

// Recorder receives the final snapshot of a session when the assessment
// ends, for archival.
type Recorder interface {
	RecordResult(snapshot *models.Snapshot)
}

// NopNotifier discards all cues.
type NopNotifier struct{}

func (NopNotifier) Notify(string, Cue) {}

// NopRecorder discards results.
type NopRecorder struct{}

func (NopRecorder) RecordResult(*models.Snapshot) {}
