package dashboard

import (
	"time"

	"github.com/rs/zerolog"
)

// SweepJob expires idle sessions. It is scheduled every minute.
type SweepJob struct {
	sessions *SessionManager
	log      zerolog.Logger
	now      func() time.Time
}

// NewSweepJob creates a session sweep job
func NewSweepJob(sessions *SessionManager, log zerolog.Logger) *SweepJob {
	return &SweepJob{
		sessions: sessions,
		log:      log.With().Str("job", "session_sweep").Logger(),
		now:      time.Now,
	}
}

// Run removes idle sessions
func (j *SweepJob) Run() error {
	if removed := j.sessions.Sweep(j.now()); removed > 0 {
		j.log.Info().
			Int("removed", removed).
			Int("remaining", j.sessions.Count()).
			Msg("Expired idle sessions")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *SweepJob) Name() string {
	return "session_sweep"
}
