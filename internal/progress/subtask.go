package progress

// Subtask is an open task of a tracker that must be ended, usually with a
// deferred End so the begin and end calls are always balanced.
//
//	st := progress.Begin(tracker, "Compute")
//	defer st.End(&err)
type Subtask struct {
	tracker     Tracker
	description string
	ended       bool
}

// Begin begins the next subtask of the tracker asserting its description.
// An empty description skips the assertion.
func Begin(tracker Tracker, description string) *Subtask {
	if description == "" {
		tracker.BeginSubtask()
	} else {
		tracker.BeginSubtaskWithDescription(description)
	}
	return &Subtask{tracker: tracker, description: description}
}

// BeginWithVolume is like Begin but sets the volume of the started task.
func BeginWithVolume(tracker Tracker, description string, volume int64) *Subtask {
	st := Begin(tracker, description)
	tracker.SetVolume(volume)
	return st
}

// End ends the subtask, as failed if errp points to an error or the
// goroutine is panicking. The panic is propagated after ending the task.
// Calling End more than once has no effect.
func (s *Subtask) End(errp *error) {
	if s.ended {
		return
	}
	s.ended = true

	if r := recover(); r != nil {
		s.tracker.EndSubtaskWithFailure()
		panic(r)
	}

	if errp != nil && *errp != nil {
		s.tracker.EndSubtaskWithFailure()
		return
	}

	if s.description == "" {
		s.tracker.EndSubtask()
		return
	}
	s.tracker.EndSubtaskWithDescription(s.description)
}
