package progress

import (
	"strings"

	"github.com/slok/galgo/internal/log"
	"github.com/slok/galgo/internal/model"
	"github.com/slok/galgo/internal/task"
)

const taskPathSeparator = " :: "

// taskLogger logs the lifecycle and the percentage increments of the tracked
// tasks. It's not safe for concurrent use, the tracker serializes its calls.
type taskLogger struct {
	logger      log.Logger
	jobID       model.JobID
	path        []string
	lastPercent int64
}

func newTaskLogger(logger log.Logger, jobID model.JobID) *taskLogger {
	return &taskLogger{logger: logger, jobID: jobID, lastPercent: -1}
}

func (l *taskLogger) current() log.Logger {
	return l.logger.WithValues(log.Kv{
		"task": strings.Join(l.path, taskPathSeparator),
		"job":  l.jobID.String(),
	})
}

func (l *taskLogger) begin(t *task.Task) {
	l.path = append(l.path, t.Description())
	l.lastPercent = -1
	l.current().Infof(":: Start")
}

func (l *taskLogger) end(failed bool) {
	if failed {
		l.current().Warningf(":: Failed")
	} else {
		if l.lastPercent >= 0 && l.lastPercent < 100 {
			l.current().Infof("100%%")
		}
		l.current().Infof(":: Finished")
	}
	if len(l.path) > 0 {
		l.path = l.path[:len(l.path)-1]
	}
	l.lastPercent = -1
}

func (l *taskLogger) reset() { l.lastPercent = -1 }

// progress logs the percentage of p when it increased since the last log.
func (l *taskLogger) progress(p task.Progress) {
	rel, ok := p.Relative()
	if !ok {
		return
	}
	percent := int64(rel * 100)
	if percent > 100 {
		percent = 100
	}
	if percent <= l.lastPercent {
		return
	}
	l.lastPercent = percent
	l.current().Infof("%d%%", percent)
}

func (l *taskLogger) info(msg string)    { l.current().Infof(":: %s", msg) }
func (l *taskLogger) warning(msg string) { l.current().Warningf(":: %s", msg) }
func (l *taskLogger) debug(msg string)   { l.current().Debugf(":: %s", msg) }
