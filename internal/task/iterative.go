package task

import "fmt"

// IterativeMode is how an iterative task executes its iterations.
type IterativeMode string

const (
	// IterativeModeFixed executes exactly the declared number of iterations.
	IterativeModeFixed IterativeMode = "fixed"
	// IterativeModeDynamic executes up to the declared number of iterations and
	// can finish earlier, the pending iterations are canceled on finish.
	IterativeModeDynamic IterativeMode = "dynamic"
)

type iterativeState struct {
	mode              IterativeMode
	maxIterations     int
	tasksPerIteration int
}

// Iterative returns a composite task with iterations already unrolled, each
// iteration gets a fresh set of tasks from newIteration.
func Iterative(description string, mode IterativeMode, iterations int, newIteration func() []*Task) *Task {
	if iterations < 0 {
		panic(fmt.Errorf("%w: iterative task %q can't have negative iterations: %d", ErrIllegalState, description, iterations))
	}

	var children []*Task
	perIteration := 0
	for range iterations {
		its := newIteration()
		perIteration = len(its)
		children = append(children, its...)
	}

	t := newTask(description, children)
	t.iterative = &iterativeState{
		mode:              mode,
		maxIterations:     iterations,
		tasksPerIteration: perIteration,
	}
	return t
}

// Mode returns the iterative mode, empty if the task is not iterative.
func (t *Task) Mode() IterativeMode {
	if t.iterative == nil {
		return ""
	}
	return t.iterative.mode
}

// MaxIterations returns the declared iterations of an iterative task.
func (t *Task) MaxIterations() int {
	if t.iterative == nil {
		return 0
	}
	return t.iterative.maxIterations
}

// CurrentIteration returns the number of completed iterations.
func (t *Task) CurrentIteration() int {
	if t.iterative == nil || t.iterative.tasksPerIteration == 0 {
		return 0
	}

	finished := 0
	for _, c := range t.children {
		if c.Status() == StatusFinished {
			finished++
		}
	}
	return finished / t.iterative.tasksPerIteration
}
