package tasks

// Ready partitions pending tasks into ready and blocked sets. A task is
// ready iff its status is pending and every dependency is completed.
// Tasks keep their declared order; when several tasks are simultaneously
// ready there is no priority tie-break.
//
// A dangling dependency or a dependency cycle is a data-integrity error,
// not a workflow state: Ready fails fast instead of quietly reporting
// such tasks as blocked.
func Ready(all []Task) (ready, blocked []Task, err error) {
	if err := CheckGraph(all); err != nil {
		return nil, nil, err
	}

	byID := make(map[string]*Task, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}

	for _, t := range all {
		if t.Status != StatusPending {
			continue
		}
		waiting := false
		for _, dep := range t.Dependencies {
			if byID[dep].Status != StatusCompleted {
				waiting = true
				break
			}
		}
		if waiting {
			blocked = append(blocked, t)
		} else {
			ready = append(ready, t)
		}
	}

	return ready, blocked, nil
}

// IncompleteDeps returns the ids of t's dependencies that are not yet
// completed. Assumes the graph has already passed CheckGraph.
func IncompleteDeps(m *Manifest, t *Task) []string {
	var waiting []string
	for _, dep := range t.Dependencies {
		d := m.FindTask(dep)
		if d == nil || d.Status != StatusCompleted {
			waiting = append(waiting, dep)
		}
	}
	return waiting
}

// CheckGraph validates the dependency relation over the task set:
// every dependency id must resolve, and the graph must be acyclic.
// Depth-first traversal with a recursion stack, O(V+E).
func CheckGraph(all []Task) error {
	byID := make(map[string]*Task, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}

	for _, t := range all {
		for _, dep := range t.Dependencies {
			if _, ok := byID[dep]; !ok {
				return &DanglingDependencyError{TaskID: t.ID, DepID: dep}
			}
		}
	}

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(all))

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch state[id] {
		case done:
			return nil
		case inStack:
			// Trim the path to the cycle itself.
			for i, p := range path {
				if p == id {
					return &CycleError{Tasks: append(path[i:], id)}
				}
			}
			return &CycleError{Tasks: append(path, id)}
		}
		state[id] = inStack
		path = append(path, id)
		for _, dep := range byID[id].Dependencies {
			if err := visit(dep, path); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for _, t := range all {
		if state[t.ID] == unvisited {
			if err := visit(t.ID, nil); err != nil {
				return err
			}
		}
	}

	return nil
}
