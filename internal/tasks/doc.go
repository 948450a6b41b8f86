// Package tasks implements the manifest engine: the on-disk task
// manifest, dependency resolution, status transitions, and context
// extraction.
//
// # Manifest
//
// The manifest is a single JSON document (vtm.json by default):
//
//	{
//	  "version": 1,
//	  "project": {"name": "my-project"},
//	  "stats": {"total": 2, "pending": 1, "completed": 1, ...},
//	  "tasks": [
//	    {
//	      "id": "T-001",
//	      "title": "Implement parser",
//	      "status": "completed",
//	      "dependencies": [],
//	      "acceptance_criteria": ["parses valid input"],
//	      "files": {"create": ["parser.go"]},
//	      "source": "specs/parser.md"
//	    },
//	    {"id": "T-002", "title": "Wire parser into CLI",
//	     "status": "pending", "dependencies": ["T-001"]}
//	  ]
//	}
//
// stats and every task's blocks list are derived fields, recomputed
// inside Save and never trusted from caller input.
//
// # Persistence
//
// FileStore owns the manifest file. Load validates the document against
// an embedded JSON schema and rejects duplicate task ids; Save writes
// atomically (temp file in the same directory, fsync, rename), so
// readers never observe a half-written manifest. Cross-process writers
// are not coordinated: concurrent invocations race last-rename-wins,
// an accepted limitation for a local single-developer tool.
//
// # Lifecycle
//
// pending -> in_progress -> completed, with blocked reachable from
// pending and reset returning any non-terminal task to pending.
// Completed is terminal; re-opening requires force.
//
// # Usage
//
//	store := tasks.NewFileStore("vtm.json")
//	m, err := store.Load()
//	ready, blocked, err := tasks.Ready(m.Tasks)
//
//	mu := tasks.NewMutator(store)
//	_, err = mu.Start("T-002", false)
//	_, newlyReady, err := mu.Complete("T-002", evidence, false)
package tasks
