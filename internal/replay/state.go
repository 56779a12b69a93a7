package replay

// State is a step of a run. States are reached strictly in order; a
// failure leaves the run in the last state it completed.
type State int

const (
	Start State = iota
	ArgsValidated
	ParentResolved
	BlockFetched
	SnapshotCreated
	ProjectAssembled
	ArtifactsRelocated
	LockfileFetched
	Done
)

var stateNames = [...]string{
	Start:              "start",
	ArgsValidated:      "args-validated",
	ParentResolved:     "parent-resolved",
	BlockFetched:       "block-fetched",
	SnapshotCreated:    "snapshot-created",
	ProjectAssembled:   "project-assembled",
	ArtifactsRelocated: "artifacts-relocated",
	LockfileFetched:    "lockfile-fetched",
	Done:               "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
