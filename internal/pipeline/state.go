package pipeline

// State is a step of the merge state machine:
//
//	Idle → WorkspaceReady → Fetching → [Transforming] → Assembling → Publishing → Cleanup → Done
//
// Any step may jump to Cleanup, which then ends in Failed.
type State string

const (
	StateIdle           State = "idle"
	StateWorkspaceReady State = "workspace_ready"
	StateFetching       State = "fetching"
	StateTransforming   State = "transforming"
	StateAssembling     State = "assembling"
	StatePublishing     State = "publishing"
	StateCleanup        State = "cleanup"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Observer is notified of every state transition of a merge.
type Observer func(State)
