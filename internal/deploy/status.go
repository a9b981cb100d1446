package deploy

// Status is the server-reported lifecycle phase of a deployment. The value
// set may grow server-side; unknown values are tolerated and shown verbatim.
type Status string

const (
	StatusPending   Status = "pending"
	StatusBuilding  Status = "building"
	StatusDeploying Status = "deploying"
	StatusActive    Status = "active"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition can occur.
func (s Status) Terminal() bool {
	return s == StatusActive || s == StatusFailed
}

// RolloutStage is a traffic-shifting checkpoint reported once a deployment
// starts serving. Stages advance monotonically and polling may observe the
// sequence having skipped ahead.
type RolloutStage string

const (
	StageHalfTraffic RolloutStage = "stage1_50"
	StageFullTraffic RolloutStage = "stage2_100"
	StageComplete    RolloutStage = "complete"
)

// Label returns the operator-facing description of the stage. Unknown
// stages render as-is so newer server vocabulary stays visible.
func (s RolloutStage) Label() string {
	switch s {
	case StageHalfTraffic:
		return "50% traffic"
	case StageFullTraffic:
		return "100% traffic"
	case StageComplete:
		return "rollout complete"
	default:
		return string(s)
	}
}
