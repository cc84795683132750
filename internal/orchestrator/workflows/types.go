package workflows

import "schnorrd/internal/orchestrator/activities"

const (
	QueryStatus = "status"

	StatusGenerating = "generating"
	StatusSaving     = "saving"
	StatusReloading  = "reloading"
	StatusDone       = "done"
)

type GenerateParametersInput struct {
	Level     string
	Certainty int
	MaxSteps  int
	// Attempts bounds generation retries; zero uses the default.
	Attempts int
	// ParamsFile is written when set.
	ParamsFile string
	// ReloadServer asks the signing service to load ParamsFile afterwards.
	ReloadServer bool
}

type GenerateParametersResult struct {
	Params   activities.ParametersPayload
	Saved    bool
	Reloaded bool
}

func WorkflowID(level string) string {
	return "schnorr-params:" + level
}
