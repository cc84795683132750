package workflows

import (
	"time"

	"schnorrd/internal/orchestrator/activities"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const defaultGenerationAttempts = 5

// GenerateParametersWorkflow generates a parameter set with retries, then optionally
// saves it and tells the signing service to reload.
func GenerateParametersWorkflow(ctx workflow.Context, input GenerateParametersInput) (GenerateParametersResult, error) {
	logger := workflow.GetLogger(ctx)
	status := StatusGenerating
	if err := workflow.SetQueryHandler(ctx, QueryStatus, func() (string, error) {
		return status, nil
	}); err != nil {
		return GenerateParametersResult{}, err
	}

	attempts := input.Attempts
	if attempts <= 0 {
		attempts = defaultGenerationAttempts
	}
	genCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        1 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        30 * time.Second,
			MaximumAttempts:        int32(attempts),
			NonRetryableErrorTypes: []string{activities.ErrTypeUnknownLevel},
		},
	})
	ioCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        1 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        30 * time.Second,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{activities.ErrTypeInvalidParameters},
		},
	})

	var result GenerateParametersResult
	err := workflow.ExecuteActivity(genCtx, activities.GenerateParametersActivityName, activities.GenerateParametersInput{
		Level:     input.Level,
		Certainty: input.Certainty,
		MaxSteps:  input.MaxSteps,
	}).Get(ctx, &result.Params)
	if err != nil {
		logger.Error("parameter generation failed", "level", input.Level, "error", err)
		return GenerateParametersResult{}, err
	}

	if input.ParamsFile != "" {
		status = StatusSaving
		err := workflow.ExecuteActivity(ioCtx, activities.SaveParametersActivityName, activities.SaveParametersInput{
			Path:      input.ParamsFile,
			Certainty: input.Certainty,
			Params:    result.Params,
		}).Get(ctx, nil)
		if err != nil {
			logger.Error("saving parameters failed", "path", input.ParamsFile, "error", err)
			return result, err
		}
		result.Saved = true

		if input.ReloadServer {
			status = StatusReloading
			var reloaded activities.ParametersPayload
			if err := workflow.ExecuteActivity(ioCtx, activities.ReloadServerActivityName).Get(ctx, &reloaded); err != nil {
				logger.Error("server reload failed", "error", err)
				return result, err
			}
			result.Reloaded = reloaded == result.Params
		}
	}

	status = StatusDone
	return result, nil
}
