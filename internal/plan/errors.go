package plan

import "errors"

var (
	ErrDeploymentToAddAlreadyExists = errors.New("deployment to add already exists")
	ErrDeploymentToRemoveNotFound   = errors.New("deployment to remove not found")
	ErrDeploymentToReplaceNotFound  = errors.New("deployment to replace not found")
	ErrDeploymentToBindNotFound     = errors.New("deployment to bind not found")
	ErrDeploymentToReleaseNotFound  = errors.New("deployment to release not found")
	ErrRequirementNotFound          = errors.New("requirement not found")
	ErrDeploymentNotFound           = errors.New("deployment not found")

	// ErrTargetContainsCycles is returned when replaying a formula yields a cyclic configuration.
	ErrTargetContainsCycles = errors.New("target configuration contains cycles")
)
