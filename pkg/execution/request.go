// Package execution implements the tagged-union ExecuteRequest dispatcher:
// resolve the request to an Update, single-flight guard it via
// pkg/actionstate, perform the operation, and finalize the journal entry.
package execution

import (
	"github.com/komodo-run/komodo-core/pkg/actionstate"
	"github.com/komodo-run/komodo-core/pkg/models"
)

// RequestType names the ExecuteRequest variant, mirroring the operation
// names in models.Operation so dispatch can switch on one string.
type RequestType string

const (
	TypeStartContainer   RequestType = "StartContainer"
	TypeStopContainer    RequestType = "StopContainer"
	TypeRestartContainer RequestType = "RestartContainer"
	TypePauseContainer   RequestType = "PauseContainer"
	TypeUnpauseContainer RequestType = "UnpauseContainer"
	TypeRemoveContainer  RequestType = "RemoveContainer"
	TypeDeploy           RequestType = "Deploy"
	TypeRunBuild         RequestType = "RunBuild"
	TypeCancelBuild      RequestType = "CancelBuild"
	TypeCloneRepo        RequestType = "CloneRepo"
	TypePullRepo         RequestType = "PullRepo"
	TypeBuildRepo        RequestType = "BuildRepo"
	TypeRunProcedure     RequestType = "RunProcedure"
	TypeRunAction        RequestType = "RunAction"
	TypeDeployStack      RequestType = "DeployStack"
	TypePullStack        RequestType = "PullStack"
	TypeStartStack       RequestType = "StartStack"
	TypeStopStack        RequestType = "StopStack"
	TypeDestroyStack     RequestType = "DestroyStack"
	TypeRunSync          RequestType = "RunSync"
	TypeLaunchServer     RequestType = "LaunchServer"
	TypeTestAlerter      RequestType = "TestAlerter"
)

// ExecuteRequest is the {type, params} tagged union every execution
// pipeline call accepts. The variant-specific fields sit flat on the
// struct; only the fields the Type uses are populated.
type ExecuteRequest struct {
	Type   RequestType
	Target models.ResourceTarget

	// Container op params
	Signal  string
	TimeSec int

	// Deploy / stack params
	Services []string

	// Procedure/action params
	NestedExecutions []ExecuteRequest
}

// operationFor maps a request type to the Operation stamped on its Update.
func operationFor(t RequestType) models.Operation {
	switch t {
	case TypeStartContainer:
		return models.OperationStartContainer
	case TypeStopContainer:
		return models.OperationStopContainer
	case TypeRestartContainer:
		return models.OperationRestartContainer
	case TypePauseContainer:
		return models.OperationPauseContainer
	case TypeUnpauseContainer:
		return models.OperationUnpauseContainer
	case TypeRemoveContainer:
		return models.OperationRemoveContainer
	case TypeDeploy:
		return models.OperationDeploy
	case TypeRunBuild:
		return models.OperationRunBuild
	case TypeCancelBuild:
		return models.OperationCancelBuild
	case TypeCloneRepo:
		return models.OperationCloneRepo
	case TypePullRepo:
		return models.OperationPullRepo
	case TypeBuildRepo:
		return models.OperationBuildRepo
	case TypeRunProcedure:
		return models.OperationRunProcedure
	case TypeRunAction:
		return models.OperationRunAction
	case TypeDeployStack:
		return models.OperationDeployStack
	case TypePullStack:
		return models.OperationPullStack
	case TypeStartStack:
		return models.OperationStartStack
	case TypeStopStack:
		return models.OperationStopStack
	case TypeDestroyStack:
		return models.OperationDestroyStack
	case TypeRunSync:
		return models.OperationRunSync
	case TypeLaunchServer:
		return models.OperationLaunchServer
	case TypeTestAlerter:
		return models.OperationTestAlerter
	default:
		return models.OperationNone
	}
}

// KindFor names the resource kind a request type targets, so callers that
// only have {type, id} (pkg/api's /execute, a Procedure stage's nested
// executions) can build the ResourceTarget without naming the kind
// redundantly.
func KindFor(t RequestType) (models.Kind, bool) {
	switch t {
	case TypeStartContainer, TypeStopContainer, TypeRestartContainer,
		TypePauseContainer, TypeUnpauseContainer, TypeRemoveContainer,
		TypeDeploy:
		return models.KindDeployment, true
	case TypeRunBuild, TypeCancelBuild:
		return models.KindBuild, true
	case TypeCloneRepo, TypePullRepo, TypeBuildRepo:
		return models.KindRepo, true
	case TypeRunProcedure:
		return models.KindProcedure, true
	case TypeRunAction:
		return models.KindAction, true
	case TypeDeployStack, TypePullStack, TypeStartStack, TypeStopStack, TypeDestroyStack:
		return models.KindStack, true
	case TypeRunSync:
		return models.KindResourceSync, true
	case TypeLaunchServer:
		return models.KindServer, true
	case TypeTestAlerter:
		return models.KindAlerter, true
	default:
		return "", false
	}
}

// busyFlagFor maps a request type to the actionstate.Flag it must guard.
func busyFlagFor(t RequestType) (flag actionstate.Flag, ok bool) {
	switch t {
	case TypeStartContainer:
		return actionstate.FlagStarting, true
	case TypeStopContainer:
		return actionstate.FlagStopping, true
	case TypeRestartContainer:
		return actionstate.FlagStarting, true
	case TypePauseContainer:
		return actionstate.FlagPausing, true
	case TypeUnpauseContainer:
		return actionstate.FlagUnpausing, true
	case TypeRemoveContainer:
		return actionstate.FlagRemoving, true
	case TypeDeploy, TypeDeployStack:
		return actionstate.FlagDeploying, true
	case TypeRunBuild, TypeBuildRepo:
		return actionstate.FlagBuilding, true
	case TypeCloneRepo:
		return actionstate.FlagCloning, true
	case TypePullRepo, TypePullStack:
		return actionstate.FlagPulling, true
	case TypeRunProcedure, TypeRunAction:
		return actionstate.FlagRunning, true
	case TypeRunSync:
		return actionstate.FlagSyncing, true
	case TypeTestAlerter:
		return actionstate.FlagTesting, true
	case TypeLaunchServer:
		return actionstate.FlagLaunching, true
	case TypeStartStack:
		return actionstate.FlagStarting, true
	case TypeStopStack:
		return actionstate.FlagStopping, true
	case TypeDestroyStack:
		return actionstate.FlagRemoving, true
	default:
		return "", false
	}
}
