package state

import (
	"context"
	"fmt"

	"github.com/komodo-run/komodo-core/pkg/database"
	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/models"
)

// kindForRequestType names the resource kind an ExecuteRequest.Type targets,
// so a Procedure stage's {type, params} entries can be resolved to a
// ResourceTarget without the caller naming the kind redundantly.
func kindForRequestType(t execution.RequestType) (models.Kind, bool) {
	return execution.KindFor(t)
}

// paramString/paramStrings/paramInt read an Execution.Params entry with the
// loose typing JSON-decoded maps carry (a raw map[string]any, numbers as
// float64), defaulting to the zero value when absent.
func paramString(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func paramStrings(params map[string]any, key string) []string {
	raw, ok := params[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func paramInt(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// toExecuteRequest converts one Procedure stage Execution into the
// ExecuteRequest its Type's handler expects. "id" in Params names the
// target resource; "signal" and "time_sec" carry container-op params;
// "services" carries deploy/stack-op params.
func toExecuteRequest(e models.Execution) (execution.ExecuteRequest, error) {
	t := execution.RequestType(e.Variant)
	kind, ok := kindForRequestType(t)
	if !ok {
		return execution.ExecuteRequest{}, fmt.Errorf("state: unrecognized execution type %q", e.Variant)
	}
	id := paramString(e.Params, "id")
	if id == "" {
		return execution.ExecuteRequest{}, fmt.Errorf("state: execution %q missing params.id", e.Variant)
	}
	return execution.ExecuteRequest{
		Type:     t,
		Target:   models.NewTarget(kind, id),
		Signal:   paramString(e.Params, "signal"),
		TimeSec:  paramInt(e.Params, "time_sec"),
		Services: paramStrings(e.Params, "services"),
	}, nil
}

// ProcedureAdapter implements execution.ProcedureLookup.
type ProcedureAdapter struct {
	DB *database.Client
}

var _ execution.ProcedureLookup = (*ProcedureAdapter)(nil)

func (a *ProcedureAdapter) Stages(ctx context.Context, procedureID string) ([]execution.Stage, error) {
	proc, err := database.GetResource[models.ProcedureConfig, models.ProcedureInfo](ctx, a.DB, models.KindProcedure, procedureID)
	if err != nil {
		return nil, err
	}
	stages := make([]execution.Stage, 0, len(proc.Config.Stages))
	for _, s := range proc.Config.Stages {
		reqs := make([]execution.ExecuteRequest, 0, len(s.Executions))
		for _, e := range s.Executions {
			req, err := toExecuteRequest(e)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, req)
		}
		stages = append(stages, execution.Stage{Executions: reqs})
	}
	return stages, nil
}
