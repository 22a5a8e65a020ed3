package models

// Procedure is an ordered list of stages, each a list of concurrently
// executed typed requests (itself possibly RunProcedure, enabling nesting).
type Procedure = Resource[ProcedureConfig, ProcedureInfo]

type ProcedureConfig struct {
	Stages []ProcedureStage `json:"stages" bson:"stages"`
}

type ProcedureStage struct {
	Name       string      `json:"name,omitempty" bson:"name,omitempty"`
	Executions []Execution `json:"executions" bson:"executions"`
}

// Execution is a typed request embedded inside a Procedure stage. Variant is
// the ExecuteRequest discriminant (pkg/execution.RequestType as a string so
// models stays free of an import cycle on pkg/execution); Params is the
// variant's JSON params blob, decoded by pkg/execution at run time.
type Execution struct {
	Variant string          `json:"type" bson:"type"`
	Params  map[string]any  `json:"params" bson:"params"`
}

type ProcedurePartialConfig struct {
	Stages *[]ProcedureStage `json:"stages,omitempty"`
}

type ProcedureInfo struct{}
