package tool

import (
	"errors"

	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/internal/util"
)

// Func is the signature wrapped by FunctionTool.
type Func func(toolCtx *core.ToolContext, args map[string]any) (any, error)

// FunctionTool exposes a plain Go function as a Tool. Arguments are checked
// against the schema before fn runs, and every failure surfaces as a
// *ToolError: VALIDATION_ERROR for bad arguments, the function's own
// *ToolError when it returns one, EXECUTION_ERROR otherwise.
type FunctionTool struct {
	name, description string
	parameters        map[string]any
	fn                Func
}

// NewFunctionTool wraps fn with an explicit argument schema.
func NewFunctionTool(name, description string, parameters map[string]any, fn Func) *FunctionTool {
	return &FunctionTool{name: name, description: description, parameters: parameters, fn: fn}
}

// NewFunctionToolFromStruct derives the argument schema from the json tags
// of argsStruct.
func NewFunctionToolFromStruct(name, description string, argsStruct any, fn Func) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(argsStruct), fn)
}

func (t *FunctionTool) Name() string               { return t.name }
func (t *FunctionTool) Description() string        { return t.description }
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args and runs the function.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	if err := util.ValidateParameters(args, t.parameters); err != nil {
		toolCtx.Logger().Warn("Tool arguments rejected", "tool", t.name, "fc_id", toolCtx.FunctionCallID(), "error", err.Error())
		return nil, &ToolError{Tool: t.name, Message: "parameter validation failed: " + err.Error(), Code: CodeValidation, Details: err}
	}

	res, err := t.fn(toolCtx, args)
	if err == nil {
		return res, nil
	}

	var te *ToolError
	if !errors.As(err, &te) {
		te = &ToolError{Tool: t.name, Message: err.Error(), Code: CodeExecution}
	}
	toolCtx.Logger().Debug("Tool returned error", "tool", t.name, "code", te.Code, "error", te.Message)
	return nil, te
}
