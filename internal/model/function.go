package model

// ParamType is the primitive type of a function parameter.
type ParamType string

const (
	ParamString ParamType = "string"
	ParamNumber ParamType = "number"
)

// ParamSpec declares one named parameter of a callable function.
type ParamSpec struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Required    bool      `json:"required,omitempty"`
}

// FunctionSpec declares a side-effecting operation the model may request.
// The description is consumed by the model, never executed.
type FunctionSpec struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ParamSpec `json:"params,omitempty"`
}

// Required returns the names of the required parameters.
func (f FunctionSpec) Required() []string {
	var names []string
	for _, p := range f.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// FunctionCallResult is the structured outcome of executing a function
// requested by the model. Failure results flow back into narration, not
// into request-level errors.
type FunctionCallResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	// Message is a pre-canned user-facing sentence; when set it is used
	// verbatim instead of a second model pass.
	Message string `json:"message,omitempty"`
}
