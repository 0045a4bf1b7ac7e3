package schema

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// -----------------------------------------------------------------------------
// Validator interface
// -----------------------------------------------------------------------------

type Validator interface {
	Validate(ctx context.Context) error
}

// -----------------------------------------------------------------------------
// CompositeValidator
// -----------------------------------------------------------------------------

// CompositeValidator allows combining multiple validators
type CompositeValidator struct {
	validators []Validator
}

func NewCompositeValidator(validators ...Validator) *CompositeValidator {
	return &CompositeValidator{
		validators: validators,
	}
}

func (v *CompositeValidator) AddValidator(validator Validator) {
	v.validators = append(v.validators, validator)
}

func (v *CompositeValidator) Validate(ctx context.Context) error {
	for _, validator := range v.validators {
		if err := validator.Validate(ctx); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// StructValidator
// -----------------------------------------------------------------------------

type StructValidator struct {
	validate *validator.Validate
	value    any
}

func NewStructValidator(value any) *StructValidator {
	return &StructValidator{
		validate: validator.New(),
		value:    value,
	}
}

func (v *StructValidator) Validate(_ context.Context) error {
	return v.validate.Struct(v.value)
}

func (v *StructValidator) RegisterValidation(tag string, fn validator.Func) error {
	return v.validate.RegisterValidation(tag, fn)
}

// -----------------------------------------------------------------------------
// NodeTypeValidator
// -----------------------------------------------------------------------------

var knownDataTypes = map[DataType]struct{}{
	TypeAny: {}, TypeString: {}, TypeNumber: {}, TypeBoolean: {},
	TypeObject: {}, TypeArray: {}, TypeBinary: {},
}

// NodeTypeValidator checks port data types and the config schema of a node type.
type NodeTypeValidator struct {
	nodeType *NodeType
}

func NewNodeTypeValidator(nt *NodeType) *NodeTypeValidator {
	return &NodeTypeValidator{nodeType: nt}
}

func (v *NodeTypeValidator) Validate(ctx context.Context) error {
	for _, ports := range []map[string]DataType{v.nodeType.Inputs, v.nodeType.Outputs} {
		for port, dt := range ports {
			if _, ok := knownDataTypes[dt]; !ok {
				return fmt.Errorf("port %q has unknown data type %q", port, dt)
			}
		}
	}
	if v.nodeType.DefaultLatency < 0 {
		return fmt.Errorf("default latency cannot be negative")
	}
	if _, err := v.nodeType.ConfigSchema.Compile(ctx); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	return nil
}
