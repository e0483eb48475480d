package rillerr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/rill-lang/rill/frontend/ast"
	"github.com/rill-lang/rill/frontend/types"
)

// enableDebugErrorPrinting makes errors include their stacktrace when printed
const enableDebugErrorPrinting bool = false

// ErrCode identifies the category of a checking error.
type ErrCode int

const (
	None ErrCode = iota

	// unification
	TypeMismatch
	OccursViolation
	ArityMismatch
	EffectRowMismatch

	UnknownIdentifier

	// effects
	UndeclaredEffect
	UnknownEffect

	// capabilities
	MissingCapability
	ReservedTypeName
	CapabilityInType

	// ownership
	UseAfterConsume
	UseInLoop
	AffineCapture
	SecondConsumeInCall

	// patterns
	NonExhaustiveMatch
	RedundantArm

	ResourceLimit

	ParseFailure
	DuplicateDefinition
	MisplacedReference
)

// RillError is a structured checking error: a message, a category code
// and a primary source span.
type RillError interface {
	Error() string
	Code() ErrCode
	ast.Positioner

	withStack([]byte) RillError
	getStack() []byte
}

// Hinter is implemented by errors carrying a one-line actionable
// suggestion.
type Hinter interface {
	Hint() string
}

// Advisory errors are reported but never fail a compilation.
type advisory interface {
	Advisory() bool
}

// IsAdvisory reports whether e is a purely advisory finding.
func IsAdvisory(e RillError) bool {
	a, ok := e.(advisory)
	return ok && a.Advisory()
}

func FormatWithCode(e RillError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := strings.Split(string(e.getStack()), "\n")[6]
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

// New attaches the current stack to an error for debug printing.
func New[E RillError](err E) RillError {
	return err.withStack(debug.Stack())
}

// Unclassified wraps an unexpected internal error with a position.
type Unclassified struct {
	From error
	ast.Positioner
	stack []byte
}

func (e Unclassified) Error() string    { return fmt.Sprintf("unclassified error: %v", e.From) }
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewParse is a syntax error from the parsing collaborator.
type NewParse struct {
	ast.Positioner
	Message string
	Help    string
	stack   []byte
}

func (e NewParse) Error() string { return "syntax error: " + e.Message }
func (e NewParse) Code() ErrCode { return ParseFailure }
func (e NewParse) Hint() string  { return e.Help }
func (e NewParse) getStack() []byte {
	return e.stack
}
func (e NewParse) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewTypeMismatch reports two types that failed to unify. Both types
// are resolved under the substitution at failure time.
type NewTypeMismatch struct {
	ast.Positioner
	First  types.Ty
	Second types.Ty
	stack  []byte
}

func (e NewTypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: expected '%v', but found '%v'", e.First, e.Second)
}
func (e NewTypeMismatch) Code() ErrCode    { return TypeMismatch }
func (e NewTypeMismatch) getStack() []byte { return e.stack }
func (e NewTypeMismatch) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewOccurs reports an infinite type.
type NewOccurs struct {
	ast.Positioner
	Detail string
	stack  []byte
}

func (e NewOccurs) Error() string    { return e.Detail }
func (e NewOccurs) Code() ErrCode    { return OccursViolation }
func (e NewOccurs) getStack() []byte { return e.stack }
func (e NewOccurs) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewArity reports an arity disagreement between two unified types.
type NewArity struct {
	ast.Positioner
	Detail string
	stack  []byte
}

func (e NewArity) Error() string    { return e.Detail }
func (e NewArity) Code() ErrCode    { return ArityMismatch }
func (e NewArity) getStack() []byte { return e.stack }
func (e NewArity) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewEffectRowMismatch reports two effect rows that failed to unify.
type NewEffectRowMismatch struct {
	ast.Positioner
	Detail string
	stack  []byte
}

func (e NewEffectRowMismatch) Error() string    { return e.Detail }
func (e NewEffectRowMismatch) Code() ErrCode    { return EffectRowMismatch }
func (e NewEffectRowMismatch) getStack() []byte { return e.stack }
func (e NewEffectRowMismatch) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewUnknownIdentifier reports a reference to a name not in scope.
// Unknown names are a hard error, never silently defaulted.
type NewUnknownIdentifier struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewUnknownIdentifier) Error() string {
	return fmt.Sprintf("unknown identifier '%s'", e.Name)
}
func (e NewUnknownIdentifier) Code() ErrCode    { return UnknownIdentifier }
func (e NewUnknownIdentifier) getStack() []byte { return e.stack }
func (e NewUnknownIdentifier) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewUndeclaredEffect: the body performs an effect the signature does
// not declare.
type NewUndeclaredEffect struct {
	ast.Positioner
	Fn       string
	Missing  []string
	Declared []string
	stack    []byte
}

func (e NewUndeclaredEffect) Error() string {
	return fmt.Sprintf("function %s performs undeclared effects {%s}", e.Fn, strings.Join(e.Missing, ", "))
}
func (e NewUndeclaredEffect) Hint() string {
	return fmt.Sprintf("add {%s} to the effect annotation of %s", strings.Join(e.Missing, ", "), e.Fn)
}
func (e NewUndeclaredEffect) Code() ErrCode    { return UndeclaredEffect }
func (e NewUndeclaredEffect) getStack() []byte { return e.stack }
func (e NewUndeclaredEffect) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewUnknownEffect: an effect annotation names a tag the language does
// not know.
type NewUnknownEffect struct {
	ast.Positioner
	Tag   string
	stack []byte
}

func (e NewUnknownEffect) Error() string {
	return fmt.Sprintf("unknown effect '%s'", e.Tag)
}
func (e NewUnknownEffect) Code() ErrCode    { return UnknownEffect }
func (e NewUnknownEffect) getStack() []byte { return e.stack }
func (e NewUnknownEffect) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewMissingCapability: a concrete effect in the row has no matching
// capability parameter backing it.
type NewMissingCapability struct {
	ast.Positioner
	Fn     string
	Effect string
	stack  []byte
}

func (e NewMissingCapability) Error() string {
	return fmt.Sprintf("function %s declares effect %s but has no parameter of capability type %s", e.Fn, e.Effect, e.Effect)
}
func (e NewMissingCapability) Hint() string {
	return fmt.Sprintf("add a parameter of type %s to %s", e.Effect, e.Fn)
}
func (e NewMissingCapability) Code() ErrCode    { return MissingCapability }
func (e NewMissingCapability) getStack() []byte { return e.stack }
func (e NewMissingCapability) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewReservedName: a user type collides with a reserved type name.
type NewReservedName struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewReservedName) Error() string {
	return fmt.Sprintf("'%s' is a reserved type name", e.Name)
}
func (e NewReservedName) Code() ErrCode    { return ReservedTypeName }
func (e NewReservedName) getStack() []byte { return e.stack }
func (e NewReservedName) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewCapabilityInType: a type definition tries to store a capability.
type NewCapabilityInType struct {
	ast.Positioner
	TypeName string
	Where    string
	stack    []byte
}

func (e NewCapabilityInType) Error() string {
	return fmt.Sprintf("type %s may not contain a capability type (%s)", e.TypeName, e.Where)
}
func (e NewCapabilityInType) Code() ErrCode    { return CapabilityInType }
func (e NewCapabilityInType) getStack() []byte { return e.stack }
func (e NewCapabilityInType) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewUseAfterConsume: an affine binding is used again after being
// moved. ConsumedAt is the span of the consuming use.
type NewUseAfterConsume struct {
	ast.Positioner
	Name       string
	ConsumedAt ast.Range
	InBranch   bool
	stack      []byte
}

func (e NewUseAfterConsume) Error() string {
	if e.InBranch {
		return fmt.Sprintf("'%s' may already be consumed here: it was consumed in a conditional branch at %v", e.Name, e.ConsumedAt)
	}
	return fmt.Sprintf("'%s' was already consumed at %v", e.Name, e.ConsumedAt)
}
func (e NewUseAfterConsume) Code() ErrCode    { return UseAfterConsume }
func (e NewUseAfterConsume) getStack() []byte { return e.stack }
func (e NewUseAfterConsume) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewUseInLoop: an affine binding from outside a loop is used in its
// body; one static use would mean many runtime consumptions.
type NewUseInLoop struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewUseInLoop) Error() string {
	return fmt.Sprintf("'%s' is affine and may not be used inside a loop body", e.Name)
}
func (e NewUseInLoop) Code() ErrCode    { return UseInLoop }
func (e NewUseInLoop) getStack() []byte { return e.stack }
func (e NewUseInLoop) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewAffineCapture: a closure captures an affine binding.
type NewAffineCapture struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewAffineCapture) Error() string {
	return fmt.Sprintf("closure may not capture affine binding '%s'", e.Name)
}
func (e NewAffineCapture) Code() ErrCode    { return AffineCapture }
func (e NewAffineCapture) getStack() []byte { return e.stack }
func (e NewAffineCapture) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewNonExhaustiveMatch carries a witness: a concrete pattern no arm
// covers.
type NewNonExhaustiveMatch struct {
	ast.Positioner
	Witness string
	stack   []byte
}

func (e NewNonExhaustiveMatch) Error() string {
	return fmt.Sprintf("match is not exhaustive: '%s' is not covered", e.Witness)
}
func (e NewNonExhaustiveMatch) Hint() string {
	return fmt.Sprintf("add an arm matching '%s', or a wildcard arm", e.Witness)
}
func (e NewNonExhaustiveMatch) Code() ErrCode    { return NonExhaustiveMatch }
func (e NewNonExhaustiveMatch) getStack() []byte { return e.stack }
func (e NewNonExhaustiveMatch) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewRedundantArm is advisory: the arm can never be reached.
type NewRedundantArm struct {
	ast.Positioner
	ArmIndex int
	stack    []byte
}

func (e NewRedundantArm) Error() string {
	return fmt.Sprintf("match arm %d is unreachable", e.ArmIndex+1)
}
func (e NewRedundantArm) Advisory() bool   { return true }
func (e NewRedundantArm) Code() ErrCode    { return RedundantArm }
func (e NewRedundantArm) getStack() []byte { return e.stack }
func (e NewRedundantArm) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewResourceLimit: a hard limit was exceeded. Fatal for the whole
// compilation unit.
type NewResourceLimit struct {
	ast.Positioner
	Detail string
	stack  []byte
}

func (e NewResourceLimit) Error() string    { return "resource limit exceeded: " + e.Detail }
func (e NewResourceLimit) Code() ErrCode    { return ResourceLimit }
func (e NewResourceLimit) getStack() []byte { return e.stack }
func (e NewResourceLimit) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

/// NewDuplicateDefinition: a top-level name is declared twice.
type NewDuplicateDefinition struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewDuplicateDefinition) Error() string {
	return fmt.Sprintf("'%s' is already defined", e.Name)
}
func (e NewDuplicateDefinition) Code() ErrCode    { return DuplicateDefinition }
func (e NewDuplicateDefinition) getStack() []byte { return e.stack }
func (e NewDuplicateDefinition) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// NewMisplacedReference: a reference type used outside an extern
// parameter position.
type NewMisplacedReference struct {
	ast.Positioner
	stack []byte
}

func (e NewMisplacedReference) Error() string {
	return "reference types may only appear as extern parameters"
}
func (e NewMisplacedReference) Code() ErrCode    { return MisplacedReference }
func (e NewMisplacedReference) getStack() []byte { return e.stack }
func (e NewMisplacedReference) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}

// SecondConsume: the same affine binding is passed twice in one call.
type SecondConsume struct {
	ast.Positioner
	Name    string
	FirstAt ast.Range
	stack   []byte
}

func (e SecondConsume) Error() string {
	return fmt.Sprintf("'%s' is passed twice in the same call; it was already consumed at %v", e.Name, e.FirstAt)
}
func (e SecondConsume) Code() ErrCode    { return SecondConsumeInCall }
func (e SecondConsume) getStack() []byte { return e.stack }
func (e SecondConsume) withStack(stack []byte) RillError {
	e.stack = stack
	return e
}
