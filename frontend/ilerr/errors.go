package ilerr

import (
	"fmt"
	"go/token"
	"runtime/debug"
	"strings"

	"github.com/cottand/narrow/frontend/ast"
)

// enableDebugErrorPrinting makes errors include their stacktrace when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	Parse
	UnreachableNarrowing
	InvalidMemberAccess
	AssignmentOutOfDeclaredRange
	UndefinedVariable
	InvalidGuard
	UnknownType
	UnreachableCode
	ProbeMismatch
	UnsoundNarrowing
	ConstAssignment
	InvalidWitness
)

var codeNames = [...]string{
	None:                         "None",
	Parse:                        "Parse",
	UnreachableNarrowing:         "UnreachableNarrowing",
	InvalidMemberAccess:          "InvalidMemberAccess",
	AssignmentOutOfDeclaredRange: "AssignmentOutOfDeclaredRange",
	UndefinedVariable:            "UndefinedVariable",
	InvalidGuard:                 "InvalidGuard",
	UnknownType:                  "UnknownType",
	UnreachableCode:              "UnreachableCode",
	ProbeMismatch:                "ProbeMismatch",
	UnsoundNarrowing:             "UnsoundNarrowing",
	ConstAssignment:              "ConstAssignment",
	InvalidWitness:               "InvalidWitness",
}

func (c ErrCode) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("ErrCode(%d)", int(c))
}

// Short renders the code the way it appears in formatted diagnostics, ie E003
func (c ErrCode) Short() string {
	return fmt.Sprintf("E%03d", int(c))
}

// CodeFromShort parses the output of ErrCode.Short
func CodeFromShort(s string) (ErrCode, bool) {
	var i int
	if _, err := fmt.Sscanf(s, "E%03d", &i); err != nil || i < 0 || i >= len(codeNames) {
		return None, false
	}
	return ErrCode(i), true
}

type IleError interface {
	Error() string
	Code() ErrCode
	ast.Positioner

	withStack([]byte) IleError
	getStack() []byte
}

func FormatWithCode(e IleError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			lines := strings.Split(stack, "\n")
			if len(lines) > 6 {
				stack = lines[6]
			}
		}
		return fmt.Sprintf("%s:(%s) %s", stack, e.Code().Short(), e.Error())
	}
	return fmt.Sprintf("(%s) %s", e.Code().Short(), e.Error())
}

// FileSetter is anything that can resolve token.Pos into file positions
type FileSetter interface {
	FileSet() *token.FileSet
}

// FormatWithCodeAndSource prefixes FormatWithCode with file:line:col when
// the position of e can be resolved
func FormatWithCodeAndSource(e IleError, source FileSetter) string {
	if source == nil || source.FileSet() == nil || !e.Pos().IsValid() {
		return FormatWithCode(e)
	}
	position := source.FileSet().Position(e.Pos())
	if !position.IsValid() {
		return FormatWithCode(e)
	}
	return fmt.Sprintf("%s: %s", position, FormatWithCode(e))
}

func New[E IleError](err E) IleError {
	return err.withStack(debug.Stack())
}

type NewParse struct {
	ast.Positioner
	ParserMessage string
	Hint          string
	stack         []byte
}

func (e NewParse) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s (%s)", e.ParserMessage, e.Hint)
	}
	return e.ParserMessage
}
func (e NewParse) Code() ErrCode    { return Parse }
func (e NewParse) getStack() []byte { return e.stack }
func (e NewParse) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewUnreachableNarrowing is raised when a guard is evaluated against a
// subject whose type is already never
type NewUnreachableNarrowing struct {
	ast.Positioner
	Subject string
	Guard   string
	stack   []byte
}

func (e NewUnreachableNarrowing) Error() string {
	return fmt.Sprintf("guard '%s' is unreachable: '%s' has type 'never' here", e.Guard, e.Subject)
}
func (e NewUnreachableNarrowing) Code() ErrCode    { return UnreachableNarrowing }
func (e NewUnreachableNarrowing) getStack() []byte { return e.stack }
func (e NewUnreachableNarrowing) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewInvalidMemberAccess struct {
	ast.Positioner
	Subject string
	Member  string
	Type    fmt.Stringer
	// Partial is set when some, but not all, variants of Type declare Member
	Partial bool
	stack   []byte
}

func (e NewInvalidMemberAccess) Error() string {
	if e.Partial {
		return fmt.Sprintf("property '%s' does not exist on every variant of '%s' (type '%v')", e.Member, e.Subject, e.Type)
	}
	return fmt.Sprintf("property '%s' does not exist on '%s' (type '%v')", e.Member, e.Subject, e.Type)
}
func (e NewInvalidMemberAccess) Code() ErrCode    { return InvalidMemberAccess }
func (e NewInvalidMemberAccess) getStack() []byte { return e.stack }
func (e NewInvalidMemberAccess) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewAssignmentOutOfDeclaredRange struct {
	ast.Positioner
	Name     string
	Declared fmt.Stringer
	Assigned fmt.Stringer
	stack    []byte
}

func (e NewAssignmentOutOfDeclaredRange) Error() string {
	return fmt.Sprintf("type '%v' is not assignable to '%s' declared as '%v'", e.Assigned, e.Name, e.Declared)
}
func (e NewAssignmentOutOfDeclaredRange) Code() ErrCode    { return AssignmentOutOfDeclaredRange }
func (e NewAssignmentOutOfDeclaredRange) getStack() []byte { return e.stack }
func (e NewAssignmentOutOfDeclaredRange) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewUndefinedVariable struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewUndefinedVariable) Code() ErrCode { return UndefinedVariable }
func (e NewUndefinedVariable) Error() string {
	return fmt.Sprintf("variable '%s' is not defined", e.Name)
}
func (e NewUndefinedVariable) getStack() []byte { return e.stack }
func (e NewUndefinedVariable) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewInvalidGuard struct {
	ast.Positioner
	Guard  string
	Reason string
	stack  []byte
}

func (e NewInvalidGuard) Error() string {
	return fmt.Sprintf("invalid guard '%s': %s", e.Guard, e.Reason)
}
func (e NewInvalidGuard) Code() ErrCode    { return InvalidGuard }
func (e NewInvalidGuard) getStack() []byte { return e.stack }
func (e NewInvalidGuard) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewUnknownType struct {
	ast.Positioner
	Name   string
	Detail string
	stack  []byte
}

func (e NewUnknownType) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("unknown type '%s': %s", e.Name, e.Detail)
	}
	return fmt.Sprintf("unknown type '%s'", e.Name)
}
func (e NewUnknownType) Code() ErrCode    { return UnknownType }
func (e NewUnknownType) getStack() []byte { return e.stack }
func (e NewUnknownType) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewUnreachableCode struct {
	ast.Positioner
	// Detail optionally names the construct that cannot be reached
	Detail string
	stack  []byte
}

func (e NewUnreachableCode) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("unreachable code: %s", e.Detail)
	}
	return "unreachable code"
}
func (e NewUnreachableCode) Code() ErrCode    { return UnreachableCode }
func (e NewUnreachableCode) getStack() []byte { return e.stack }
func (e NewUnreachableCode) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewProbeMismatch struct {
	ast.Positioner
	Name     string
	Expected fmt.Stringer
	Actual   fmt.Stringer
	stack    []byte
}

func (e NewProbeMismatch) Error() string {
	return fmt.Sprintf("expected '%s' to have type '%v', but found '%v'", e.Name, e.Expected, e.Actual)
}
func (e NewProbeMismatch) Code() ErrCode    { return ProbeMismatch }
func (e NewProbeMismatch) getStack() []byte { return e.stack }
func (e NewProbeMismatch) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewUnsoundNarrowing is raised by soundness checks when a runtime value
// falls outside the type narrowed for the branch it actually takes
type NewUnsoundNarrowing struct {
	ast.Positioner
	Guard    string
	Witness  string
	Branch   bool
	Narrowed fmt.Stringer
	stack    []byte
}

func (e NewUnsoundNarrowing) Error() string {
	return fmt.Sprintf("value %s takes the %v branch of '%s' but is not in the narrowed type '%v'", e.Witness, e.Branch, e.Guard, e.Narrowed)
}
func (e NewUnsoundNarrowing) Code() ErrCode    { return UnsoundNarrowing }
func (e NewUnsoundNarrowing) getStack() []byte { return e.stack }
func (e NewUnsoundNarrowing) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewConstAssignment struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewConstAssignment) Error() string {
	return fmt.Sprintf("cannot assign to '%s' because it is a constant", e.Name)
}
func (e NewConstAssignment) Code() ErrCode    { return ConstAssignment }
func (e NewConstAssignment) getStack() []byte { return e.stack }
func (e NewConstAssignment) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewInvalidWitness is raised by soundness checks for witnesses that cannot
// be evaluated, or that are not values of the checked type
type NewInvalidWitness struct {
	ast.Positioner
	Witness string
	Reason  string
	stack   []byte
}

func (e NewInvalidWitness) Error() string {
	return fmt.Sprintf("invalid witness '%s': %s", e.Witness, e.Reason)
}
func (e NewInvalidWitness) Code() ErrCode    { return InvalidWitness }
func (e NewInvalidWitness) getStack() []byte { return e.stack }
func (e NewInvalidWitness) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
