package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrAmbiguousOverload is returned when two overloads match a call equally well.
	ErrAmbiguousOverload = errors.New("edm: ambiguous operation overload")
	// ErrNotComposable is returned when an operation is composed onto a result
	// that does not allow further composition.
	ErrNotComposable = errors.New("edm: operation result is not composable")
)

// OperationKind distinguishes actions from functions.
type OperationKind int

const (
	// ActionKind marks operations that may have side effects.
	ActionKind OperationKind = iota
	// FunctionKind marks side-effect free operations that return a value.
	FunctionKind
)

func (k OperationKind) String() string {
	if k == FunctionKind {
		return "Function"
	}
	return "Action"
}

// Parameter is an operation parameter.
type Parameter struct {
	Name     string
	Type     TypeRef
	Nullable bool
	Facets
}

// ReturnType describes the value an operation returns.
type ReturnType struct {
	Type     TypeRef
	Nullable bool
}

// Operation is one overload of an action or function. The binding parameter,
// when present, is not repeated in Parameters.
type Operation struct {
	Kind             OperationKind
	Name             FullQualifiedName
	IsBound          bool
	BindingParameter *Parameter
	Parameters       []Parameter
	ReturnType       *ReturnType
	IsComposable     bool
	EntitySetPath    string
}

// signature identifies an overload among operations of the same name. It
// covers the binding type and the ordered non-binding parameter types.
func (o *Operation) signature() string {
	var b strings.Builder
	if o.IsBound && o.BindingParameter != nil {
		b.WriteString("bound:")
		b.WriteString(o.BindingParameter.Type.String())
	} else {
		b.WriteString("unbound")
	}
	b.WriteByte('(')
	for i, p := range o.Parameters {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Type.String())
	}
	b.WriteByte(')')
	return b.String()
}

// OperationQuery describes a call site for overload resolution.
type OperationQuery struct {
	Kind OperationKind
	Name FullQualifiedName
	// Binding is the type the operation is invoked on. Nil selects unbound overloads.
	Binding *TypeRef
	// Arguments are the types of the supplied non-binding arguments in order.
	Arguments []TypeRef
}

func (q OperationQuery) cacheKey() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(q.Kind.String())
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(q.Name.String())
	_, _ = d.WriteString("|")
	if q.Binding != nil {
		_, _ = d.WriteString(q.Binding.String())
	}
	for _, arg := range q.Arguments {
		_, _ = d.WriteString("|")
		_, _ = d.WriteString(arg.String())
	}
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(strconv.Itoa(len(q.Arguments)))
	return d.Sum64()
}

type resolution struct {
	operation *Operation
	err       error
}

// Actions returns every overload of the named action, or nil when no action
// has that name.
func (m *Model) Actions(name FullQualifiedName) []*Operation {
	if m == nil {
		return nil
	}
	return copyOperations(m.actions[name])
}

// Functions returns every overload of the named function, or nil when no
// function has that name.
func (m *Model) Functions(name FullQualifiedName) []*Operation {
	if m == nil {
		return nil
	}
	return copyOperations(m.functions[name])
}

func copyOperations(ops []*Operation) []*Operation {
	if len(ops) == 0 {
		return nil
	}
	result := make([]*Operation, len(ops))
	copy(result, ops)
	return result
}

func (m *Model) overloads(kind OperationKind, name FullQualifiedName) []*Operation {
	if kind == FunctionKind {
		return m.functions[name]
	}
	return m.actions[name]
}

// ResolveOperation selects the overload that best matches query. A bound
// overload matches when its binding type is the query's binding type or one of
// its ancestors; the closest ancestor wins, then the fewest primitive
// widenings. No match yields ok == false. Equally good matches yield
// ErrAmbiguousOverload.
func (m *Model) ResolveOperation(query OperationQuery) (*Operation, bool, error) {
	if m == nil {
		return nil, false, nil
	}

	var key uint64
	if m.resolutions != nil {
		key = query.cacheKey()
		if cached, ok := m.resolutions.Get(key); ok {
			return cached.operation, cached.operation != nil, cached.err
		}
	}

	op, err := m.resolveOperation(query)
	if m.resolutions != nil {
		m.resolutions.Add(key, resolution{operation: op, err: err})
	}
	return op, op != nil, err
}

func (m *Model) resolveOperation(query OperationQuery) (*Operation, error) {
	var (
		best     *Operation
		bestRank [2]int
		tied     []*Operation
	)

	for _, candidate := range m.overloads(query.Kind, query.Name) {
		distance, ok := m.bindingDistance(candidate, query.Binding)
		if !ok {
			continue
		}
		cost, ok := m.argumentCost(candidate.Parameters, query.Arguments)
		if !ok {
			continue
		}

		rank := [2]int{distance, cost}
		switch {
		case best == nil || rank[0] < bestRank[0] || (rank[0] == bestRank[0] && rank[1] < bestRank[1]):
			best, bestRank, tied = candidate, rank, nil
		case rank == bestRank:
			tied = append(tied, candidate)
		}
	}

	if best != nil && len(tied) > 0 {
		signatures := []string{best.signature()}
		for _, op := range tied {
			signatures = append(signatures, op.signature())
		}
		return nil, fmt.Errorf("%w: %s %s matches %s", ErrAmbiguousOverload, query.Kind, query.Name, strings.Join(signatures, " and "))
	}
	return best, nil
}

// bindingDistance returns how many inheritance steps separate the binding
// target from the candidate's binding type.
func (m *Model) bindingDistance(candidate *Operation, binding *TypeRef) (int, bool) {
	if binding == nil {
		return 0, !candidate.IsBound
	}
	if !candidate.IsBound || candidate.BindingParameter == nil {
		return 0, false
	}
	bound := candidate.BindingParameter.Type
	if bound.Collection != binding.Collection {
		return 0, false
	}
	return m.ancestorDistance(binding.Name, bound.Name)
}

// argumentCost sums the conversion cost of every argument, or reports false
// when an argument is incompatible.
func (m *Model) argumentCost(parameters []Parameter, arguments []TypeRef) (int, bool) {
	if len(parameters) != len(arguments) {
		return 0, false
	}
	total := 0
	for i, parameter := range parameters {
		cost, ok := m.conversionCost(arguments[i], parameter.Type)
		if !ok {
			return 0, false
		}
		total += cost
	}
	return total, true
}

func (m *Model) conversionCost(argument, parameter TypeRef) (int, bool) {
	if argument.Collection != parameter.Collection {
		return 0, false
	}
	if argument.Name == parameter.Name {
		return 0, true
	}
	if IsPrimitive(argument.Name) && IsPrimitive(parameter.Name) {
		return promotionCost(argument.Name, parameter.Name)
	}
	return m.ancestorDistance(argument.Name, parameter.Name)
}

// ResolveComposed resolves query as a bound operation applied to the result of
// previous. Composition fails with ErrNotComposable when previous is an action,
// a non-composable function, or returns nothing.
func (m *Model) ResolveComposed(previous *Operation, query OperationQuery) (*Operation, bool, error) {
	if previous == nil {
		return m.ResolveOperation(query)
	}
	if previous.Kind != FunctionKind || !previous.IsComposable {
		return nil, false, fmt.Errorf("%w: %s %s", ErrNotComposable, previous.Kind, previous.Name)
	}
	if previous.ReturnType == nil {
		return nil, false, fmt.Errorf("%w: %s returns no value", ErrNotComposable, previous.Name)
	}

	binding := previous.ReturnType.Type
	query.Binding = &binding
	return m.ResolveOperation(query)
}
