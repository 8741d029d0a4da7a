package action

import (
	"errors"
	"fmt"

	"github.com/roach88/symbolic/internal/symbolic"
)

// ParseAction parses "name(a, b)" into a compiled Action and its resolved
// arguments. The call is checked for arity first and then for argument types,
// position by position. Malformed calls yield a *CallError; a broken domain
// yields a *SchemaError.
func ParseAction(p *symbolic.Pddl, call string) (*Action, []symbolic.Object, error) {
	name, tokens, err := symbolic.ParseCall(call)
	if err != nil {
		return nil, nil, &CallError{Code: ErrCodeSyntax, Call: call, Message: err.Error()}
	}

	a, err := Lookup(p, name)
	if err != nil {
		var ce *CallError
		if errors.As(err, &ce) {
			ce.Call = call
		}
		return nil, nil, err
	}

	if len(tokens) != len(a.params) {
		return nil, nil, &CallError{
			Code:   ErrCodeArityMismatch,
			Action: a.name,
			Call:   call,
			Message: fmt.Sprintf("action %s requires %d arguments but received %d: %s",
				a.name, len(a.params), len(tokens), call),
		}
	}

	args, err := p.ParseObjects(tokens)
	if err != nil {
		var ue *symbolic.UnknownObjectError
		if errors.As(err, &ue) {
			return nil, nil, &CallError{
				Code:     ErrCodeUnknownObject,
				Action:   a.name,
				Argument: ue.Name,
				Call:     call,
				Message:  fmt.Sprintf("action %s: unknown object %q in %s", a.name, ue.Name, call),
			}
		}
		return nil, nil, err
	}

	for i, arg := range args {
		param := a.params[i]
		if !arg.Type().IsSubtype(param.Type()) {
			return nil, nil, &CallError{
				Code:      ErrCodeTypeMismatch,
				Action:    a.name,
				Parameter: param.Name(),
				Argument:  arg.Name(),
				Call:      call,
				Message: fmt.Sprintf("action %s parameter %s requires type %s but received %s of type %s",
					a.name, param.Name(), param.Type(), arg.Name(), arg.Type()),
			}
		}
	}

	return a, args, nil
}
