package modkit

import (
	"fmt"
	"reflect"
	"sort"
)

// RegisterClass registers t in reg using the declarations recorded in meta.
// The registered factory resolves each injected token in ascending
// parameter order and calls t's constructor with the results.
//
// t must have been declared with DefineService or DefineController, and its
// injections must cover parameters 0..n-1 exactly once where n is the
// constructor's arity. Both are checked here rather than at first
// resolution.
func RegisterClass(reg *Registry, meta *Metadata, t reflect.Type) error {
	t = baseType(t)
	info, ok := meta.ServiceInfo(t)
	if !ok {
		return &MissingServiceMetadataError{Type: t}
	}
	factory, err := classFactory(meta, t)
	if err != nil {
		return err
	}
	return reg.Register(canonicalToken(t, info), factory, info.Lifecycle)
}

// canonicalToken is the token a declared type is registered under.
func canonicalToken(t reflect.Type, info ServiceInfo) Token {
	if info.Token != "" {
		return info.Token
	}
	return TypeToken(t)
}

func classFactory(meta *Metadata, t reflect.Type) (Factory, error) {
	injections := meta.Injections(t)
	sort.SliceStable(injections, func(i, j int) bool { return injections[i].Index < injections[j].Index })

	ctor, hasCtor := meta.Constructor(t)
	if err := validateInjections(t, injections, ctor, hasCtor); err != nil {
		return nil, err
	}

	if !hasCtor {
		return func(Resolver) (any, error) {
			return reflect.New(t).Interface(), nil
		}, nil
	}

	ctorType := ctor.Type()
	return func(r Resolver) (any, error) {
		args := make([]reflect.Value, len(injections))
		for i, inj := range injections {
			dep, err := r.Resolve(inj.Token)
			if err != nil {
				return nil, fmt.Errorf("resolving parameter %d (%s) of %s: %w", i, inj.Token, typeName(t), err)
			}
			arg, err := argumentFor(dep, ctorType.In(i))
			if err != nil {
				return nil, fmt.Errorf("%s parameter %d (%s): %w", typeName(t), i, inj.Token, err)
			}
			args[i] = arg
		}

		out := ctor.Call(args)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}, nil
}

func validateInjections(t reflect.Type, injections []Injection, ctor reflect.Value, hasCtor bool) error {
	for i, inj := range injections {
		switch {
		case inj.Index < 0:
			return &MalformedInjectionMetadataError{Type: t, Index: inj.Index, Reason: "negative parameter index"}
		case inj.Index < i:
			return &MalformedInjectionMetadataError{Type: t, Index: inj.Index, Reason: "duplicate injection"}
		case inj.Index > i:
			return &MalformedInjectionMetadataError{Type: t, Index: i, Reason: "no injection declared"}
		}
	}

	arity := 0
	if hasCtor {
		arity = ctor.Type().NumIn()
	} else if len(injections) > 0 {
		return &MalformedInjectionMetadataError{Type: t, Index: 0, Reason: "injections declared without a constructor"}
	}

	switch {
	case len(injections) < arity:
		return &MalformedInjectionMetadataError{Type: t, Index: len(injections), Reason: "no injection declared"}
	case len(injections) > arity:
		return &MalformedInjectionMetadataError{
			Type:   t,
			Index:  arity,
			Reason: fmt.Sprintf("constructor takes %d parameters", arity),
		}
	}
	return nil
}

// argumentFor converts a resolved dependency into a constructor argument.
func argumentFor(dep any, param reflect.Type) (reflect.Value, error) {
	if dep == nil {
		switch param.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(param), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil for %s", ErrDependencyIncompatible, param)
	}
	v := reflect.ValueOf(dep)
	if !v.Type().AssignableTo(param) {
		return reflect.Value{}, fmt.Errorf("%w: %s to %s", ErrDependencyIncompatible, v.Type(), param)
	}
	return v, nil
}
