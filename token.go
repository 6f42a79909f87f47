package modkit

import "reflect"

// Token identifies a registration within a Registry. It is either a
// stable name chosen by the application ("db", "config") or the name of a
// Go type as produced by TypeToken.
type Token string

// String returns the token as a plain string.
func (t Token) String() string {
	return string(t)
}

// TypeToken returns the canonical token for a type: pointers are
// dereferenced and the bare type name is used, so *user.Controller and
// user.Controller share the token "Controller".
//
// Unnamed types fall back to their full type string.
func TypeToken(t reflect.Type) Token {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return Token(name)
	}
	return Token(t.String())
}

// TokenFor returns TypeToken for the type parameter. Interfaces work too:
// TokenFor[Repository]() yields "Repository".
func TokenFor[T any]() Token {
	return TypeToken(reflect.TypeFor[T]())
}

// TypeOf is shorthand for reflect.TypeFor, used when listing providers,
// controllers and imports in a ModuleDescriptor.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}
