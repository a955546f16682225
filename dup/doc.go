// Package dup duplicates values so that the copy and the original share no
// collection storage.
//
// Code produced by the clonelist expander calls [Of] once per binding:
//
//	a := dup.Of(a)
//
// A type takes control of its own duplication by implementing [Cloner].
// Every other value is copied the way Go assignment copies it, except that
// maps, slices, and arrays are copied element by element, including where
// they appear in exported struct fields and in interfaces. Pointers,
// unexported fields, functions, and channels keep referring to the same
// objects, so a duplicated [context.Context] still observes cancellation
// and a duplicated *[sync.Mutex] still guards the same state.
//
// A Clone method must not call [Of] on its own receiver type.
package dup
