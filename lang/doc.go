// Package lang parses and expands clone-list invocations.
//
// An invocation names the values to duplicate before evaluating an
// expression:
//
//	clone!([a, mut b, { s.Items() } as items], func() int {
//		b = a + len(items)
//		return b
//	}())
//
// Grammar:
//
//	Invocation = Macro '!' [ '[' Type ']' ] '(' Args ')' .
//	Args       = [ '[' [ Item { ',' Item } [ ',' ] ] ']' ',' ] Expr [ ',' ] .
//	Item       = [ 'mut' ] ( Ident | '{' Expr '}' 'as' Ident ) .
//
// Each item declares a new binding initialized with a duplicate of its
// source, in list order, so later items and the trailing expression see
// the duplicates and never the originals. A name item duplicates the
// visible binding of the same name and shadows it; an alias item
// duplicates the value of an arbitrary expression. Bindings not marked mut
// may not be assigned.
//
// # Result type
//
// The function literal an invocation expands to must declare its result
// type. It is taken from the invocation (clone![int](...)), then from
// [WithResultType], and otherwise inferred from the trailing expression's
// syntax: literals, conversions to predeclared or literal types,
// comparisons, and the bindings whose sources are themselves evident, as
// in clone!([{ 7 } as a], a + 1). Types are never resolved, so a trailing
// expression reading a plain binding such as clone!([a], a + 1) falls back
// to any ([WithFallbackType]) and
//
//	var n int = clone!([a], a + 1)
//
// does not compile. Name the type in the invocation instead:
//
//	var n int = clone![int]([a], a + 1)
//
// A binding named like the package of the duplication function would hide
// it, so [Rewrite] then imports that package under another name.
//
// [Rewrite] expands every invocation in a Go source file into an
// immediately called function literal. [Evaluate] interprets a request
// with the expr-lang engine instead.
package lang
