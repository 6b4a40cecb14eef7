// Package dsl reads the textual reconfiguration language.
//
//	configuration "shop";
//	add cart "cart.yaml" requiring {db, cache};
//	remove legacy;
//	replace db with db2 "db2.yaml";
//	bind front to {cart};
//	unbind front from {legacy};
//
// Lex and Analyze report every problem they find as a Diagnostic; Translate
// maps a clean token stream to a plan.Formula.
package dsl
