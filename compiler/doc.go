/*

Process of optimization

Front End ->
	emit ->
Procedure Tree (ir.Unit) ->
	annotate (front) ->
Tree with tail, lifted, reassigned and assumed value facts ->
	bind ->
	normalize conditionals ->
	eliminate self tail calls ->
	bind ->
Tree with loops (Labeled, Continue) ->
	code generation

Units share nothing and may be optimized in parallel.

*/
package compiler
