package walk

import "github.com/slowlang/tailopt/compiler/ir"

func (Base) Cond(w *Walker, id ir.Expr, x ir.Cond) (bool, error)         { return true, nil }
func (Base) Not(w *Walker, id ir.Expr, x ir.Not) (bool, error)           { return true, nil }
func (Base) Call(w *Walker, id ir.Expr, x ir.Call) (bool, error)         { return true, nil }
func (Base) Return(w *Walker, id ir.Expr, x ir.Return) (bool, error)     { return true, nil }
func (Base) Ref(w *Walker, id ir.Expr, x ir.Ref) (bool, error)           { return true, nil }
func (Base) Assign(w *Walker, id ir.Expr, x ir.Assign) (bool, error)     { return true, nil }
func (Base) Seq(w *Walker, id ir.Expr, x ir.Seq) (bool, error)           { return true, nil }
func (Base) Labeled(w *Walker, id ir.Expr, x ir.Labeled) (bool, error)   { return true, nil }
func (Base) Continue(w *Walker, id ir.Expr, x ir.Continue) (bool, error) { return true, nil }
func (Base) Proc(w *Walker, id ir.Expr, x ir.Proc) (bool, error)         { return true, nil }
func (Base) ProcRef(w *Walker, id ir.Expr, x ir.ProcRef) (bool, error)   { return true, nil }
func (Base) Const(w *Walker, id ir.Expr, x ir.Const) (bool, error)       { return true, nil }
func (Base) BinOp(w *Walker, id ir.Expr, x ir.BinOp) (bool, error)       { return true, nil }
func (Base) Convert(w *Walker, id ir.Expr, x ir.Convert) (bool, error)   { return true, nil }
func (Base) Field(w *Walker, id ir.Expr, x ir.Field) (bool, error)       { return true, nil }

func (Base) Leave(w *Walker, id ir.Expr) error { return nil }
