package golang

import (
	"fmt"
	"go/ast"
	"strings"
)

// funcName returns the function name, prefixed with its receiver for methods,
// e.g. "(*Server) Start".
func (p *GoPlugin) funcName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}
	return fmt.Sprintf("(%s) %s", p.getReceiverType(fn.Recv.List[0].Type), fn.Name.Name)
}

// typeName names a type declaration after its specs, joined for grouped blocks.
func typeName(decl *ast.GenDecl) string {
	names := make([]string, 0, len(decl.Specs))
	for _, spec := range decl.Specs {
		if ts, ok := spec.(*ast.TypeSpec); ok {
			names = append(names, ts.Name.Name)
		}
	}
	return strings.Join(names, ", ")
}

// getReceiverType extracts the receiver type name, keeping type parameters.
func (p *GoPlugin) getReceiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return "*" + p.exprToString(t.X)
	case *ast.Ident, *ast.SelectorExpr, *ast.IndexExpr, *ast.IndexListExpr:
		return p.exprToString(t)
	default:
		p.logger.Warn("Unknown receiver type encountered", "type", fmt.Sprintf("%T", t))
		return "unknown"
	}
}

func (p *GoPlugin) exprToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + p.exprToString(t.X)
	case *ast.SelectorExpr:
		return p.exprToString(t.X) + "." + t.Sel.Name
	case *ast.IndexExpr:
		return p.exprToString(t.X) + "[" + p.exprToString(t.Index) + "]"
	case *ast.IndexListExpr:
		params := make([]string, 0, len(t.Indices))
		for _, idx := range t.Indices {
			params = append(params, p.exprToString(idx))
		}
		return p.exprToString(t.X) + "[" + strings.Join(params, ", ") + "]"
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + p.exprToString(t.Elt)
		}
		return "[" + p.exprToString(t.Len) + "]" + p.exprToString(t.Elt)
	case *ast.MapType:
		return "map[" + p.exprToString(t.Key) + "]" + p.exprToString(t.Value)
	case *ast.BasicLit:
		return t.Value
	case *ast.ParenExpr:
		return "(" + p.exprToString(t.X) + ")"
	default:
		p.logger.Debug("Unhandled expression type in exprToString", "type", fmt.Sprintf("%T", expr))
		return "unknown"
	}
}
