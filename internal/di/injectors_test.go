package di

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseInjectorFile(t *testing.T, name string) *ast.File {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), name, nil, parser.ParseComments)
	require.NoError(t, err)
	return file
}

func importNames(file *ast.File) map[string]struct{} {
	names := make(map[string]struct{})
	for _, spec := range file.Imports {
		p, _ := strconv.Unquote(spec.Path.Value)
		name := path.Base(p)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		names[name] = struct{}{}
	}
	return names
}

// packageCalls lists pkg.Func references below node whose pkg is imported.
func packageCalls(node ast.Node, imports map[string]struct{}, skip string) []string {
	var out []string
	ast.Inspect(node, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		pkg, ok := sel.X.(*ast.Ident)
		if !ok || pkg.Name == skip {
			return true
		}
		if _, imported := imports[pkg.Name]; imported {
			out = append(out, pkg.Name+"."+sel.Sel.Name)
		}
		return true
	})
	return out
}

func TestInitApp_MatchesWireBuild(t *testing.T) {
	injectors := parseInjectorFile(t, "injectors.go")
	var build *ast.CallExpr
	ast.Inspect(injectors, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		if sel, ok := call.Fun.(*ast.SelectorExpr); ok && sel.Sel.Name == "Build" {
			build = call
			return false
		}
		return true
	})
	require.NotNil(t, build, "wire.Build not found")

	var declared []string
	imports := importNames(injectors)
	for _, arg := range build.Args {
		if _, isCall := arg.(*ast.CallExpr); isCall {
			// wire.Bind and friends are not providers.
			continue
		}
		declared = append(declared, packageCalls(arg, imports, "wire")...)
	}

	injector := parseInjectorFile(t, "app_injector.go")
	var initApp *ast.FuncDecl
	for _, decl := range injector.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Name.Name == "InitApp" {
			initApp = fn
		}
	}
	require.NotNil(t, initApp)

	var called []string
	for _, call := range packageCalls(initApp.Body, importNames(injector), "") {
		if call == "structures.CliFlags" || call == "internal.App" {
			continue
		}
		called = append(called, call)
	}

	assert.NotEmpty(t, declared)
	assert.ElementsMatch(t, declared, called)
}
