package generate

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"regexp"
	"strconv"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/spf13/afero"

	"trigmap/internal/core"
	"trigmap/internal/dialect"
	"trigmap/internal/storage"
)

// Methods every generated trigger type carries.
const (
	methodName        = "Name"
	methodTriggerSQL  = "TriggerSQL"
	methodFunctionSQL = "FunctionSQL"
)

var nonIdent = regexp.MustCompile(`[^a-z0-9_]`)

// PackageName derives the Go package name from a storage namespace: its last segment,
// lower-cased, with anything that is not an identifier character removed.
func PackageName(namespace string) string {
	ns := strings.Trim(namespace, `\/ `)
	if i := strings.LastIndexAny(ns, `\/`); i >= 0 {
		ns = ns[i+1:]
	}
	name := nonIdent.ReplaceAllString(strings.ToLower(ns), "")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		return "triggers"
	}
	return name
}

// RenderClass renders the Go source of the type holding trigger t.
func RenderClass(pkg, className string, t *core.ResolvedTrigger, a dialect.Artifact) ([]byte, error) {
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by trigmap make:trigger. Edit the SQL as needed.")

	f.Commentf("%s holds the DDL of trigger %s on %s.", className, t.Name, t.EffectiveTable())
	f.Type().Id(className).Struct()

	recv := jen.Id(className)
	f.Commentf("%s returns the database name of the trigger.", methodName)
	f.Func().Params(recv.Clone()).Id(methodName).Params().String().Block(
		jen.Return(jen.Lit(t.Name)),
	)

	f.Commentf("%s returns the statement creating the trigger.", methodTriggerSQL)
	f.Func().Params(recv.Clone()).Id(methodTriggerSQL).Params().String().Block(
		jen.Return(sqlLiteral(a.TriggerSQL)),
	)

	if a.HasFunction() {
		f.Commentf("%s returns the statement creating the trigger function.", methodFunctionSQL)
		f.Func().Params(recv.Clone()).Id(methodFunctionSQL).Params().String().Block(
			jen.Return(sqlLiteral(a.FunctionSQL)),
		)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("generate: render %s: %w", className, err)
	}
	return buf.Bytes(), nil
}

// sqlLiteral keeps multi-line SQL readable as a raw string when it can be one.
func sqlLiteral(sql string) jen.Code {
	sql = strings.TrimSpace(sql)
	if strings.Contains(sql, "`") {
		return jen.Lit(sql)
	}
	return jen.Op("`\n" + sql + "\n`")
}

func (s *Store) classPath(t *core.ResolvedTrigger) (string, string, error) {
	className := ClassName(t)
	p, err := s.resolver.ClassPath(t.Storage, FileName(className))
	if err != nil {
		return "", "", err
	}
	return className, p, nil
}

func (s *Store) writeClass(target storage.Target, t *core.ResolvedTrigger, a dialect.Artifact) ([]string, error) {
	className, p, err := s.classPath(t)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAbsent(p); err != nil {
		return nil, err
	}
	src, err := RenderClass(PackageName(target.Namespace), className, t, a)
	if err != nil {
		return nil, err
	}
	if err := s.writeFile(p, string(src)); err != nil {
		return nil, err
	}
	return []string{p}, nil
}

func (s *Store) readClass(t *core.ResolvedTrigger) (Loaded, error) {
	if strings.TrimSpace(core.Deref(t.ClassName)) == "" {
		return Loaded{}, &core.ReferenceError{Trigger: t.Name, Ref: "class_name", Err: core.ErrInvalidTriggerClass}
	}
	className, p, err := s.classPath(t)
	if err != nil {
		return Loaded{}, err
	}
	src, err := afero.ReadFile(s.fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		return Loaded{}, fmt.Errorf("%w: %s not found at %s", core.ErrInvalidTriggerClass, className, p)
	}
	if err != nil {
		return Loaded{}, fmt.Errorf("generate: read %q: %w", p, err)
	}

	methods, err := ExtractMethods(src, className)
	if err != nil {
		return Loaded{}, fmt.Errorf("%s: %w", p, err)
	}
	triggerSQL, ok := methods[methodTriggerSQL]
	if !ok {
		return Loaded{}, fmt.Errorf("%w: %s has no %s method", core.ErrInvalidTriggerClass, className, methodTriggerSQL)
	}
	return Loaded{Artifact: dialect.Artifact{TriggerSQL: triggerSQL, FunctionSQL: methods[methodFunctionSQL]}}, nil
}

// ExtractMethods parses Go source and returns, for every method of className whose body
// is a single return of a string literal, the unquoted literal keyed by method name.
func ExtractMethods(src []byte, className string) (map[string]string, error) {
	file, err := parser.ParseFile(token.NewFileSet(), "", src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidTriggerClass, err)
	}

	out := make(map[string]string)
	found := false
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok && ts.Name.Name == className {
					found = true
				}
			}
		case *ast.FuncDecl:
			if d.Recv == nil || len(d.Recv.List) != 1 || receiverName(d.Recv.List[0].Type) != className {
				continue
			}
			if lit, ok := singleStringReturn(d.Body); ok {
				out[d.Name.Name] = lit
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: type %s not declared", core.ErrInvalidTriggerClass, className)
	}
	return out, nil
}

func receiverName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return receiverName(e.X)
	default:
		return ""
	}
}

func singleStringReturn(body *ast.BlockStmt) (string, bool) {
	if body == nil || len(body.List) != 1 {
		return "", false
	}
	ret, ok := body.List[0].(*ast.ReturnStmt)
	if !ok || len(ret.Results) != 1 {
		return "", false
	}
	lit, ok := ret.Results[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}
