package extractor

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/sevigo/pr-warden/internal/core"
)

// grammarExtractor parses source text into an AST via tree-sitter and walks
// it with a per-language node-type table. sitter.Parser is not safe for
// concurrent use, so each extract call creates its own parser and tree and
// closes both before returning.
type grammarExtractor struct {
	specs map[language]langSpec
}

// langSpec names the node types a given tree-sitter grammar uses for the
// constructs the Symbol model cares about. Grammars vary slightly in naming
// (e.g. Python's "function_definition" vs Go's "function_declaration") but
// the walking algorithm is otherwise identical across languages.
type langSpec struct {
	lang           *sitter.Language
	functionTypes  map[string]struct{}
	methodTypes    map[string]struct{}
	classTypes     map[string]struct{}
	callTypes      map[string]struct{}
	nameField      string
	receiverField  string
	paramsField    string
	resultField    string
	bodyField      string
	exportedByCase bool // Go-style: exported iff first rune is uppercase

	// topLevelVarTypes and arrowTypes together recognize a top-level
	// `const/let/var name = (...) => {...}` or `= function(...) {...}`
	// binding as a function symbol named after the variable, per §4.1's
	// "anonymous functions are skipped unless they are top-level
	// assignments" rule. Unset for languages with no such construct.
	topLevelVarTypes map[string]struct{}
	arrowTypes       map[string]struct{}
}

func newGrammarExtractor() *grammarExtractor {
	return &grammarExtractor{
		specs: map[language]langSpec{
			langGo: {
				lang:           golang.GetLanguage(),
				functionTypes:  set("function_declaration"),
				methodTypes:    set("method_declaration"),
				classTypes:     set("type_declaration"),
				callTypes:      set("call_expression"),
				nameField:      "name",
				receiverField:  "receiver",
				paramsField:    "parameters",
				resultField:    "result",
				bodyField:      "body",
				exportedByCase: true,
			},
			langJavaScript: {
				lang:             javascript.GetLanguage(),
				functionTypes:    set("function_declaration"),
				methodTypes:      set("method_definition"),
				classTypes:       set("class_declaration"),
				callTypes:        set("call_expression"),
				nameField:        "name",
				paramsField:      "parameters",
				bodyField:        "body",
				topLevelVarTypes: set("lexical_declaration", "variable_declaration"),
				arrowTypes:       set("arrow_function", "function_expression"),
			},
			langTypeScript: {
				lang:             typescript.GetLanguage(),
				functionTypes:    set("function_declaration"),
				methodTypes:      set("method_definition", "method_signature"),
				classTypes:       set("class_declaration", "interface_declaration"),
				callTypes:        set("call_expression"),
				nameField:        "name",
				paramsField:      "parameters",
				resultField:      "return_type",
				bodyField:        "body",
				topLevelVarTypes: set("lexical_declaration", "variable_declaration"),
				arrowTypes:       set("arrow_function", "function_expression"),
			},
			langPython: {
				lang:          python.GetLanguage(),
				functionTypes: set("function_definition"),
				classTypes:    set("class_definition"),
				callTypes:     set("call"),
				nameField:     "name",
				paramsField:   "parameters",
				bodyField:     "body",
			},
		},
	}
}

func set(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

func (g *grammarExtractor) supports(lang language) bool {
	_, ok := g.specs[lang]
	return ok
}

func (g *grammarExtractor) extract(repository, branch, path, source string, lang language) (core.ParsedFile, error) {
	spec, ok := g.specs[lang]
	if !ok {
		return core.ParsedFile{}, fmt.Errorf("no grammar registered for %s", lang)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(spec.lang)
	defer parser.Close()

	content := []byte(source)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return core.ParsedFile{}, fmt.Errorf("tree-sitter parse error: %w", err)
	}
	defer tree.Close()

	w := &walker{spec: spec, content: content, repository: repository, branch: branch, path: path}
	w.walk(tree.RootNode(), "", true)

	return core.ParsedFile{FilePath: path, Symbols: w.symbols, CallEdges: w.callEdges}, nil
}

type walker struct {
	spec       langSpec
	content    []byte
	repository string
	branch     string
	path       string
	symbols    []core.Symbol
	callEdges  []string
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.content[n.StartByte():n.EndByte()])
}

// walk descends the tree accumulating symbols. topLevel is true only while
// still directly under the file root — it flips to false on entering any
// function/method/class body and never flips back, so a construct nested
// inside one (however deep) is never mistaken for a top-level assignment.
func (w *walker) walk(n *sitter.Node, qualifier string, topLevel bool) {
	if n == nil {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		typ := child.Type()

		switch {
		case isIn(typ, w.spec.callTypes):
			w.callEdges = append(w.callEdges, w.callName(child))
			w.walk(child, qualifier, topLevel)

		case isIn(typ, w.spec.classTypes):
			name := w.classNameOf(child)
			if name != "" {
				sym := w.buildSymbol(child, core.KindClass, name, qualifier)
				w.symbols = append(w.symbols, sym)
				// Nested classes/methods get a qualified name so duplicate
				// detection and breaking-change identity stay distinct per §4.1.
				w.walk(child, qualifyName(qualifier, name), false)
				continue
			}
			w.walk(child, qualifier, topLevel)

		case isIn(typ, w.spec.methodTypes):
			name := w.nameOf(child)
			if name != "" {
				w.symbols = append(w.symbols, w.buildSymbol(child, core.KindMethod, name, qualifier))
			}
			w.walk(child, qualifier, false)

		case isIn(typ, w.spec.functionTypes):
			name := w.nameOf(child)
			if name != "" {
				w.symbols = append(w.symbols, w.buildSymbol(child, core.KindFunction, name, qualifier))
			}
			w.walk(child, qualifier, false)

		case topLevel && isIn(typ, w.spec.topLevelVarTypes):
			w.symbols = append(w.symbols, w.topLevelArrowSymbols(child)...)
			w.walk(child, qualifier, topLevel)

		default:
			w.walk(child, qualifier, topLevel)
		}
	}
}

// topLevelArrowSymbols picks out `name = (...) => {...}` / `name =
// function(...) {...}` declarators inside a top-level const/let/var
// statement and reports each as a KindFunction symbol named after the
// bound variable. A declarator whose value isn't one of the language's
// arrowTypes (e.g. `const max = 10`) is ignored.
func (w *walker) topLevelArrowSymbols(declList *sitter.Node) []core.Symbol {
	if w.spec.arrowTypes == nil {
		return nil
	}
	var symbols []core.Symbol
	for i := 0; i < int(declList.NamedChildCount()); i++ {
		declarator := declList.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}
		nameNode := declarator.ChildByFieldName("name")
		valueNode := declarator.ChildByFieldName("value")
		if nameNode == nil || valueNode == nil || !isIn(valueNode.Type(), w.spec.arrowTypes) {
			continue
		}
		name := w.text(nameNode)
		if name == "" {
			continue
		}
		symbols = append(symbols, w.buildSymbol(valueNode, core.KindFunction, name, ""))
	}
	return symbols
}

func qualifyName(qualifier, name string) string {
	if qualifier == "" {
		return name
	}
	return qualifier + "." + name
}

func isIn(typ string, set map[string]struct{}) bool {
	_, ok := set[typ]
	return ok
}

func (w *walker) nameOf(n *sitter.Node) string {
	nameNode := n.ChildByFieldName(w.spec.nameField)
	if nameNode == nil {
		return ""
	}
	return w.text(nameNode)
}

// classNameOf handles Go's type_declaration, which wraps a type_spec child
// rather than exposing a "name" field directly.
func (w *walker) classNameOf(n *sitter.Node) string {
	if n.Type() == "type_declaration" {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			spec := n.NamedChild(i)
			if spec.Type() == "type_spec" {
				if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
					return w.text(nameNode)
				}
			}
		}
		return ""
	}
	return w.nameOf(n)
}

func (w *walker) callName(n *sitter.Node) string {
	fn := n.ChildByFieldName("function")
	if fn == nil && n.NamedChildCount() > 0 {
		fn = n.NamedChild(0)
	}
	name := w.text(fn)
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSpace(name)
}

func (w *walker) buildSymbol(n *sitter.Node, kind core.SymbolKind, name, qualifier string) core.Symbol {
	qualified := qualifyName(qualifier, name)

	var params []string
	if paramsNode := n.ChildByFieldName(w.spec.paramsField); paramsNode != nil {
		params = []string{w.text(paramsNode)}
	}
	var returnType string
	if w.spec.resultField != "" {
		if resultNode := n.ChildByFieldName(w.spec.resultField); resultNode != nil {
			returnType = w.text(resultNode)
		}
	}

	var receiver string
	if w.spec.receiverField != "" {
		if recvNode := n.ChildByFieldName(w.spec.receiverField); recvNode != nil {
			receiver = w.text(recvNode)
		}
	}

	sigText := strings.TrimSpace(receiver + " " + name + strings.Join(params, "") + " " + returnType)
	visibility := w.visibilityOf(name)

	innerCalls := collectCalls(n, w.spec.callTypes, w)

	return core.Symbol{
		Repository: w.repository,
		Branch:     w.branch,
		FilePath:   w.path,
		Kind:       kind,
		Name:       qualified,
		Signature: core.Signature{
			Text:       sigText,
			Parameters: params,
			ReturnType: strings.TrimSpace(returnType),
			Visibility: visibility,
		},
		Body:         w.text(n),
		StartLine:    int(n.StartPoint().Row) + 1,
		EndLine:      int(n.EndPoint().Row) + 1,
		CallEdges:    innerCalls,
		ParseQuality: core.ParseQualityHigh,
	}
}

func (w *walker) visibilityOf(name string) core.Visibility {
	if w.spec.exportedByCase {
		local := name
		if idx := strings.LastIndexByte(local, '.'); idx >= 0 {
			local = local[idx+1:]
		}
		if local != "" && local[0] >= 'A' && local[0] <= 'Z' {
			return core.VisibilityPublic
		}
		return core.VisibilityPrivate
	}
	if strings.HasPrefix(name, "__") {
		return core.VisibilityPrivate
	}
	if strings.HasPrefix(name, "_") {
		return core.VisibilityProtected
	}
	return core.VisibilityPublic
}

// collectCalls walks a single symbol's subtree for outbound call names,
// independent of the top-level walker's call-edge aggregation (which feeds
// the ParsedFile-wide list).
func collectCalls(n *sitter.Node, callTypes map[string]struct{}, w *walker) []string {
	var calls []string
	var visit func(*sitter.Node)
	visit = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if isIn(node.Type(), callTypes) {
			calls = append(calls, w.callName(node))
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			visit(node.NamedChild(i))
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		visit(n.NamedChild(i))
	}
	return calls
}
