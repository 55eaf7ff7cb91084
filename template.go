package docxtemplar

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	expro "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/conf"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// Шаблонные фрагменты в ячейках таблиц.
// Синтаксис маркеров:
// - {{ path.to.value }}
// - {{= expr}} (старая форма, поддерживается)
// Внутри маркера — выражение expr-lang: пути, индексы, арифметика, встроенные функции.

// -----------------------------
// Токены фрагмента
// -----------------------------

type cellTokenKind int

const (
	tokenText cellTokenKind = iota
	tokenExpr
)

type cellToken struct {
	kind    cellTokenKind
	text    string
	expr    string
	program *vm.Program
}

// Разрешаем любые символы внутри выражения (включая переводы строк из ячейки)
var rxExpr = regexp.MustCompile(`\{\{=?\s*([\s\S]+?)\s*\}\}`)

// HasMarkers сообщает, содержит ли текст хотя бы один маркер {{...}}.
func HasMarkers(s string) bool { return rxExpr.MatchString(s) }

func parseCellTokens(s string) []cellToken {
	ms := rxExpr.FindAllStringSubmatchIndex(s, -1)
	if len(ms) == 0 {
		return nil
	}
	var toks []cellToken
	last := 0
	for _, m := range ms {
		start, end := m[0], m[1]
		es, ee := m[2], m[3]
		if start > last {
			toks = append(toks, cellToken{kind: tokenText, text: s[last:start]})
		}
		toks = append(toks, cellToken{kind: tokenExpr, expr: strings.TrimSpace(s[es:ee])})
		last = end
	}
	if last < len(s) {
		toks = append(toks, cellToken{kind: tokenText, text: s[last:]})
	}
	return toks
}

// -----------------------------
// Fragment
// -----------------------------

// Fragment — разобранный текст ячейки: литералы и скомпилированные выражения.
type Fragment struct {
	tokens []cellToken
	vars   []string
}

// ParseFragment разбирает текст и извлекает множество путей переменных.
// Ошибка возвращается, если хотя бы одно выражение не разбирается.
func ParseFragment(s string) (*Fragment, error) {
	f := &Fragment{tokens: parseCellTokens(s)}
	set := map[string]struct{}{}
	for i := range f.tokens {
		tk := &f.tokens[i]
		if tk.kind != tokenExpr {
			continue
		}
		tree, err := parser.ParseWithConfig(tk.expr, conf.CreateNew())
		if err != nil {
			return nil, fmt.Errorf("выражение %q: %w", tk.expr, err)
		}
		for _, p := range collectVariables(&tree.Node) {
			set[p] = struct{}{}
		}
		program, err := expro.Compile(tk.expr)
		if err != nil {
			return nil, fmt.Errorf("выражение %q: %w", tk.expr, err)
		}
		tk.program = program
	}
	f.vars = make([]string, 0, len(set))
	for p := range set {
		f.vars = append(f.vars, p)
	}
	sort.Strings(f.vars)
	return f, nil
}

// Variables возвращает отсортированный список различных путей переменных.
func (f *Fragment) Variables() []string { return append([]string(nil), f.vars...) }

// CompleteFor — каждая переменная фрагмента разрешается в data в значение, отличное от null.
func (f *Fragment) CompleteFor(data Value) bool {
	for _, p := range f.vars {
		v, ok := data.Lookup(p)
		if !ok || v.IsNull() {
			return false
		}
	}
	return true
}

// Render подставляет значения из data. Литералы вне маркеров копируются как есть.
func (f *Fragment) Render(data Value) (string, error) {
	env, _ := data.Interface().(map[string]interface{})
	if env == nil {
		env = map[string]interface{}{}
	}
	var sb strings.Builder
	for _, tk := range f.tokens {
		if tk.kind == tokenText {
			sb.WriteString(tk.text)
			continue
		}
		out, err := expro.Run(tk.program, env)
		if err != nil {
			return "", fmt.Errorf("выражение %q: %w", tk.expr, err)
		}
		sb.WriteString(toString(out))
	}
	return sb.String(), nil
}

// -----------------------------
// Извлечение переменных из AST
// -----------------------------

// varCollector считает максимальные цепочки обращений вида a.b[0].c.
// ast.Walk обходит узлы снизу вверх, поэтому при посещении MemberNode
// вложенная цепочка уже учтена и её счётчик уменьшается.
type varCollector struct {
	counts   map[string]int
	declared map[string]struct{}
}

func (c *varCollector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		if p, ok := pathOf(n); ok {
			c.counts[p]++
		}
	case *ast.MemberNode:
		if p, ok := pathOf(n); ok {
			c.counts[p]++
			if inner, ok := pathOf(n.Node); ok {
				c.counts[inner]--
			}
		}
	case *ast.CallNode:
		// вызываемое имя — не переменная; у метода a.b() переменной остаётся a
		switch callee := n.Callee.(type) {
		case *ast.IdentifierNode:
			c.counts[callee.Value]--
		case *ast.MemberNode:
			if p, ok := pathOf(callee); ok {
				c.counts[p]--
				if inner, ok := pathOf(callee.Node); ok {
					c.counts[inner]++
				}
			}
		}
	case *ast.VariableDeclaratorNode:
		c.declared[n.Name] = struct{}{}
	}
}

func collectVariables(root *ast.Node) []string {
	c := &varCollector{counts: map[string]int{}, declared: map[string]struct{}{}}
	ast.Walk(root, c)
	var out []string
	for p, n := range c.counts {
		if n <= 0 {
			continue
		}
		head, _ := nextSeg(p)
		if _, ok := c.declared[head]; ok {
			continue
		}
		out = append(out, p)
	}
	return out
}

// pathOf строит путь для идентификатора или цепочки обращений к нему.
func pathOf(node ast.Node) (string, bool) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		if n.Value == "" || strings.HasPrefix(n.Value, "$") {
			return "", false
		}
		return n.Value, true
	case *ast.MemberNode:
		base, ok := pathOf(n.Node)
		if !ok {
			return "", false
		}
		switch p := n.Property.(type) {
		case *ast.StringNode:
			if p.Value == "" || strings.ContainsAny(p.Value, ".[]") {
				return "", false
			}
			return base + "." + p.Value, true
		case *ast.IntegerNode:
			return base + "[" + strconv.Itoa(p.Value) + "]", true
		}
	}
	return "", false
}

// -----------------------------
// Resolver
// -----------------------------

// Resolution — результат разрешения одного фрагмента.
type Resolution struct {
	Text      string
	Matched   bool
	Record    int // индекс записи в Pool, -1 если не найдена
	Variables []string
}

// Resolver подбирает первую полную запись для фрагмента. Пул передаётся при каждом вызове.
type Resolver struct {
	Logger *log.Logger
	// WarnUnresolved включает предупреждение для фрагментов без подходящей записи.
	WarnUnresolved bool
}

func (r *Resolver) logger() *log.Logger {
	if r == nil || r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

// Resolve рендерит fragment первой записью пула, в которой есть все переменные.
// Если такой записи нет (или пул пуст), возвращается исходный текст.
func (r *Resolver) Resolve(fragment string, pool Pool) Resolution {
	res := Resolution{Text: fragment, Record: -1}
	if !HasMarkers(fragment) {
		return res
	}
	f, err := ParseFragment(fragment)
	if err != nil {
		r.logger().Warn("⚠️ Не удалось разобрать шаблон", "fragment", fragment, "err", err)
		return res
	}
	res.Variables = f.Variables()
	for i, rec := range pool {
		if !f.CompleteFor(rec.Data) {
			continue
		}
		text, err := f.Render(rec.Data)
		if err != nil {
			r.logger().Debug("запись не подошла", "record", rec.Name, "err", err)
			continue
		}
		res.Text, res.Matched, res.Record = text, true, i
		return res
	}
	if r != nil && r.WarnUnresolved {
		r.logger().Warn("⚠️ Нет записи со всеми переменными", "fragment", fragment, "vars", res.Variables)
	}
	return res
}

// Resolve — вариант без настроек: только итоговый текст.
func Resolve(fragment string, pool Pool) string {
	return (&Resolver{}).Resolve(fragment, pool).Text
}
