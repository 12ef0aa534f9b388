// Package skeleton is a decompiling transform that renders the declarations
// of a compiled class (package, imports, type header, fields with constant
// values, method signatures) without method bodies.
package skeleton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phobologic/jdsource/internal/classfile"
	"github.com/phobologic/jdsource/internal/loader"
	"github.com/phobologic/jdsource/internal/model"
	"github.com/phobologic/jdsource/internal/printer"
)

// Version identifies the skeleton transform in metadata blocks.
const Version = "1.0.0"

// Configuration keys read from the transform configuration map.
const (
	RealignLineNumbersKey = "realignLineNumbers"
	ShowSyntheticKey      = "showSynthetic"
)

// Decompiler renders class skeletons. The zero value is ready to use and
// holds no state between calls.
type Decompiler struct{}

// Version reports the transform version.
func (Decompiler) Version() string {
	return Version
}

// Decompile loads internalTypeName from l and writes its skeleton to p.
func (Decompiler) Decompile(l loader.Loader, p printer.Printer, internalTypeName string, configuration map[string]any) error {
	data, err := l.Load(internalTypeName)
	if err != nil {
		return err
	}
	cf, err := classfile.Parse(data)
	if err != nil {
		return err
	}
	if cf.Name != internalTypeName {
		return fmt.Errorf("class file declares %s, expected %s", cf.Name, internalTypeName)
	}

	w := &writer{
		p:             p,
		cf:            cf,
		realign:       flag(configuration, RealignLineNumbersKey),
		showSynthetic: flag(configuration, ShowSyntheticKey),
		imports:       newImports(cf.Name),
	}
	return w.write()
}

func flag(configuration map[string]any, key string) bool {
	v, _ := configuration[key].(bool)
	return v
}

type tokenKind int

const (
	textToken tokenKind = iota
	keywordToken
	stringToken
	numberToken
	nameToken
)

type token struct {
	kind tokenKind
	text string
}

func text(s string) token    { return token{textToken, s} }
func keyword(s string) token { return token{keywordToken, s} }

// line is one declaration ready for output; the nameToken prints as a
// declaration of name/desc.
type line struct {
	number int
	tokens []token
	kind   printer.DeclarationKind
	name   string
	desc   string
}

type writer struct {
	p             printer.Printer
	cf            *classfile.ClassFile
	realign       bool
	showSynthetic bool
	imports       *imports

	emitted int
}

func (w *writer) write() error {
	// Members and header are built first so the import table is complete
	// before it is printed.
	fields, err := w.fields()
	if err != nil {
		return err
	}
	methods, err := w.methods()
	if err != nil {
		return err
	}
	header := w.header()

	if w.realign {
		sort.SliceStable(methods, func(i, j int) bool {
			li, lj := methods[i].number, methods[j].number
			if li == 0 || lj == 0 {
				return li != 0 && lj == 0
			}
			return li < lj
		})
	}

	cf := w.cf
	w.p.Start(cf.MaxLine(), cf.Version.Major, cf.Version.Minor)

	if pkg := model.TypeName(cf.Name).Package(); pkg != "" {
		w.p.StartLine(printer.UnknownLineNumber)
		w.p.PrintKeyword("package")
		w.p.PrintText(" ")
		w.p.PrintDeclaration(printer.PackageKind, pkg, classfile.SourceName(pkg), "")
		w.p.PrintText(";")
		w.endLine()
		w.blank()
	}

	if names := w.imports.list(); len(names) > 0 {
		w.p.StartMarker(printer.ImportStatementsMarker)
		for _, name := range names {
			w.p.StartLine(printer.UnknownLineNumber)
			w.p.PrintKeyword("import")
			w.p.PrintText(" ")
			w.p.PrintReference(printer.TypeKind, name, classfile.SourceName(name), "", cf.Name)
			w.p.PrintText(";")
			w.endLine()
		}
		w.p.EndMarker(printer.ImportStatementsMarker)
		w.blank()
	}

	w.emit(header)
	w.p.Indent()

	for _, f := range fields {
		w.emit(f)
	}
	if len(fields) > 0 && len(methods) > 0 {
		w.blank()
	}
	for _, m := range methods {
		if w.realign && m.number > w.emitted+1 {
			w.p.ExtraLine(m.number - w.emitted - 1)
			w.emitted = m.number - 1
		}
		w.emit(m)
	}

	w.p.Unindent()
	w.p.StartLine(printer.UnknownLineNumber)
	w.p.PrintText("}")
	w.endLine()
	w.p.End()
	return nil
}

func (w *writer) endLine() {
	w.p.EndLine()
	w.emitted++
}

func (w *writer) blank() {
	w.p.StartLine(printer.UnknownLineNumber)
	w.endLine()
}

func (w *writer) emit(l line) {
	w.p.StartLine(l.number)
	for _, t := range l.tokens {
		switch t.kind {
		case keywordToken:
			w.p.PrintKeyword(t.text)
		case stringToken:
			w.p.PrintStringConstant(t.text, w.cf.Name)
		case numberToken:
			w.p.PrintNumericConstant(t.text)
		case nameToken:
			w.p.PrintDeclaration(l.kind, w.cf.Name, l.name, l.desc)
		default:
			w.p.PrintText(t.text)
		}
	}
	w.endLine()
}

func (w *writer) header() line {
	cf := w.cf
	a := cf.Access

	var toks []token
	for _, kw := range visibility(a) {
		toks = append(toks, keyword(kw), text(" "))
	}

	isInterface := a.Has(classfile.AccInterface)
	switch {
	case a.Has(classfile.AccAnnotation):
		toks = append(toks, keyword("@interface"))
	case isInterface:
		toks = append(toks, keyword("interface"))
	case a.Has(classfile.AccEnum):
		toks = append(toks, keyword("enum"))
	default:
		if a.Has(classfile.AccAbstract) {
			toks = append(toks, keyword("abstract"), text(" "))
		}
		if a.Has(classfile.AccFinal) {
			toks = append(toks, keyword("final"), text(" "))
		}
		toks = append(toks, keyword("class"))
	}
	toks = append(toks, text(" "), token{kind: nameToken})

	if !isInterface && !a.Has(classfile.AccEnum) && cf.SuperName != "" && cf.SuperName != "java/lang/Object" {
		toks = append(toks, text(" "), keyword("extends"), text(" "+w.imports.use(cf.SuperName)))
	}

	var ifaces []string
	for _, iface := range cf.Interfaces {
		if a.Has(classfile.AccAnnotation) && iface == "java/lang/annotation/Annotation" {
			continue
		}
		ifaces = append(ifaces, w.imports.use(iface))
	}
	if len(ifaces) > 0 {
		kw := "implements"
		if isInterface {
			kw = "extends"
		}
		toks = append(toks, text(" "), keyword(kw), text(" "+strings.Join(ifaces, ", ")))
	}
	toks = append(toks, text(" {"))

	return line{
		tokens: toks,
		kind:   printer.TypeKind,
		name:   classfile.ShortName(cf.Name),
	}
}

func visibility(a classfile.AccessFlags) []string {
	switch {
	case a.Has(classfile.AccPublic):
		return []string{"public"}
	case a.Has(classfile.AccProtected):
		return []string{"protected"}
	case a.Has(classfile.AccPrivate):
		return []string{"private"}
	}
	return nil
}

func (w *writer) hidden(a classfile.AccessFlags) bool {
	return !w.showSynthetic && a.Has(classfile.AccSynthetic)
}

func (w *writer) fields() ([]line, error) {
	isInterface := w.cf.Access.Has(classfile.AccInterface)

	var out []line
	var enumConstants []string
	for _, f := range w.cf.Fields {
		if w.hidden(f.Access) {
			continue
		}
		if f.Access.Has(classfile.AccEnum) {
			enumConstants = append(enumConstants, f.Name)
			continue
		}

		typ, err := classfile.ParseField(f.Descriptor)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}

		var toks []token
		if !isInterface {
			for _, kw := range fieldModifiers(f.Access) {
				toks = append(toks, keyword(kw), text(" "))
			}
		}
		toks = append(toks, text(w.typeRef(typ)+" "), token{kind: nameToken})
		if f.ConstantValue != nil {
			toks = append(toks, text(" = "), constantToken(f.Descriptor, f.ConstantValue))
		}
		toks = append(toks, text(";"))

		out = append(out, line{tokens: toks, kind: printer.FieldKind, name: f.Name, desc: f.Descriptor})
	}

	if len(enumConstants) > 0 {
		// Constants share one line: the first is the declaration, the rest
		// follow as text.
		toks := []token{{kind: nameToken}}
		for _, c := range enumConstants[1:] {
			toks = append(toks, text(", "+c))
		}
		toks = append(toks, text(";"))
		enumLine := line{tokens: toks, kind: printer.FieldKind, name: enumConstants[0], desc: "L" + w.cf.Name + ";"}
		out = append([]line{enumLine}, out...)
	}
	return out, nil
}

func fieldModifiers(a classfile.AccessFlags) []string {
	mods := visibility(a)
	if a.Has(classfile.AccStatic) {
		mods = append(mods, "static")
	}
	if a.Has(classfile.AccFinal) {
		mods = append(mods, "final")
	}
	if a.Has(classfile.AccTransient) {
		mods = append(mods, "transient")
	}
	if a.Has(classfile.AccVolatile) {
		mods = append(mods, "volatile")
	}
	return mods
}

func (w *writer) methods() ([]line, error) {
	cf := w.cf
	isInterface := cf.Access.Has(classfile.AccInterface)
	isEnum := cf.Access.Has(classfile.AccEnum)

	var out []line
	for _, m := range cf.Methods {
		if w.hidden(m.Access) || (!w.showSynthetic && m.Access.Has(classfile.AccBridge)) {
			continue
		}
		if isEnum && m.Access.Has(classfile.AccStatic) && (m.Name == "values" || m.Name == "valueOf") {
			continue
		}

		if m.Name == "<clinit>" {
			out = append(out, line{
				number: m.FirstLine,
				tokens: []token{keyword("static"), text(" {}")},
				kind:   printer.MethodKind,
				name:   m.Name,
				desc:   m.Descriptor,
			})
			continue
		}

		params, result, err := classfile.ParseMethod(m.Descriptor)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m.Name, err)
		}

		var toks []token
		for _, kw := range methodModifiers(m.Access, isInterface) {
			toks = append(toks, keyword(kw), text(" "))
		}

		kind := printer.MethodKind
		name := m.Name
		if m.Name == "<init>" {
			kind = printer.ConstructorKind
			name = classfile.ShortName(cf.Name)
		} else {
			toks = append(toks, text(w.typeRef(result)+" "))
		}
		toks = append(toks, token{kind: nameToken}, text("("))

		names := paramNames(params)
		for i, p := range params {
			if i > 0 {
				toks = append(toks, text(", "))
			}
			t := w.typeRef(p)
			if i == len(params)-1 && m.Access.Has(classfile.AccVarargs) && p.Dims > 0 {
				t = strings.TrimSuffix(t, "[]") + "..."
			}
			toks = append(toks, text(t+" "+names[i]))
		}
		toks = append(toks, text(")"))

		if m.Access.Has(classfile.AccAbstract) || m.Access.Has(classfile.AccNative) {
			toks = append(toks, text(";"))
		} else {
			toks = append(toks, text(" { /* compiled code */ }"))
		}

		out = append(out, line{number: m.FirstLine, tokens: toks, kind: kind, name: name, desc: m.Descriptor})
	}
	return out, nil
}

func methodModifiers(a classfile.AccessFlags, inInterface bool) []string {
	var mods []string
	if !inInterface || !a.Has(classfile.AccPublic) {
		mods = append(mods, visibility(a)...)
	}
	if inInterface && !a.Has(classfile.AccAbstract) && !a.Has(classfile.AccStatic) && !a.Has(classfile.AccPrivate) {
		mods = append(mods, "default")
	}
	if !inInterface && a.Has(classfile.AccAbstract) {
		mods = append(mods, "abstract")
	}
	if a.Has(classfile.AccStatic) {
		mods = append(mods, "static")
	}
	if a.Has(classfile.AccFinal) {
		mods = append(mods, "final")
	}
	if a.Has(classfile.AccSynchronized) {
		mods = append(mods, "synchronized")
	}
	if a.Has(classfile.AccNative) {
		mods = append(mods, "native")
	}
	return mods
}

// typeRef renders t for source, shortening class names through the
// import table.
func (w *writer) typeRef(t classfile.Type) string {
	name := t.Name
	if !t.Primitive {
		name = w.imports.use(t.Name)
	}
	return name + strings.Repeat("[]", t.Dims)
}

// paramNames derives names such as paramString or paramArrayOfInt, adding a
// numeric suffix when a name repeats.
func paramNames(params []classfile.Type) []string {
	base := make([]string, len(params))
	counts := map[string]int{}
	for i, p := range params {
		short := classfile.ShortName(p.Name)
		base[i] = "param" + strings.Repeat("ArrayOf", p.Dims) + strings.ToUpper(short[:1]) + short[1:]
		counts[base[i]]++
	}

	names := make([]string, len(params))
	seen := map[string]int{}
	for i, n := range base {
		if counts[n] > 1 {
			seen[n]++
			n = fmt.Sprintf("%s%d", n, seen[n])
		}
		names[i] = n
	}
	return names
}

