// Package xliff implements an editable view of XLIFF 1.2 documents as
// exported by xcodebuild -exportLocalizations.
//
// Only the subset ibkit edits is modelled: <file> groups, their
// <trans-unit> elements and each unit's first <note>. Parsing records the
// byte span of every such element; serialization splices edits into the
// original bytes, so everything not edited (prolog, namespaces, attribute
// quoting, whitespace, sources and targets) is written back verbatim.
package xliff

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/minios-linux/ibkit/apperr"
)

// Namespace is the XLIFF 1.2 namespace Xcode declares as default.
const Namespace = "urn:oasis:names:tc:xliff:document:1.2"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ---------------------------------------------------------------------------
// Data model
// ---------------------------------------------------------------------------

// span is a half-open byte range [start, end) into Document.src.
type span struct {
	start, end int
}

// Document is a parsed interchange document for one language.
type Document struct {
	// Namespace is the resolved namespace of the root element. Element
	// lookups match on it, whether it is declared as default or prefixed.
	Namespace string

	src      []byte
	bom      bool
	encoding encoding.Encoding // nil when the document is UTF-8
	files    []*File
}

// File is a <file> group.
type File struct {
	// Original is the original="…" attribute (source path inside the project).
	Original string
	// SourceLanguage and TargetLanguage mirror the file attributes.
	SourceLanguage string
	TargetLanguage string

	el      span
	units   []*Unit
	removed bool
}

// Unit is a <trans-unit>.
type Unit struct {
	// ID is the id="…" attribute, e.g. "F4z-Kg-ni6.text".
	ID string

	el      span
	file    *File
	note    *note
	removed bool
}

// note is the first <note> child of a unit.
type note struct {
	el          span
	inner       span
	selfClosing bool
	startTag    string // raw start tag as written, used to expand <note/>
	qname       string // element name as written, possibly prefixed
	text        string
	updated     bool
}

// Units returns the file's live units in document order.
func (f *File) Units() []*Unit {
	var units []*Unit
	for _, u := range f.units {
		if !u.removed {
			units = append(units, u)
		}
	}
	return units
}

// File returns the group the unit belongs to.
func (u *Unit) File() *File { return u.file }

// HasNote reports whether the unit carries a <note> slot.
func (u *Unit) HasNote() bool { return u.note != nil }

// Note returns the unit's note text and whether a note slot exists.
func (u *Unit) Note() (string, bool) {
	if u.note == nil {
		return "", false
	}
	return u.note.text, true
}

// SetNote replaces the note content. A unit without a note slot is a
// structural error: the slot is never created.
func (u *Unit) SetNote(text string) error {
	if u.note == nil {
		return &apperr.StructuralError{UnitID: u.ID, Detail: "missing <note> element"}
	}
	if u.note.text == text {
		return nil
	}
	u.note.text = text
	u.note.updated = true
	return nil
}

// Files returns the live file groups in document order.
func (d *Document) Files() []*File {
	var files []*File
	for _, f := range d.files {
		if !f.removed {
			files = append(files, f)
		}
	}
	return files
}

// Units returns every live translation unit in document order.
func (d *Document) Units() []*Unit {
	var units []*Unit
	for _, f := range d.Files() {
		units = append(units, f.Units()...)
	}
	return units
}

// RemoveFile drops a file group and all its units.
func (d *Document) RemoveFile(f *File) {
	f.removed = true
}

// RemoveUnit drops a single translation unit.
func (d *Document) RemoveUnit(u *Unit) {
	u.removed = true
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses the interchange document at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &apperr.InputNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		var pe *apperr.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return doc, nil
}

var reEncodingDecl = regexp.MustCompile(`^\s*<\?xml[^>]*?encoding\s*=\s*["']([^"']+)["']`)

// Parse parses an interchange document. Malformed input yields an
// *apperr.ParseError; no partial document is returned.
func Parse(data []byte) (*Document, error) {
	d := &Document{}

	src := data
	if bytes.HasPrefix(src, utf8BOM) {
		d.bom = true
		src = src[len(utf8BOM):]
	}

	if m := reEncodingDecl.FindSubmatch(src); m != nil {
		label := strings.ToLower(string(m[1]))
		if label != "utf-8" && label != "utf8" {
			enc, err := htmlindex.Get(label)
			if err != nil {
				return nil, &apperr.ParseError{Err: fmt.Errorf("unsupported encoding %q: %w", label, err)}
			}
			decoded, err := enc.NewDecoder().Bytes(src)
			if err != nil {
				return nil, &apperr.ParseError{Err: fmt.Errorf("decoding %s: %w", label, err)}
			}
			d.encoding = enc
			src = decoded
		}
	}
	d.src = src

	if err := d.scan(); err != nil {
		return nil, &apperr.ParseError{Err: err}
	}
	return d, nil
}

// frame is an open element on the scan stack.
type frame struct {
	name        xml.Name
	start       int
	tagEnd      int
	selfClosing bool
}

func (d *Document) scan() error {
	dec := xml.NewDecoder(bytes.NewReader(d.src))
	// src is UTF-8 at this point, whatever the prolog declares.
	dec.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) { return in, nil }

	var (
		stack     []frame
		curFile   *File
		fileDepth int
		curUnit   *Unit
		unitDepth int
		curNote   *note
		noteDepth int
		noteText  strings.Builder
		sawRoot   bool
	)

	for {
		off := int(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		end := int(dec.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			fr := frame{
				name:        t.Name,
				start:       off,
				tagEnd:      end,
				selfClosing: end-off >= 2 && d.src[end-2] == '/' && d.src[end-1] == '>',
			}
			stack = append(stack, fr)
			depth := len(stack)

			if depth == 1 {
				if t.Name.Local != "xliff" {
					return fmt.Errorf("root element is <%s>, want <xliff>", t.Name.Local)
				}
				sawRoot = true
				d.Namespace = t.Name.Space
				continue
			}

			switch {
			case curNote != nil:
				// nested markup inside a note; text is still collected
			case curFile == nil && d.is(t.Name, "file"):
				curFile = &File{
					Original:       attr(t, "original"),
					SourceLanguage: attr(t, "source-language"),
					TargetLanguage: attr(t, "target-language"),
				}
				fileDepth = depth
			case curFile != nil && curUnit == nil && d.is(t.Name, "trans-unit"):
				curUnit = &Unit{ID: attr(t, "id"), file: curFile}
				unitDepth = depth
			case curUnit != nil && curUnit.note == nil && depth == unitDepth+1 && d.is(t.Name, "note"):
				curNote = &note{
					selfClosing: fr.selfClosing,
					startTag:    string(d.src[off:end]),
					qname:       rawName(d.src[off:end]),
				}
				noteDepth = depth
				noteText.Reset()
			}

		case xml.CharData:
			if curNote != nil {
				noteText.Write(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				return fmt.Errorf("unbalanced </%s>", t.Name.Local)
			}
			fr := stack[len(stack)-1]
			depth := len(stack)
			stack = stack[:len(stack)-1]

			switch {
			case curNote != nil && depth == noteDepth:
				curNote.el = span{fr.start, end}
				if !fr.selfClosing {
					curNote.inner = span{fr.tagEnd, off}
				}
				curNote.text = noteText.String()
				curUnit.note = curNote
				curNote = nil
			case curUnit != nil && depth == unitDepth:
				curUnit.el = span{fr.start, end}
				curFile.units = append(curFile.units, curUnit)
				curUnit = nil
			case curFile != nil && depth == fileDepth:
				curFile.el = span{fr.start, end}
				d.files = append(d.files, curFile)
				curFile = nil
			}
		}
	}

	if !sawRoot {
		return errors.New("document has no root element")
	}
	if len(stack) != 0 {
		return fmt.Errorf("unclosed <%s>", stack[len(stack)-1].name.Local)
	}
	return nil
}

// is reports whether name is the XLIFF element local in the document's namespace.
func (d *Document) is(name xml.Name, local string) bool {
	return name.Local == local && name.Space == d.Namespace
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

// rawName returns the element name as written in a raw start tag.
func rawName(tag []byte) string {
	s := strings.TrimPrefix(string(tag), "<")
	if i := strings.IndexAny(s, " \t\r\n/>"); i >= 0 {
		s = s[:i]
	}
	return s
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

type edit struct {
	span
	text string
}

// Bytes serializes the document with all edits applied, in the document's
// original encoding.
func (d *Document) Bytes() ([]byte, error) {
	var edits []edit
	for _, f := range d.files {
		if f.removed {
			edits = append(edits, edit{span: d.lineSpan(f.el)})
			continue
		}
		for _, u := range f.units {
			switch {
			case u.removed:
				edits = append(edits, edit{span: d.lineSpan(u.el)})
			case u.note != nil && u.note.updated:
				edits = append(edits, d.noteEdit(u.note))
			}
		}
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b bytes.Buffer
	b.Grow(len(d.src))
	pos := 0
	for _, e := range edits {
		if e.start < pos {
			// contained in an earlier removal
			continue
		}
		b.Write(d.src[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.Write(d.src[pos:])

	out := b.Bytes()
	if d.encoding != nil {
		encoded, err := encoding.HTMLEscapeUnsupported(d.encoding.NewEncoder()).Bytes(out)
		if err != nil {
			return nil, fmt.Errorf("encoding document: %w", err)
		}
		out = encoded
	}
	if d.bom {
		out = append(append([]byte{}, utf8BOM...), out...)
	}
	return out, nil
}

// WriteFile serializes the document to path, replacing its contents.
func (d *Document) WriteFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (d *Document) noteEdit(n *note) edit {
	var escaped bytes.Buffer
	// EscapeText only fails on writer errors; bytes.Buffer never returns one.
	_ = xml.EscapeText(&escaped, []byte(n.text))

	if n.selfClosing {
		open := strings.TrimSuffix(n.startTag, "/>")
		open = strings.TrimRight(open, " \t\r\n") + ">"
		return edit{span: n.el, text: open + escaped.String() + "</" + n.qname + ">"}
	}
	return edit{span: n.inner, text: escaped.String()}
}

// lineSpan widens an element span to swallow its indentation and trailing
// newline when the element sits on lines of its own, so removals do not
// leave blank lines behind.
func (d *Document) lineSpan(s span) span {
	lineStart := s.start
	for lineStart > 0 && (d.src[lineStart-1] == ' ' || d.src[lineStart-1] == '\t') {
		lineStart--
	}
	if lineStart > 0 && d.src[lineStart-1] != '\n' {
		return s
	}

	lineEnd := s.end
	for lineEnd < len(d.src) && (d.src[lineEnd] == ' ' || d.src[lineEnd] == '\t' || d.src[lineEnd] == '\r') {
		lineEnd++
	}
	switch {
	case lineEnd < len(d.src) && d.src[lineEnd] == '\n':
		lineEnd++
	case lineEnd == len(d.src):
	default:
		return s
	}
	return span{lineStart, lineEnd}
}
