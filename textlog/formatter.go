package textlog

import (
	"io"
	"strings"
	"sync"

	"github.com/tracelens/tracelens/encoding"
	"github.com/tracelens/tracelens/trace"
	"github.com/tracelens/tracelens/tree"
)

// A format template interleaves literal text with %attrname% fields. A
// field may carry an alignment spec in brackets: %[12]region% pads the
// value to 12 columns, %[8r]duration% right-aligns it. Values come from
// the snapshot being formatted: immediate entries first, then the data of
// nodes along the referenced context paths.
type field struct {
	prefix     string // literal text preceding the field
	attrName   string
	attrID     uint64 // InvalidID until the attribute is registered
	width      int
	rightAlign bool
}

// Formatter renders snapshots as text lines according to a format
// template. Attribute ids are resolved incrementally: call
// UpdateAttribute as attributes are created, the way the text log
// service does from its attribute callback.
//
// A Formatter is safe for concurrent use.
type Formatter struct {
	mu     sync.Mutex
	fields []field
	suffix string // literal text after the last field
}

// NewFormatter parses the format template. Malformed fields (an unpaired
// percent sign) are kept as literal text.
func NewFormatter(formatStr string, t *tree.Tree) *Formatter {
	f := &Formatter{}
	f.parse(formatStr)

	// Pick up attributes registered before the formatter existed.
	for i := range f.fields {
		if attr, ok := t.Attribute(f.fields[i].attrName); ok {
			f.fields[i].attrID = attr.ID()
		}
	}

	return f
}

func (f *Formatter) parse(formatStr string) {
	rest := formatStr
	for {
		start := strings.IndexByte(rest, '%')
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start+1:], '%')
		if end < 0 {
			break
		}

		body := rest[start+1 : start+1+end]
		fld := field{prefix: rest[:start], attrID: tree.InvalidID}

		if strings.HasPrefix(body, "[") {
			specEnd := strings.IndexByte(body, ']')
			if specEnd < 0 {
				// Unterminated spec, treat the whole body as a name.
				fld.attrName = body
			} else {
				spec := body[1:specEnd]
				if strings.HasSuffix(spec, "r") {
					fld.rightAlign = true
					spec = spec[:len(spec)-1]
				}
				for _, ch := range spec {
					if ch < '0' || ch > '9' {
						fld.width = 0
						break
					}
					fld.width = fld.width*10 + int(ch-'0')
				}
				fld.attrName = body[specEnd+1:]
			}
		} else {
			fld.attrName = body
		}

		f.fields = append(f.fields, fld)
		rest = rest[start+1+end+1:]
	}
	f.suffix = rest
}

// UpdateAttribute resolves any fields naming the given attribute.
func (f *Formatter) UpdateAttribute(attr tree.Attribute) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.fields {
		if f.fields[i].attrName == attr.Name() {
			f.fields[i].attrID = attr.ID()
		}
	}
}

// Format renders one snapshot as a single line (without trailing newline)
// to w. Fields whose attribute is unregistered or absent from the
// snapshot render as empty, padded to their width.
func (f *Formatter) Format(w io.Writer, t *tree.Tree, snap *trace.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var sb strings.Builder
	for _, fld := range f.fields {
		sb.WriteString(fld.prefix)

		var text string
		if fld.attrID != tree.InvalidID {
			if v, ok := lookupValue(t, snap, fld.attrID); ok {
				text = v.String()
			}
		}

		if pad := fld.width - len(text); pad > 0 {
			if fld.rightAlign {
				text = strings.Repeat(" ", pad) + text
			} else {
				text += strings.Repeat(" ", pad)
			}
		}
		sb.WriteString(text)
	}
	sb.WriteString(f.suffix)

	_, err := io.WriteString(w, sb.String())

	return err
}

// lookupValue finds the value of attrID in snap: immediate entries take
// precedence, then the data of nodes along each referenced context path.
func lookupValue(t *tree.Tree, snap *trace.Snapshot, attrID uint64) (encoding.Variant, bool) {
	attrs, vals := snap.Immediates()
	for i, a := range attrs {
		if a == attrID {
			return vals[i], true
		}
	}

	for _, id := range snap.Nodes() {
		for node := t.Node(id); node != nil; node = node.Parent() {
			if node.Attribute() == attrID {
				return node.Data(), true
			}
		}
	}

	return encoding.Variant{}, false
}
