package probe

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfInfoKeys are the document-info dictionary fields copied into a Probe.
var pdfInfoKeys = []string{InfoTitle, InfoAuthor, InfoSubject, InfoCreationDate}

// ReadPDF reads the info dictionary and the first page's text layer.
// Text runs within a line are joined with single spaces and lines are
// separated by newlines.
func ReadPDF(data []byte) (p *Probe, err error) {
	// The PDF library panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = fmt.Errorf("%w: %v", ErrUnparsable, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	probe := &Probe{Info: make(map[string]string)}

	info := r.Trailer().Key("Info")
	if !info.IsNull() {
		for _, key := range pdfInfoKeys {
			if v := strings.TrimSpace(info.Key(key).Text()); v != "" {
				probe.Info[key] = v
			}
		}
	}

	if r.NumPage() < 1 {
		return probe, nil
	}

	page := r.Page(1)
	if page.V.IsNull() {
		return probe, nil
	}

	text, err := pageText(page)
	if err != nil {
		// Info fields are still useful without page text
		return probe, nil
	}
	probe.SampleText = text

	return probe, nil
}

// wordGap is the TJ adjustment, in thousandths of an em, beyond which a
// negative kern is read as a space between words.
const wordGap = 250

// pageText walks a page's content stream and rebuilds its text lines.
// Elements of one TJ array, and show operators with no move between them,
// form a single run. Runs separated by a horizontal move are joined with
// single spaces, and vertical moves start a new line.
func pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: page text: %v", ErrUnparsable, r)
		}
	}()

	strm := page.V.Key("Contents")
	if strm.IsNull() {
		return "", nil
	}

	encoders := make(map[string]pdf.TextEncoding)
	for _, name := range page.Fonts() {
		encoders[name] = page.Font(name).Encoder()
	}

	var (
		lw  lineWriter
		enc pdf.TextEncoding
		y   float64
	)
	decode := func(s string) string {
		if enc == nil {
			return s
		}
		return enc.Decode(s)
	}

	pdf.Interpret(strm, func(stk *pdf.Stack, op string) {
		args := make([]pdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "Tf":
			if len(args) == 2 {
				enc = encoders[args[0].Name()]
			}
		case "BT":
			lw.space()
		case "T*":
			lw.newLine()
		case "Td", "TD":
			if len(args) == 2 && args[1].Float64() != 0 {
				y += args[1].Float64()
				lw.newLine()
			} else {
				lw.space()
			}
		case "Tm":
			if len(args) == 6 {
				if f := args[5].Float64(); f != y {
					y = f
					lw.newLine()
				} else {
					lw.space()
				}
			}
		case "'", "\"":
			lw.newLine()
			if len(args) > 0 {
				lw.run(decode(args[len(args)-1].RawString()))
			}
		case "Tj":
			if len(args) == 1 {
				lw.run(decode(args[0].RawString()))
			}
		case "TJ":
			if len(args) != 1 {
				return
			}
			var run strings.Builder
			arr := args[0]
			for i := 0; i < arr.Len(); i++ {
				v := arr.Index(i)
				switch v.Kind() {
				case pdf.String:
					run.WriteString(decode(v.RawString()))
				case pdf.Integer, pdf.Real:
					if v.Float64() < -wordGap {
						run.WriteByte(' ')
					}
				}
			}
			lw.run(run.String())
		}
	})

	return lw.String(), nil
}

// lineWriter accumulates show-operator runs into lines. Runs on one line
// are separated by a single space and blank lines are dropped.
type lineWriter struct {
	lines   []string
	current []string
	// pendingSpace marks a horizontal move since the last run
	pendingSpace bool
}

func (w *lineWriter) run(s string) {
	if strings.TrimSpace(s) == "" {
		w.pendingSpace = w.pendingSpace || s != ""
		return
	}
	if n := len(w.current); n > 0 && !w.pendingSpace {
		w.current[n-1] += s
	} else {
		w.current = append(w.current, s)
	}
	w.pendingSpace = false
}

func (w *lineWriter) space() {
	w.pendingSpace = true
}

func (w *lineWriter) newLine() {
	if line := strings.Join(strings.Fields(strings.Join(w.current, " ")), " "); line != "" {
		w.lines = append(w.lines, line)
	}
	w.current = w.current[:0]
	w.pendingSpace = false
}

func (w *lineWriter) String() string {
	w.newLine()
	return strings.Join(w.lines, "\n")
}
