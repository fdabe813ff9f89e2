// =============================================================================
// CSV to Tally Sync - Response Interpreter
// =============================================================================
//
// Tally answers every import with a text body. A line-level failure is
// reported inside a LINEERROR marker; a clean import carries only counters:
//
//   <RESPONSE><CREATED>1</CREATED><ALTERED>0</ALTERED><ERRORS>0</ERRORS></RESPONSE>
//   <RESPONSE><LINEERROR>Voucher totals do not match!</LINEERROR></RESPONSE>
//
// The body is not guaranteed to be well-formed, so interpretation never fails:
//   1. Walk the body as lenient XML, collecting LINEERROR text and counters
//   2. If the walk breaks off, scan the raw text for LINEERROR markers
//
// =============================================================================

package tally

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const lineErrorTag = "LINEERROR"

var (
	lineErrorOpen  = regexp.MustCompile(`(?i)<LINEERROR\b[^>]*>`)
	lineErrorClose = regexp.MustCompile(`(?i)</LINEERROR\s*>`)
)

// Response is what could be read from a Tally import response.
// Tally output is not guaranteed to be well-formed, so every field is best
// effort.
type Response struct {
	Raw string

	// Counters are only meaningful when HasCounters is true.
	Created     int
	Altered     int
	Errors      int
	HasCounters bool

	// LineErrors holds the text of every LINEERROR marker found.
	LineErrors []string
}

// Interpret reads a response body. It never fails: the body is first walked
// as lenient XML and, if that breaks off, scanned as text for LINEERROR
// markers, including an unterminated trailing one.
func Interpret(body []byte) *Response {
	resp := &Response{Raw: string(body)}

	if err := resp.decode(body); err != nil {
		resp.LineErrors = scanLineErrors(resp.Raw)
	}

	return resp
}

// Accepted reports whether no line error was found.
func (r *Response) Accepted() bool {
	return len(r.LineErrors) == 0
}

// Message joins all line errors.
func (r *Response) Message() string {
	return strings.Join(r.LineErrors, "; ")
}

// Err returns a *RejectionError when the response carries line errors.
func (r *Response) Err() error {
	if r.Accepted() {
		return nil
	}
	return &RejectionError{Message: r.Message()}
}

// Summary describes the counters for logs, e.g. "created=1 altered=0 errors=0".
func (r *Response) Summary() string {
	if !r.HasCounters {
		return ""
	}
	return fmt.Sprintf("created=%d altered=%d errors=%d", r.Created, r.Altered, r.Errors)
}

// decode walks the body token by token, collecting LINEERROR text and
// import counters at any depth. Each open element keeps its own text buffer
// and hands it to its parent on close, so inline markup inside a marker
// keeps all of the marker's text.
func (r *Response) decode(body []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity

	var (
		stack      []*openElement
		lineErrors []string
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, &openElement{name: strings.ToUpper(t.Name.Local)})
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			closed := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			value := closed.text.String()
			r.record(closed.name, strings.TrimSpace(value), &lineErrors)
			if len(stack) > 0 {
				stack[len(stack)-1].text.WriteString(value)
			}
		}
	}

	r.LineErrors = lineErrors
	return nil
}

type openElement struct {
	name string
	text strings.Builder
}

func (r *Response) record(name, value string, lineErrors *[]string) {
	switch name {
	case lineErrorTag:
		*lineErrors = append(*lineErrors, value)
	case "CREATED":
		r.setCounter(&r.Created, value)
	case "ALTERED":
		r.setCounter(&r.Altered, value)
	case "ERRORS":
		r.setCounter(&r.Errors, value)
	}
}

func (r *Response) setCounter(dst *int, value string) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return
	}
	*dst = n
	r.HasCounters = true
}

// scanLineErrors finds LINEERROR markers in raw text. An opening marker with
// no closing one runs to the next tag or to the end of the body.
func scanLineErrors(raw string) []string {
	var found []string

	rest := raw
	for {
		open := lineErrorOpen.FindStringIndex(rest)
		if open == nil {
			return found
		}
		rest = rest[open[1]:]

		var msg string
		if closing := lineErrorClose.FindStringIndex(rest); closing != nil {
			msg = rest[:closing[0]]
			rest = rest[closing[1]:]
		} else {
			end := strings.IndexByte(rest, '<')
			if end < 0 {
				end = len(rest)
			}
			msg = rest[:end]
			rest = rest[end:]
		}

		found = append(found, strings.TrimSpace(html.UnescapeString(msg)))
	}
}
