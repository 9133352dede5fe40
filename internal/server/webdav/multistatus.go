package webdav

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"davd/internal/server/props"
)

// multistatusWriter streams a 207 response. Entries are written in the
// order the traversal produced them; a failed resource becomes one more
// response element, it never aborts the document.
type multistatusWriter struct {
	w      io.Writer
	rsp    http.ResponseWriter
	opened bool
}

func newMultistatusWriter(rsp http.ResponseWriter) *multistatusWriter {
	return &multistatusWriter{w: rsp, rsp: rsp}
}

func (ms *multistatusWriter) open() {
	if ms.opened {
		return
	}
	ms.opened = true
	ms.rsp.Header().Set("Content-Type", `application/xml; charset="utf-8"`)
	ms.rsp.WriteHeader(http.StatusMultiStatus)
	io.WriteString(ms.w, xml.Header)
	io.WriteString(ms.w, `<D:multistatus xmlns:D="DAV:">`)
}

// response writes a status-only entry, used by recursive COPY, MOVE and
// DELETE to report one resource's outcome.
func (ms *multistatusWriter) response(href string, status int) {
	ms.open()
	fmt.Fprintf(ms.w, `<D:response><D:href>%s</D:href><D:status>%s</D:status></D:response>`,
		escapeXML(href), statusLine(status))
}

// propstatGroup collects the properties that resolved to one status.
type propstatGroup struct {
	status int
	props  []props.Property

	// error condition name inside D:error, e.g.
	// "cannot-modify-protected-property"
	condition string

	// namesOnly suppresses values (propname mode)
	namesOnly bool
}

// propstats writes one response element with a propstat per group.
// Empty groups are skipped; an entry with no non-empty group still
// produces a response with a bare 200 propstat so every visited
// resource appears in the document.
func (ms *multistatusWriter) propstats(href string, groups []propstatGroup) {
	ms.open()
	fmt.Fprintf(ms.w, `<D:response><D:href>%s</D:href>`, escapeXML(href))

	wrote := false
	for _, g := range groups {
		if len(g.props) == 0 {
			continue
		}
		wrote = true
		io.WriteString(ms.w, `<D:propstat><D:prop>`)
		for _, p := range g.props {
			writeProperty(ms.w, p, g.namesOnly)
		}
		io.WriteString(ms.w, `</D:prop>`)
		if g.condition != "" {
			fmt.Fprintf(ms.w, `<D:error><D:%s/></D:error>`, g.condition)
		}
		fmt.Fprintf(ms.w, `<D:status>%s</D:status></D:propstat>`, statusLine(g.status))
	}
	if !wrote {
		fmt.Fprintf(ms.w, `<D:propstat><D:prop/><D:status>%s</D:status></D:propstat>`,
			statusLine(http.StatusOK))
	}
	io.WriteString(ms.w, `</D:response>`)
}

func (ms *multistatusWriter) close() {
	ms.open()
	io.WriteString(ms.w, `</D:multistatus>`)
}

// empty reports whether nothing has been written yet, so callers can
// fall back to a plain status code when no per-resource failures were
// recorded.
func (ms *multistatusWriter) empty() bool {
	return !ms.opened
}

func writeProperty(w io.Writer, p props.Property, nameOnly bool) {
	local := escapeXML(p.Name.Local)
	switch {
	case p.Name.Space == "DAV:":
		if nameOnly || p.InnerXML == "" {
			fmt.Fprintf(w, `<D:%s/>`, local)
		} else {
			fmt.Fprintf(w, `<D:%s>%s</D:%s>`, local, p.InnerXML, local)
		}
	case p.Name.Space == "":
		if nameOnly || p.InnerXML == "" {
			fmt.Fprintf(w, `<%s/>`, local)
		} else {
			fmt.Fprintf(w, `<%s>%s</%s>`, local, p.InnerXML, local)
		}
	default:
		space := escapeXML(p.Name.Space)
		if nameOnly || p.InnerXML == "" {
			fmt.Fprintf(w, `<%s xmlns="%s"/>`, local, space)
		} else {
			fmt.Fprintf(w, `<%s xmlns="%s">%s</%s>`, local, space, p.InnerXML, local)
		}
	}
}

func statusLine(code int) string {
	return fmt.Sprintf("HTTP/1.1 %d %s", code, http.StatusText(code))
}

func escapeXML(s string) string {
	var b bytes.Buffer
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
