package props

import (
	"bytes"
	"encoding/xml"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"davd/internal/server/lock"
	"davd/internal/server/provider"
)

// Property is one resolved property: a name and the inner XML of its
// value element.
type Property struct {
	Name     xml.Name
	InnerXML string
}

const davNS = "DAV:"

func davName(local string) xml.Name {
	return xml.Name{Space: davNS, Local: local}
}

// Manager resolves properties for a resource: live values computed
// fresh from provider and lock state on every call, dead values read
// from the store. It holds no per-request state of its own.
type Manager struct {
	Store Store
	Locks *lock.Manager
}

// Names returns every property name the resource supports, live and
// dead, for PROPFIND propname mode.
func (m *Manager) Names(srvPath string, fi provider.FileInfo) ([]xml.Name, error) {
	names := liveNames(fi)
	dead, err := m.Store.Names(srvPath)
	if err != nil {
		return nil, err
	}
	return append(names, dead...), nil
}

// All resolves the allprop set: the RFC 4918 live properties plus every
// dead property.
func (m *Manager) All(srvPath string, fi provider.FileInfo) ([]Property, error) {
	var out []Property
	for _, n := range liveNames(fi) {
		if p, ok := m.live(srvPath, fi, n); ok {
			out = append(out, p)
		}
	}
	dead, err := m.Store.Names(srvPath)
	if err != nil {
		return nil, err
	}
	for _, n := range dead {
		v, ok, err := m.Store.Get(srvPath, n)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Property{Name: n, InnerXML: v})
		}
	}
	return out, nil
}

// Value resolves one named property. The second return is false when
// the resource has no such property.
func (m *Manager) Value(srvPath string, fi provider.FileInfo, name xml.Name) (Property, bool, error) {
	if name.Space == davNS {
		p, ok := m.live(srvPath, fi, name)
		return p, ok, nil
	}
	v, ok, err := m.Store.Get(srvPath, name)
	if err != nil {
		return Property{}, false, err
	}
	return Property{Name: name, InnerXML: v}, ok, nil
}

// liveNames lists the supported live properties for the resource, in
// the order they appear in responses. Properties whose value cannot be
// derived (content length of a collection, for example) are omitted
// rather than reported empty.
func liveNames(fi provider.FileInfo) []xml.Name {
	names := []xml.Name{davName("resourcetype")}
	if !fi.IsDir {
		names = append(names,
			davName("getcontentlength"),
			davName("getcontenttype"),
			davName("getetag"),
		)
	}
	names = append(names,
		davName("getlastmodified"),
		davName("displayname"),
		davName("supportedlock"),
		davName("lockdiscovery"),
	)
	return names
}

func (m *Manager) live(srvPath string, fi provider.FileInfo, name xml.Name) (Property, bool) {
	p := Property{Name: name}
	switch name.Local {
	case "resourcetype":
		if fi.IsDir {
			p.InnerXML = `<D:collection xmlns:D="DAV:"/>`
		}
	case "getcontentlength":
		if fi.IsDir {
			return p, false
		}
		p.InnerXML = strconv.FormatInt(fi.Size, 10)
	case "getcontenttype":
		if fi.IsDir {
			return p, false
		}
		p.InnerXML = escape(contentType(fi.Name))
	case "getetag":
		if fi.IsDir {
			return p, false
		}
		p.InnerXML = escape(provider.Etag(fi))
	case "getlastmodified":
		p.InnerXML = escape(fi.ModTime.UTC().Format(http.TimeFormat))
	case "displayname":
		p.InnerXML = escape(fi.Name)
	case "supportedlock":
		p.InnerXML = supportedlock
	case "lockdiscovery":
		p.InnerXML = Lockdiscovery(m.Locks.Query(srvPath))
	default:
		return p, false
	}
	return p, true
}

const supportedlock = `<D:lockentry xmlns:D="DAV:"><D:lockscope><D:exclusive/></D:lockscope><D:locktype><D:write/></D:locktype></D:lockentry>` +
	`<D:lockentry xmlns:D="DAV:"><D:lockscope><D:shared/></D:lockscope><D:locktype><D:write/></D:locktype></D:lockentry>`

// Lockdiscovery renders the activelock list for the locks covering a
// resource.
func Lockdiscovery(locks []lock.Lock) string {
	var b strings.Builder
	for _, l := range locks {
		b.WriteString(`<D:activelock xmlns:D="DAV:">`)
		b.WriteString(`<D:locktype><D:write/></D:locktype>`)
		b.WriteString(`<D:lockscope><D:` + l.Scope.String() + `/></D:lockscope>`)
		if l.Depth == lock.DepthInfinity {
			b.WriteString(`<D:depth>infinity</D:depth>`)
		} else {
			b.WriteString(`<D:depth>0</D:depth>`)
		}
		if l.Owner != "" {
			b.WriteString(`<D:owner>` + l.Owner + `</D:owner>`)
		}
		b.WriteString(`<D:timeout>` + lock.FormatTimeout(l.Timeout) + `</D:timeout>`)
		b.WriteString(`<D:locktoken><D:href>` + escape(l.Token) + `</D:href></D:locktoken>`)
		b.WriteString(`<D:lockroot><D:href>` + escape(l.Path) + `</D:href></D:lockroot>`)
		b.WriteString(`</D:activelock>`)
	}
	return b.String()
}

func contentType(name string) string {
	if ctype := mime.TypeByExtension(path.Ext(name)); ctype != "" {
		return ctype
	}
	return "application/octet-stream"
}

func escape(s string) string {
	var b bytes.Buffer
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
