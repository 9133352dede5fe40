package webdav

import (
	"encoding/xml"
	"errors"
	"io"
)

// Request body parsing for PROPFIND, PROPPATCH and LOCK.

type propfindReq struct {
	XMLName  xml.Name  `xml:"DAV: propfind"`
	Allprop  *struct{} `xml:"DAV: allprop"`
	Propname *struct{} `xml:"DAV: propname"`
	Prop     propNames `xml:"DAV: prop"`
}

// propNames collects the child element names of a prop container.
type propNames []xml.Name

func (p *propNames) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		t, err := d.Token()
		if err != nil {
			return err
		}
		switch tt := t.(type) {
		case xml.StartElement:
			*p = append(*p, tt.Name)
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// parsePropfind interprets the request body. An empty body means
// allprop, per section 9.1.
func parsePropfind(r io.Reader) (propfindReq, error) {
	var pf propfindReq
	err := xml.NewDecoder(r).Decode(&pf)
	if errors.Is(err, io.EOF) {
		return propfindReq{Allprop: &struct{}{}}, nil
	}
	if err != nil {
		return propfindReq{}, errInvalidPropfind
	}

	n := 0
	if pf.Allprop != nil {
		n++
	}
	if pf.Propname != nil {
		n++
	}
	if len(pf.Prop) > 0 {
		n++
	}
	if n != 1 {
		return propfindReq{}, errInvalidPropfind
	}
	return pf, nil
}

// propUpdate is one instruction of a PROPPATCH body, in document order.
type propUpdate struct {
	remove   bool
	name     xml.Name
	innerXML string
}

type proppatchValue struct {
	InnerXML string `xml:",innerxml"`
}

// parseProppatch walks the propertyupdate document by hand because
// interleaved set and remove elements must keep their order.
func parseProppatch(r io.Reader) ([]propUpdate, error) {
	dec := xml.NewDecoder(r)

	root, err := nextStart(dec)
	if err != nil || root.Name != (xml.Name{Space: "DAV:", Local: "propertyupdate"}) {
		return nil, errInvalidProppatch
	}

	var updates []propUpdate
	for {
		t, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errInvalidProppatch
		}
		se, ok := t.(xml.StartElement)
		if !ok {
			continue
		}

		var remove bool
		switch se.Name {
		case xml.Name{Space: "DAV:", Local: "set"}:
		case xml.Name{Space: "DAV:", Local: "remove"}:
			remove = true
		default:
			if err := dec.Skip(); err != nil {
				return nil, errInvalidProppatch
			}
			continue
		}

		ups, err := parseProp(dec, remove)
		if err != nil {
			return nil, err
		}
		updates = append(updates, ups...)
	}
	if len(updates) == 0 {
		return nil, errInvalidProppatch
	}
	return updates, nil
}

// parseProp consumes the children of one set/remove element up to its
// end tag.
func parseProp(dec *xml.Decoder, remove bool) ([]propUpdate, error) {
	var updates []propUpdate
	depth := 0
	for {
		t, err := dec.Token()
		if err != nil {
			return nil, errInvalidProppatch
		}
		switch se := t.(type) {
		case xml.StartElement:
			if se.Name == (xml.Name{Space: "DAV:", Local: "prop"}) && depth == 0 {
				depth++
				continue
			}
			if depth != 1 {
				if err := dec.Skip(); err != nil {
					return nil, errInvalidProppatch
				}
				continue
			}
			var v proppatchValue
			if err := dec.DecodeElement(&v, &se); err != nil {
				return nil, errInvalidProppatch
			}
			up := propUpdate{remove: remove, name: se.Name}
			if !remove {
				up.innerXML = v.InnerXML
			}
			updates = append(updates, up)
		case xml.EndElement:
			if depth == 1 {
				depth--
				continue
			}
			return updates, nil
		}
	}
}

type lockInfoReq struct {
	XMLName   xml.Name  `xml:"DAV: lockinfo"`
	Exclusive *struct{} `xml:"lockscope>exclusive"`
	Shared    *struct{} `xml:"lockscope>shared"`
	Write     *struct{} `xml:"locktype>write"`
	Owner     struct {
		InnerXML string `xml:",innerxml"`
	} `xml:"owner"`
}

// parseLockInfo returns io.EOF for an empty body, which a LOCK handler
// treats as a refresh request.
func parseLockInfo(r io.Reader) (lockInfoReq, error) {
	var li lockInfoReq
	err := xml.NewDecoder(r).Decode(&li)
	if errors.Is(err, io.EOF) {
		return lockInfoReq{}, io.EOF
	}
	if err != nil {
		return lockInfoReq{}, errInvalidLockInfo
	}
	if (li.Exclusive == nil) == (li.Shared == nil) || li.Write == nil {
		return lockInfoReq{}, errInvalidLockInfo
	}
	return li, nil
}

func nextStart(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		t, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := t.(xml.StartElement); ok {
			return se, nil
		}
	}
}
