package webui

import (
	"html/template"
	"strings"
	"time"

	"davd/internal/server/share"

	"github.com/dustin/go-humanize"
)

type crumb struct {
	Name string
	Href string
}

type entry struct {
	Name    string
	Href    string
	IsDir   bool
	Size    string
	ModTime string
}

type listArg struct {
	Path    string
	Crumbs  []crumb
	Entries []entry
}

type errorArg struct {
	Status  int
	Message string
}

func list(sh *share.Share, rel, urlPath string) (listArg, error) {
	children, err := sh.Provider.List(rel)
	if err != nil {
		return listArg{}, err
	}

	arg := listArg{Path: urlPath, Crumbs: crumbs(urlPath)}
	base := strings.TrimSuffix(urlPath, "/")
	for _, c := range children {
		e := entry{
			Name:    c.Name,
			Href:    base + "/" + c.Name,
			IsDir:   c.IsDir,
			ModTime: c.ModTime.Format(time.RFC1123),
		}
		if c.IsDir {
			e.Href += "/"
			e.Size = "-"
		} else {
			e.Size = humanize.IBytes(uint64(c.Size))
		}
		arg.Entries = append(arg.Entries, e)
	}
	return arg, nil
}

func crumbs(urlPath string) []crumb {
	parts := strings.Split(strings.Trim(urlPath, "/"), "/")
	cs := []crumb{{Name: "/", Href: "/"}}
	href := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		href += "/" + p
		cs = append(cs, crumb{Name: p, Href: href + "/"})
	}
	return cs
}

var listTemplate = template.Must(template.New("list").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Index of {{.Path}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; min-width: 40em; }
th, td { text-align: left; padding: 0.25em 1.5em 0.25em 0; }
th { border-bottom: 1px solid #888; }
a { text-decoration: none; }
.size, .mtime { color: #555; white-space: nowrap; }
</style>
</head>
<body>
<h1>{{range .Crumbs}}<a href="{{.Href}}">{{.Name}}</a>{{if ne .Name "/"}}/{{end}}{{end}}</h1>
<table>
<tr><th>Name</th><th>Size</th><th>Modified</th></tr>
{{- range .Entries}}
<tr><td><a href="{{.Href}}">{{.Name}}{{if .IsDir}}/{{end}}</a></td><td class="size">{{.Size}}</td><td class="mtime">{{.ModTime}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Status}}</title></head>
<body><h1>{{.Status}}</h1><p>{{.Message}}</p></body>
</html>
`))
