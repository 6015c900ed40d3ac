// Package dot builds dot graphs and renders them with graphviz.
package dot

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/goccy/go-graphviz"
)

const tmplEdge = `{{define "edge" -}}
	{{printf "%q -> %q [ %s ]" .From .To .Attrs}}
{{- end}}`

const tmplNode = `{{define "node" -}}
	{{printf "%q [ %s ]" .ID .Attrs}}
{{- end}}`

const tmplGraph = `digraph {{printf "%q" .Title}} {
	label={{printf "%q" .Title}};
	labeljust="l";
	fontname="Courier";
	rankdir="{{or .Options.rankdir "TB"}}";

	node [shape="box" fontname="Courier" margin="0.1,0.05"];
	{{- range .Nodes}}
	{{template "node" .}}
	{{- end}}
	{{- range .Edges}}
	{{template "edge" .}}
	{{- end}}
}
`

// DotNode is a node of a dot graph.
type DotNode struct {
	ID    string
	Attrs DotAttrs
}

func (n *DotNode) String() string {
	return n.ID
}

// DotEdge is an edge of a dot graph.
type DotEdge struct {
	From  *DotNode
	To    *DotNode
	Attrs DotAttrs
}

// DotAttrs are the attributes of a node or edge.
type DotAttrs map[string]string

// List renders the attributes in key order.
func (p DotAttrs) List() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	l := make([]string, 0, len(p))
	for _, k := range keys {
		l = append(l, k+"="+quote(p[k]))
	}
	return l
}

// quote escapes double quotes only, leaving dot escape sequences such as \l intact.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func (p DotAttrs) String() string {
	return strings.Join(p.List(), " ")
}

// DotGraph is a directed graph with nodes and edges.
type DotGraph struct {
	Title   string
	Nodes   []*DotNode
	Edges   []*DotEdge
	Options map[string]string
}

// WriteDot writes g in the dot language.
func (g *DotGraph) WriteDot(w io.Writer) error {
	t := template.New("dot")
	t.Option("missingkey=zero")
	for _, s := range []string{tmplNode, tmplEdge, tmplGraph} {
		if _, err := t.Parse(s); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, g); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// Render renders a dot graph to outfile in the given format (svg, png, dot, ...).
func Render(dot []byte, format string, outfile string) error {
	g := graphviz.New()
	defer g.Close()

	graph, err := graphviz.ParseBytes(dot)
	if err != nil {
		return fmt.Errorf("parsing dot graph: %w", err)
	}
	defer graph.Close()

	return g.RenderFilename(graph, graphviz.Format(format), outfile)
}
