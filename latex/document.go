package latex

import (
	"bytes"
	"fmt"
	"image/color"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"mtalk/style"
)

// LaTeX source is full of braces, so angle delimiters are used.
const documentTmpl = `\documentclass[fleqn]{article}
\usepackage[utf8]{inputenc}
\usepackage{color}
<<- if .PreInclude >>
<< join "\n" .PreInclude >>
<<- end >>
\definecolor{bg}{rgb}{<< rgb .Background >>}
\definecolor{fg}{rgb}{<< rgb .Foreground >>}
\pagestyle{empty}
\pagecolor{bg}
\setlength{\textwidth}{<< printf "%g" .PageWidth >>in}
\sloppy
\begin{document}
\renewcommand{\baselinestretch}{<< printf "%g" .Stretch >>}
\mathindent 0cm
\parindent 0cm
\color{fg}
\sffamily
<<- if .Include >>
<< join "\n" .Include >>
<<- end >>
<<- range .Body >>
<< . >>
<<- end >>
\\
\end{document}
`

type documentValues struct {
	PreInclude []string
	Include    []string
	Body       []string
	Foreground color.RGBA
	Background color.RGBA
	PageWidth  float64
	Stretch    float64
}

var document = template.Must(template.New("latex").Delims("<<", ">>").Funcs(documentFuncs()).Parse(documentTmpl))

func documentFuncs() template.FuncMap {
	funcMap := sprig.FuncMap()
	funcMap["rgb"] = func(c color.RGBA) string {
		return fmt.Sprintf("%g, %g, %g", float64(c.R)/255, float64(c.G)/255, float64(c.B)/255)
	}
	return funcMap
}

// Document builds complete LaTeX source for block body using style colours
// and page geometry.
func Document(body []string, st *style.Style) ([]byte, error) {
	values := &documentValues{
		PreInclude: st.LatexPreInclude,
		Include:    st.LatexInclude,
		Body:       body,
		Foreground: st.Foreground,
		Background: st.Background,
		PageWidth:  st.LatexPageWidth(),
		Stretch:    float64(st.LatexStretch) / 100,
	}
	buf := new(bytes.Buffer)
	if err := document.Execute(buf, values); err != nil {
		return nil, fmt.Errorf("unable to expand latex document: %w", err)
	}
	return buf.Bytes(), nil
}

// hexColour formats colour the way convert expects it for -transparent.
func hexColour(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
