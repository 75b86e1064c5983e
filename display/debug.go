package display

import (
	"strings"

	"mtalk/utils/debug"
)

// String returns readable dump of display lines for "dump" command.
func (v *View) String() string {
	if v == nil {
		return "<nil View>"
	}
	tw := debug.NewTreeWriter()
	tw.Line(0, "View card=%d lines=%d images=%d", v.Card, len(v.Lines), len(v.Images))
	for i := range v.Lines {
		ln := &v.Lines[i]
		var flags []string
		if ln.Centred {
			flags = append(flags, "centred")
		}
		if ln.Heading {
			flags = append(flags, "heading")
		}
		if ln.Rule {
			flags = append(flags, "rule")
		}
		if ln.Link != nil {
			flags = append(flags, "link="+ln.Link.Title())
		}
		if ln.Bitmap != nil {
			flags = append(flags, "bitmap="+ln.Bitmap.Path)
		}
		tw.Line(1+ln.ExposedDepth, "%d %s bullet=%d pre=%d h=%d [%s] %q",
			ln.LineNum, ln.Kind, ln.Bullet, ln.Prespace, ln.Height, strings.Join(flags, " "), ln.Text)
	}
	for _, img := range v.Images {
		tw.Line(1, "Image %q", img.Path)
	}
	return tw.String()
}
