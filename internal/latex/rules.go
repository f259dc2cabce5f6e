package latex

import "regexp"

// Rules holds the enumerated lists the rewrite stages consult. The zero
// value is not useful; start from DefaultRules.
type Rules struct {
	// DeniedPackages are removed from \usepackage directives.
	DeniedPackages []string
	// AnnotationCommands are single-argument comment commands that are
	// deleted together with their argument.
	AnnotationCommands []string
}

// deniedPackages are packages pandoc either cannot handle or does not need.
var deniedPackages = []string{
	// conference styles
	"icml2026", "neurips", "acl", "emnlp",
	"microtype", "placeins", "todonotes", "newfloat", "mdframed",
	"fancyhdr", "geometry", "titlesec", "titling",
	"subcaption", "caption", "float", "wrapfig",
	"algorithm", "algorithmic", "algpseudocode",
	"cleveref", "xcolor", "color", "colortbl",
	"tabularx", "multirow", "makecell",
	"enumitem", "paralist",
	// pandoc's citeproc handles the bibliography itself
	"natbib", "biblatex",
}

// conferenceStyleRe matches year-suffixed conference style packages.
var conferenceStyleRe = regexp.MustCompile(`^(?:icml\d{4}|neurips_\d{4}|iclr\d{4}_conference|aaai\d{2}|acl_natbib|emnlp\d{4})$`)

// annotationCommands are author-initialed inline comment commands.
var annotationCommands = []string{
	"todo", "davide", "sasha", "joel", "logan", "wil", "vezhnick",
}

// DefaultRules returns a fresh copy of the built-in lists.
func DefaultRules() Rules {
	return Rules{
		DeniedPackages:     append([]string(nil), deniedPackages...),
		AnnotationCommands: append([]string(nil), annotationCommands...),
	}
}

// WithExtra returns a copy of r with additional entries appended.
func (r Rules) WithExtra(packages, commands []string) Rules {
	out := Rules{
		DeniedPackages:     append(append([]string(nil), r.DeniedPackages...), packages...),
		AnnotationCommands: append(append([]string(nil), r.AnnotationCommands...), commands...),
	}
	return out
}

func (r Rules) packageDenied(name string) bool {
	for _, p := range r.DeniedPackages {
		if p == name {
			return true
		}
	}
	return conferenceStyleRe.MatchString(name)
}
