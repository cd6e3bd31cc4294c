package report

import (
	"fmt"
	"io"
	"strings"
)

// Artifact is one file listed in the run summary.
type Artifact struct {
	Label string
	Name  string
}

// Summary describes a finished run for the README written beside its
// artifacts.
type Summary struct {
	Source    string
	Artifacts []Artifact
	Commands  []string
}

// WriteSummary renders s as markdown.
func WriteSummary(w io.Writer, s Summary) error {
	var b strings.Builder
	b.WriteString("# TEI P5 변환 자동화 결과\n\n")
	fmt.Fprintf(&b, "- 원본: %s\n", s.Source)
	for _, a := range s.Artifacts {
		fmt.Fprintf(&b, "- %s: %s\n", a.Label, a.Name)
	}
	if len(s.Commands) > 0 {
		b.WriteString("\n## 실행 명령어\n\n```\n")
		for _, c := range s.Commands {
			b.WriteString(c)
			b.WriteByte('\n')
		}
		b.WriteString("```\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
