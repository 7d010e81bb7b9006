package schema

import (
	"strings"

	"github.com/valuagent/valuagent/internal/model"
)

// IndexString renders the hierarchy as "code mark label" lines, one tab of
// indent per level. The extraction prompt embeds this text.
func IndexString(s *Schema) string {
	var b strings.Builder
	s.proto.Walk(func(item model.LineItem, depth int) {
		b.WriteString(strings.Repeat("\t", depth))
		b.WriteString(item.Code)
		if item.Mark != "" {
			b.WriteString(" ")
			b.WriteString(item.Mark)
		}
		b.WriteString(" ")
		b.WriteString(item.Label)
		b.WriteString("\n")
	})
	return b.String()
}
