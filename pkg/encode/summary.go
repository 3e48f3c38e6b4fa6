package encode

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/docschema/pkg/schema"
)

// printer formats counts with digit grouping.
var printer = message.NewPrinter(language.English)

// Summary writes a human-readable table of the snapshot to w:
//
//	1,204 documents, 3 fields
//
//	PATH  COUNT  PRESENT  TYPES
//	_id   1,204  100.0%   ObjectId
//	age   980    81.4%    Int32 97.1%, String 2.9%
func Summary(w io.Writer, s *schema.Snapshot) error {
	if _, err := printer.Fprintf(w, "%d documents, %d fields\n\n", s.DocumentCount, len(s.Fields)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tCOUNT\tPRESENT\tTYPES\t")
	for _, f := range s.Fields {
		printer.Fprintf(tw, "%s\t%d\t%.1f%%\t%s\t\n", f.Path, f.Count, f.Probability*100, kindSummary(f))
	}
	return tw.Flush()
}

func kindSummary(f schema.FieldView) string {
	switch len(f.Kinds) {
	case 0:
		return schema.KindDocument.String()
	case 1:
		return f.Kinds[0].Kind.String()
	}
	parts := make([]string, len(f.Kinds))
	for i, k := range f.Kinds {
		parts[i] = printer.Sprintf("%s %.1f%%", k.Kind, k.Probability*100)
	}
	return strings.Join(parts, ", ")
}
