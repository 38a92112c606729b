package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// SignatureList is the payload of the signatures header record.
type SignatureList map[string]string

func (l SignatureList) Text() string {
	return FormatSignatures(l)
}

func (l SignatureList) sortedLabels() []string {
	labels := make([]string, 0, len(l))
	for label := range l {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// FormatSignatures renders one "label -> HEX" line per signature, sorted by label.
func FormatSignatures(signatures map[string]string) string {
	var b strings.Builder
	l := SignatureList(signatures)
	for _, label := range l.sortedLabels() {
		fmt.Fprintf(&b, "%s -> %s\n", label, l[label])
	}
	return b.String()
}

// RenderSignatureTable writes the signatures as a table with a byte-length column.
func RenderSignatureTable(w io.Writer, signatures map[string]string) error {
	table := tablewriter.NewWriter(w)
	table.Header("Label", "Signature", "Bytes")
	l := SignatureList(signatures)
	for _, label := range l.sortedLabels() {
		sig := l[label]
		if err := table.Append(label, sig, fmt.Sprint(len(sig)/2)); err != nil {
			return err
		}
	}
	return table.Render()
}
