package printer

import (
	"fmt"
	"io"
	"iter"
	"strings"
	"text/tabwriter"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/slok/galgo/internal/algorithm"
	"github.com/slok/galgo/internal/app/estimate"
	"github.com/slok/galgo/internal/app/jobs"
	"github.com/slok/galgo/internal/app/run"
	"github.com/slok/galgo/internal/memory"
	"github.com/slok/galgo/internal/storage"
)

// TablePrinter prints galgo results in a human readable table format.
type TablePrinter struct {
	writer io.Writer
	now    func() time.Time
	title  cases.Caser
}

var _ Printer = &TablePrinter{}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{
		writer: w,
		now:    time.Now,
		title:  cases.Title(language.English),
	}
}

// PrintRun prints the execution header and the rows of stream mode or the
// summary of the rest of modes.
func (t *TablePrinter) PrintRun(res run.Result) error {
	fmt.Fprintf(t.writer, "Algorithm:  %s\n", res.Algorithm)
	fmt.Fprintf(t.writer, "Job:        %s (%s)\n", res.JobID, res.Username)
	fmt.Fprintf(t.writer, "Mode:       %s\n", res.Output.Mode)
	fmt.Fprintf(t.writer, "Timings:    %s\n", formatTimings(res.Output.Timings))

	if res.Output.Rows != nil {
		fmt.Fprintln(t.writer)
		return t.printRows(res.Output.Rows)
	}

	if res.Output.Summary == nil {
		return nil
	}
	fs, err := fields(res.Output.Summary)
	if err != nil {
		return fmt.Errorf("could not convert summary: %w", err)
	}
	fmt.Fprintln(t.writer)
	t.printFields(fs, 0)

	return nil
}

func (t *TablePrinter) printRows(rows iter.Seq[any]) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	header := false
	for row := range rows {
		fs, err := fields(row)
		if err != nil {
			return fmt.Errorf("could not convert row: %w", err)
		}

		if !header {
			names := make([]string, 0, len(fs))
			for _, f := range fs {
				names = append(names, strings.ToUpper(splitWords(f.key)))
			}
			fmt.Fprintln(tw, strings.Join(names, "\t"))
			header = true
		}

		values := make([]string, 0, len(fs))
		for _, f := range fs {
			values = append(values, inlineValue(f.value))
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}

	return nil
}

// printFields prints key value lines, nested mappings are indented.
func (t *TablePrinter) printFields(fs []field, depth int) {
	indent := strings.Repeat("  ", depth)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 1, ' ', 0)
	for _, f := range fs {
		label := t.title.String(splitWords(f.key))
		if f.value.Kind == yaml.MappingNode {
			tw.Flush()
			fmt.Fprintf(t.writer, "%s%s:\n", indent, label)
			nested := mappingFields(f.value)
			t.printFields(nested, depth+1)
			continue
		}
		fmt.Fprintf(tw, "%s%s:\t%s\n", indent, label, inlineValue(f.value))
	}
	tw.Flush()
}

// PrintEstimate prints an estimation with the memory breakdown.
func (t *TablePrinter) PrintEstimate(res estimate.Result) error {
	fmt.Fprintf(t.writer, "Algorithm:      %s\n", res.Algorithm)
	fmt.Fprintf(t.writer, "Nodes:          %d\n", res.Nodes)
	fmt.Fprintf(t.writer, "Relationships:  %d\n", res.Relationships)
	if res.Tree.Estimated() {
		fmt.Fprintf(t.writer, "Memory:         %s\n", res.Tree.MemoryUsage())
	} else {
		fmt.Fprintf(t.writer, "Memory:         not estimated\n")
	}
	if res.MemoryLimit > 0 {
		fmt.Fprintf(t.writer, "Memory limit:   %s\n", memory.FormatBytes(res.MemoryLimit))
	}
	if res.Admitted {
		fmt.Fprintf(t.writer, "Admitted:       yes\n")
	} else {
		fmt.Fprintf(t.writer, "Admitted:       no (%s)\n", res.Reason)
	}

	fmt.Fprintf(t.writer, "\n%s", res.Tree.Render())
	return nil
}

// PrintJobs prints the running jobs in a table.
func (t *TablePrinter) PrintJobs(js []jobs.Job) error {
	if len(js) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "USER\tJOB\tTASK\tSTATUS\tPROGRESS\tSTARTED")
	now := t.now()
	for _, j := range js {
		progress := "n/a"
		if rel, ok := j.Progress.Relative(); ok {
			progress = fmt.Sprintf("%.0f%%", rel*100)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			j.Username, j.JobID, j.Description, j.Status, progress, TimeAgo(j.StartTime, now))
	}

	return nil
}

// PrintHistory prints the job events in a table.
func (t *TablePrinter) PrintHistory(events []storage.JobEvent) error {
	if len(events) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "TIME\tEVENT\tUSER\tJOB\tTASK\tSTATUS\tPROGRESS")
	for _, e := range events {
		progress := "-"
		if e.Type != storage.JobEventCleared {
			progress = fmt.Sprintf("%d", e.Progress)
			if e.Volume >= 0 {
				progress = fmt.Sprintf("%d/%d", e.Progress, e.Volume)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			FormatTimestamp(e.CreatedAt), e.Type, dash(e.Username), dash(e.JobID.String()),
			dash(e.Description), dash(string(e.Status)), progress)
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func formatTimings(tm algorithm.Timings) string {
	return fmt.Sprintf("pre-processing %s, compute %s, side effect %s",
		FormatMillis(tm.PreProcessingMillis), FormatMillis(tm.ComputeMillis), FormatMillis(tm.SideEffectMillis))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

type field struct {
	key   string
	value *yaml.Node
}

// fields returns the fields of a value in declaration order using its YAML
// representation.
func fields(v any) ([]field, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	if n.Kind != yaml.MappingNode {
		return []field{{key: "value", value: &n}}, nil
	}
	return mappingFields(&n), nil
}

func mappingFields(n *yaml.Node) []field {
	fs := make([]field, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		fs = append(fs, field{key: n.Content[i].Value, value: n.Content[i+1]})
	}
	return fs
}

// inlineValue returns a node as a single line.
func inlineValue(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}

	n.Style = yaml.FlowStyle
	out, err := yaml.Marshal(n)
	if err != nil {
		return "?"
	}
	return strings.TrimSpace(string(out))
}

// splitWords splits a camel case key in lower case words.
func splitWords(key string) string {
	var b strings.Builder
	runes := []rune(key)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			b.WriteRune(' ')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
