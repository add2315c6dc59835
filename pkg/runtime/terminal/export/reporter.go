package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/approval-atlas/pkg/adapters"
	"github.com/de-tools/approval-atlas/pkg/models/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (expected table or json)", s)
	}
}

type TableConfig struct {
	RankWidth     int
	SeverityWidth int
	SegmentWidth  int
	ChangeWidth   int
	ImpactWidth   int
	ScoreWidth    int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		RankWidth:     4,
		SeverityWidth: 8,
		SegmentWidth:  36,
		ChangeWidth:   9,
		ImpactWidth:   16,
		ScoreWidth:    6,
	}
}

type Reporter struct {
	writer  io.Writer
	config  TableConfig
	printer *message.Printer
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer:  writer,
		config:  DefaultTableConfig(),
		printer: message.NewPrinter(language.English),
	}
}

const runTemplate = `
Approval Rate Analysis
Run: {{.RunID}} (source: {{.Source}})
Analyzed at: {{.Summary.AnalysisTimestamp.Format "2006-01-02 15:04:05 MST"}}

Overall approval rate: {{percent .Summary.OverallBaselineRate}} -> {{percent .Summary.OverallCurrentRate}} ({{points .Summary.TotalRateChange}})
Segments analyzed: {{.Summary.SegmentsAnalyzed}}, anomalies detected: {{.Summary.AnomaliesDetected}}
Estimated monthly revenue impact: {{usd .Summary.TotalMonthlyRevenueImpactUSD}}
Insights: {{.Summary.CriticalInsights}} critical, {{.Summary.HighInsights}} high, {{.Summary.MediumInsights}} medium, {{.Summary.LowInsights}} low
{{if .Insights}}
{{separator}}
{{header}}
{{separator}}
{{range .Insights}}{{row .}}
{{end}}{{separator}}
{{range .Insights}}
#{{.Rank}} [{{upper .Severity}}] {{.Title}}
   {{.Description}}
{{end}}{{else}}
No insights to report.
{{end}}`

func (c *Reporter) funcMap() template.FuncMap {
	return template.FuncMap{
		"percent": func(v float64) string {
			return fmt.Sprintf("%.2f%%", v*100)
		},
		"points": func(v float64) string {
			return fmt.Sprintf("%+.2fpp", v*100)
		},
		"usd": func(v float64) string {
			return c.printer.Sprintf("$%.2f", v)
		},
		"upper": func(s domain.Severity) string {
			return strings.ToUpper(string(s))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.RankWidth+2),
				strings.Repeat("-", c.config.SeverityWidth+2),
				strings.Repeat("-", c.config.SegmentWidth+2),
				strings.Repeat("-", c.config.ChangeWidth+2),
				strings.Repeat("-", c.config.ImpactWidth+2),
				strings.Repeat("-", c.config.ScoreWidth+2))
		},
		"header": func() string {
			return c.formatRow("Rank", "Severity", "Segment", "Change", "Impact (USD/mo)", "Score")
		},
		"row": func(i domain.InsightRecord) string {
			return c.formatRow(
				fmt.Sprintf("%d", i.Rank),
				string(i.Severity),
				truncate(i.SegmentKey, c.config.SegmentWidth),
				fmt.Sprintf("%+.1fpp", i.RateChange*100),
				c.printer.Sprintf("%.2f", i.EstimatedRevenueImpactUSD),
				fmt.Sprintf("%.3f", i.Score),
			)
		},
	}
}

func (c *Reporter) formatRow(rank, severity, segment, change, impact, score string) string {
	return fmt.Sprintf("| %*s | %-*s | %-*s | %*s | %*s | %*s |",
		c.config.RankWidth, rank,
		c.config.SeverityWidth, severity,
		c.config.SegmentWidth, segment,
		c.config.ChangeWidth, change,
		c.config.ImpactWidth, impact,
		c.config.ScoreWidth, score)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// Handle writes a run result in the requested format.
func (c *Reporter) Handle(result *domain.RunResult, format Format) error {
	if format == FormatJSON {
		return c.writeJSON(adapters.MapRunDomainToApi(*result))
	}

	t, err := template.New("run").Funcs(c.funcMap()).Parse(runTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, result)
}

const segmentsTemplate = `{{range .}}{{printf "%-8s" .Period}} {{printf "%-18s" .SegmentType}} {{printf "%-36s" .SegmentKey}} {{printf "%10d" .TotalTransactions}} {{printf "%10d" .ApprovedTransactions}} {{rate .}}
{{end}}{{len .}} rows
`

func (c *Reporter) HandleSegments(stats []domain.SegmentPeriodStat, format Format) error {
	if format == FormatJSON {
		return c.writeJSON(adapters.MapDomainSegmentStatsToApi(stats))
	}

	t, err := template.New("segments").Funcs(template.FuncMap{
		"rate": func(s domain.SegmentPeriodStat) string {
			return fmt.Sprintf("%6.2f%%", s.ApprovalRate()*100)
		},
	}).Parse(segmentsTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, stats)
}

const sourcesTemplate = `{{range .}}{{printf "%-24s" .Name}} {{printf "%-11s" .Type}} {{.Table}}
{{else}}No sources configured.
{{end}}`

func (c *Reporter) HandleSources(profiles []domain.SourceProfile) error {
	t, err := template.New("sources").Parse(sourcesTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, profiles)
}

func (c *Reporter) writeJSON(v any) error {
	enc := json.NewEncoder(c.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
