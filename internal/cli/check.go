package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nainya/postfilter/internal/config"
	"github.com/nainya/postfilter/pkg/query"
	"github.com/nainya/postfilter/pkg/token"
)

const maxLineSize = 4 * 1024 * 1024

type checkOptions struct {
	file      string
	filters   []string
	blacklist []string
	output    string
}

// inputLine is one JSON-lines record
type inputLine struct {
	ID     json.RawMessage `json:"id"`
	Tokens json.RawMessage `json:"tokens"`
}

type outcomeJSON struct {
	ID          string   `json:"id"`
	Matched     bool     `json:"matched"`
	Messages    []string `json:"messages,omitempty"`
	Blacklisted []string `json:"blacklisted,omitempty"`
}

type reportJSON struct {
	Matches  []outcomeJSON `json:"matches"`
	Rejected []outcomeJSON `json:"rejected"`
	Total    int           `json:"total"`
	Invalid  int           `json:"invalid"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate filters against JSON-lines items",
		Long: `Read items as JSON lines, one {"id": ..., "tokens": {...}} object per line,
and report which ones pass the filters and trigger no blacklist entry.
Blacklist entries from the config file are applied before --blacklist ones.`,
		Example: `  postfilter check --file posts.jsonl --filter rating:s --filter 'score:>=10'
  cat posts.jsonl | postfilter check --blacklist gore --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Input file (default: stdin)")
	cmd.Flags().StringArrayVar(&opts.filters, "filter", nil, "Search filter (repeatable)")
	cmd.Flags().StringArrayVar(&opts.blacklist, "blacklist", nil, "Blacklist entry (repeatable)")
	cmd.Flags().Bool("invert-blacklist", true, "Entries trigger when they match")
	cmd.Flags().String("numeric-policy", config.DefaultNumericPolicy, "Handling of unparseable numbers and dates (lenient|strict)")
	cmd.Flags().Int("concurrency", 0, "Items evaluated in parallel (0 = GOMAXPROCS)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "Output format (text|json)")

	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runCheck(cmd *cobra.Command, opts *checkOptions) error {
	if opts.output != "text" && opts.output != "json" {
		return fmt.Errorf("unknown output format %q (valid: text, json)", opts.output)
	}

	cfg := GetConfig(cmd.Context())
	log := GetLogger(cmd.Context())

	in := cmd.InOrStdin()
	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	items, invalid := readItems(in, cmd.ErrOrStderr())

	q := query.NewQueryBuilder().
		Where(opts.filters...).
		Exclude(cfg.Blacklist.Entries...).
		Exclude(opts.blacklist...).
		InvertBlacklist(cfg.Blacklist.Invert).
		Limit(0).
		Build()

	engine := query.NewEngine(
		query.WithEvaluator(cfg.Evaluator()),
		query.WithConcurrency(cfg.Query.Concurrency),
		query.WithLogger(*log.EngineLogger("check").GetZerolog()),
	)

	start := time.Now()
	result, err := engine.Execute(cmd.Context(), q, items)
	log.LogQuery(len(items), resultTotal(result), time.Since(start), err)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.output == "json" {
		err = writeJSON(out, result, invalid)
	} else {
		err = writeText(out, result, invalid)
	}
	if err != nil {
		return err
	}

	if invalid > 0 {
		return fmt.Errorf("%w: %d line(s) could not be decoded", ErrInvalidInput, invalid)
	}
	return nil
}

func resultTotal(r *query.Result) int {
	if r == nil {
		return 0
	}
	return r.Total
}

// readItems decodes every non-blank line, reporting bad lines to errOut
func readItems(r io.Reader, errOut io.Writer) ([]query.Item, int) {
	var (
		items   []query.Item
		invalid int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		item, err := decodeItem(line)
		if err != nil {
			invalid++
			fmt.Fprintf(errOut, "line %d: %v\n", lineNo, err)
			continue
		}
		if item.ID == "" {
			item.ID = fmt.Sprintf("line-%d", lineNo)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		invalid++
		fmt.Fprintf(errOut, "line %d: %v\n", lineNo+1, err)
	}
	return items, invalid
}

func decodeItem(line []byte) (query.Item, error) {
	var rec inputLine
	if err := json.Unmarshal(line, &rec); err != nil {
		return query.Item{}, fmt.Errorf("malformed record: %w", err)
	}
	if len(rec.Tokens) == 0 {
		return query.Item{}, fmt.Errorf("missing tokens")
	}

	tokens, err := token.DecodeJSON(rec.Tokens)
	if err != nil {
		return query.Item{}, err
	}
	return query.Item{ID: itemID(rec.ID), Tokens: tokens}, nil
}

// itemID accepts string and numeric ids
func itemID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func toJSON(out query.Outcome) outcomeJSON {
	return outcomeJSON{
		ID:          out.ID,
		Matched:     out.Matched(),
		Messages:    out.Messages,
		Blacklisted: out.Blacklisted,
	}
}

func writeJSON(w io.Writer, result *query.Result, invalid int) error {
	report := reportJSON{
		Matches:  make([]outcomeJSON, 0, len(result.Matches)),
		Rejected: make([]outcomeJSON, 0, len(result.Rejected)),
		Total:    result.Total,
		Invalid:  invalid,
	}
	for _, out := range result.Matches {
		report.Matches = append(report.Matches, toJSON(out))
	}
	for _, out := range result.Rejected {
		report.Rejected = append(report.Rejected, toJSON(out))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeText(w io.Writer, result *query.Result, invalid int) error {
	bw := bufio.NewWriter(w)
	for _, out := range result.Matches {
		fmt.Fprintf(bw, "PASS %s\n", out.ID)
	}
	for _, out := range result.Rejected {
		var reasons []string
		reasons = append(reasons, out.Messages...)
		if len(out.Blacklisted) > 0 {
			reasons = append(reasons, "blacklisted: "+strings.Join(out.Blacklisted, ", "))
		}
		fmt.Fprintf(bw, "FAIL %s: %s\n", out.ID, strings.Join(reasons, "; "))
	}
	fmt.Fprintf(bw, "\n%d passed, %d rejected", result.Total, len(result.Rejected))
	if invalid > 0 {
		fmt.Fprintf(bw, ", %d invalid", invalid)
	}
	fmt.Fprintln(bw)
	return bw.Flush()
}
