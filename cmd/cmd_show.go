// cmd_show.go - Show und Stats Commands
// Hauptfunktionen: ShowHandler, showInfo, lookupToken, StatsHandler
package cmd

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/ollama/subword/api"
	"github.com/ollama/subword/corpus"
	"github.com/ollama/subword/envconfig"
	"github.com/ollama/subword/tokenizer"
)

const tokenColumnWidth = 40

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

// displayToken macht Steuerzeichen sichtbar und kuerzt lange Tokens
func displayToken(tok string) string {
	q := strconv.Quote(tok)
	return runewidth.Truncate(q[1:len(q)-1], tokenColumnWidth, "…")
}

// ShowHandler - Zeigt Modell-Informationen oder einzelne Vokabular-Eintraege
func ShowHandler(cmd *cobra.Command, args []string) error {
	remote, errRemote := cmd.Flags().GetBool("remote")
	numTokens, errTokens := cmd.Flags().GetInt("tokens")
	numMerges, errMerges := cmd.Flags().GetInt("merges")
	if err := errors.Join(errRemote, errTokens, errMerges); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if remote {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			resp, err := client.Show(cmd.Context())
			if err != nil {
				return err
			}
			return showInfo(w, resp)
		}

		table := newTable(w)
		table.SetHeader([]string{"ID", "TOKEN", "SPECIAL"})
		for _, arg := range args {
			id, err := strconv.ParseInt(arg, 10, 32)
			if err != nil {
				return fmt.Errorf("--remote only looks up ids, got %q", arg)
			}
			tok, err := client.Token(cmd.Context(), int32(id))
			if err != nil {
				return err
			}
			table.Append([]string{fmt.Sprint(tok.ID), displayToken(tok.Token), fmt.Sprint(tok.Special)})
		}
		table.Render()
		return nil
	}

	m, err := loadModel(cmd.Context(), "")
	if err != nil {
		return err
	}

	if len(args) > 0 {
		table := newTable(w)
		table.SetHeader([]string{"ID", "TOKEN", "SPECIAL"})
		for _, arg := range args {
			id, err := lookupToken(m, arg)
			if err != nil {
				return err
			}
			tok, _ := m.Vocabulary().Token(id)
			table.Append([]string{fmt.Sprint(id), displayToken(tok), fmt.Sprint(m.IsSpecial(id))})
		}
		table.Render()
		return nil
	}

	if err := showInfo(w, &api.ShowResponse{
		VocabSize:     m.Vocabulary().Len(),
		Merges:        m.Merges().Len(),
		Marker:        string(m.Marker()),
		SpecialTokens: m.SpecialTokens(),
		Spaces:        m.SpacePolicy().String(),
	}); err != nil {
		return err
	}

	vocab := m.Vocabulary()
	if numTokens > 0 {
		fmt.Fprintln(w, "  Tokens")
		table := newTable(w)
		for id, tok := range vocab.Values()[:min(numTokens, vocab.Len())] {
			table.Append([]string{"", fmt.Sprint(id), displayToken(tok)})
		}
		table.Render()
		fmt.Fprintln(w)
	}

	if numMerges > 0 {
		fmt.Fprintln(w, "  Merges")
		table := newTable(w)
		var n int
		for r := range m.Merges().All() {
			if n == numMerges {
				break
			}
			left, _ := vocab.Token(r.Left)
			right, _ := vocab.Token(r.Right)
			result, _ := vocab.Token(r.Result)
			table.Append([]string{"", displayToken(left), displayToken(right), "→", fmt.Sprint(r.Result), displayToken(result)})
			n++
		}
		table.Render()
		fmt.Fprintln(w)
	}
	return nil
}

// showInfo - Gibt die Modell-Zusammenfassung aus
func showInfo(w io.Writer, resp *api.ShowResponse) error {
	fmt.Fprintln(w, "  Model")
	table := newTable(w)
	table.AppendBulk([][]string{
		{"", "vocabulary", fmt.Sprint(resp.VocabSize)},
		{"", "merges", fmt.Sprint(resp.Merges)},
		{"", "marker", strconv.Quote(resp.Marker)},
		{"", "spaces", resp.Spaces},
		{"", "special", strings.Join(resp.SpecialTokens, " ")},
	})
	table.Render()
	fmt.Fprintln(w)
	return nil
}

// lookupToken sucht arg als ID oder Token. Unbekannte Tokens liefern die
// naechstgelegenen Vokabular-Eintraege als Vorschlag.
func lookupToken(m *tokenizer.Model, arg string) (int32, error) {
	if id, err := strconv.ParseInt(arg, 10, 32); err == nil {
		if _, err := m.Vocabulary().Token(int32(id)); err != nil {
			return 0, err
		}
		return int32(id), nil
	}

	if id, ok := m.Vocabulary().Lookup(arg); ok {
		return id, nil
	}

	if suggestions := suggest(m.Vocabulary().Values(), arg, 3); len(suggestions) > 0 {
		return 0, fmt.Errorf("%w: %q, did you mean %s?", tokenizer.ErrUnknownToken, arg, strings.Join(suggestions, ", "))
	}
	return 0, fmt.Errorf("%w: %q", tokenizer.ErrUnknownToken, arg)
}

// suggest liefert bis zu n Tokens mit der kleinsten Editierdistanz zu s
func suggest(tokens []string, s string, n int) []string {
	type candidate struct {
		token string
		dist  int
	}

	limit := max(1, utf8.RuneCountInString(s)/2)
	var candidates []candidate
	for _, tok := range tokens {
		if d := levenshtein.ComputeDistance(s, tok); d <= limit {
			candidates = append(candidates, candidate{tok, d})
		}
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int { return a.dist - b.dist })

	var out []string
	for _, c := range candidates[:min(n, len(candidates))] {
		out = append(out, strconv.Quote(c.token))
	}
	return out
}

// StatsHandler - Berichtet Sequenzlaengen eines Korpus unter dem gespeicherten Modell
func StatsHandler(cmd *cobra.Command, args []string) error {
	opts, err := corpusOptions(cmd)
	if err != nil {
		return err
	}

	m, err := loadModel(cmd.Context(), "")
	if err != nil {
		return err
	}

	c, err := corpus.Open(args[0], opts)
	if err != nil {
		return err
	}

	var rows []string
	for row, err := range c.Rows() {
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	seqs, err := m.EncodeBatch(cmd.Context(), rows, int(envconfig.NumParallel()))
	if err != nil {
		return err
	}

	s := sequenceStats(rows, seqs, int(envconfig.MaxTokens()))
	table := newTable(cmd.OutOrStdout())
	table.AppendBulk([][]string{
		{"rows", fmt.Sprint(s.Rows)},
		{"tokens", fmt.Sprint(s.Tokens)},
		{"mean length", fmt.Sprintf("%.2f", s.Mean)},
		{"std dev", fmt.Sprintf("%.2f", s.StdDev)},
		{"p95 length", fmt.Sprintf("%.0f", s.P95)},
		{"chars per token", fmt.Sprintf("%.2f", s.CharsPerToken)},
		{fmt.Sprintf("rows > %d tokens", s.Width), fmt.Sprint(s.Truncated)},
	})
	table.Render()
	return nil
}

type lengthStats struct {
	Rows, Tokens  int
	Mean, StdDev  float64
	P95           float64
	CharsPerToken float64
	Width         int
	Truncated     int
}

func sequenceStats(rows []string, seqs [][]int32, width int) lengthStats {
	s := lengthStats{Rows: len(rows), Width: width}
	if len(seqs) == 0 {
		return s
	}

	lengths := make([]float64, len(seqs))
	var chars int
	for i, seq := range seqs {
		lengths[i] = float64(len(seq))
		s.Tokens += len(seq)
		chars += utf8.RuneCountInString(rows[i])
		if len(seq) > width {
			s.Truncated++
		}
	}

	s.Mean, s.StdDev = stat.MeanStdDev(lengths, nil)
	slices.Sort(lengths)
	s.P95 = stat.Quantile(0.95, stat.Empirical, lengths, nil)
	if s.Tokens > 0 {
		s.CharsPerToken = float64(chars) / float64(s.Tokens)
	}
	return s
}
