// cmd_convert.go - Import und Export Commands
// Hauptfunktionen: ImportHandler, ExportHandler, detectFormat
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ollama/subword/convert"
	"github.com/ollama/subword/tokenizer"
)

const (
	formatTokenizerJSON = "tokenizer.json"
	formatPickle        = "pickle"
)

// detectFormat waehlt das Import-Format anhand der Dateien in dir
func detectFormat(dir string) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, "tokenizer.json")); err == nil {
		return formatTokenizerJSON, nil
	}
	if _, err := os.Stat(convert.DefaultPickleFiles(dir).Vocab); err == nil {
		return formatPickle, nil
	}
	return "", fmt.Errorf("%s contains neither tokenizer.json nor bpe_vocab.pkl", dir)
}

// ImportHandler - Importiert ein fremdes Modell und speichert es als Checkpoint
func ImportHandler(cmd *cobra.Command, args []string) error {
	format, errFormat := cmd.Flags().GetString("format")
	specials, errSpecial := cmd.Flags().GetStringSlice("special")
	if err := errors.Join(errFormat, errSpecial); err != nil {
		return err
	}

	dir := args[0]
	if format == "" {
		var err error
		if format, err = detectFormat(dir); err != nil {
			return err
		}
	}

	var s tokenizer.Snapshot
	switch format {
	case formatTokenizerJSON:
		var err error
		if s, err = convert.ImportTokenizerJSON(os.DirFS(dir)); err != nil {
			return err
		}
	case formatPickle:
		if specials == nil {
			specials = tokenizer.DefaultSpecialTokens
		}
		snap, stats, err := convert.ImportPickles(convert.DefaultPickleFiles(dir), specials)
		if err != nil {
			return err
		}
		slog.Info("imported pickles", "tokens", stats.Tokens, "duplicates", stats.Duplicates,
			"rules", stats.Rules, "skipped", stats.SkippedRules, "mismatches", stats.Mismatches)
		s = snap
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	m, err := tokenizer.Restore(s, tokenizer.Options{})
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := m.Save(cmd.Context(), st); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d tokens and %d merges from %s\n", m.Vocabulary().Len(), m.Merges().Len(), format)
	return nil
}

// ExportHandler - Schreibt das gespeicherte Modell als tokenizer.json
func ExportHandler(cmd *cobra.Command, args []string) error {
	m, err := loadModel(cmd.Context(), "")
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}

	if err := convert.WriteTokenizerJSON(f, m.Snapshot()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
