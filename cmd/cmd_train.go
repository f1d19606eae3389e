// cmd_train.go - Train Command
// Hauptfunktionen: TrainHandler, corpusOptions
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ollama/subword/corpus"
	"github.com/ollama/subword/envconfig"
	"github.com/ollama/subword/logutil"
	"github.com/ollama/subword/store"
	"github.com/ollama/subword/tokenizer"
)

func corpusOptions(cmd *cobra.Command) (corpus.Options, error) {
	normalize, errNormalize := cmd.Flags().GetBool("normalize")
	column, errColumn := cmd.Flags().GetInt("column")
	skipHeader, errHeader := cmd.Flags().GetBool("skip-header")
	if err := errors.Join(errNormalize, errColumn, errHeader); err != nil {
		return corpus.Options{}, err
	}
	return corpus.Options{Normalize: normalize, Column: column, SkipHeader: skipHeader}, nil
}

// TrainHandler - Trainiert ein Modell chunkweise, mit einem Checkpoint pro Chunk
func TrainHandler(cmd *cobra.Command, args []string) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))

	maxVocab, errVocab := cmd.Flags().GetInt("max-vocab")
	batchLines, errLines := cmd.Flags().GetInt("batch-lines")
	specials, errSpecial := cmd.Flags().GetStringSlice("special")
	marker, errMarker := cmd.Flags().GetString("marker")
	resume, errResume := cmd.Flags().GetBool("resume")
	if err := errors.Join(errVocab, errLines, errSpecial, errMarker, errResume); err != nil {
		return err
	}
	opts, err := corpusOptions(cmd)
	if err != nil {
		return err
	}
	if batchLines <= 0 {
		return fmt.Errorf("batch-lines must be positive, got %d", batchLines)
	}

	var modelOpts tokenizer.Options
	if marker != "" {
		r, size := utf8.DecodeRuneInString(marker)
		if size != len(marker) {
			return fmt.Errorf("marker must be a single character, got %q", marker)
		}
		modelOpts.Marker = r
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	m := tokenizer.NewModel(modelOpts)
	if resume {
		m, err = tokenizer.Load(cmd.Context(), st, modelOpts)
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("no stored model to resume, starting from scratch")
			m, err = tokenizer.NewModel(modelOpts), nil
		}
		if err != nil {
			return err
		}
	}

	trainer := tokenizer.NewTrainer(m, tokenizer.TrainOptions{
		MaxVocabSize:  maxVocab,
		SpecialTokens: specials,
		Logger:        slog.Default(),
	})

	start := time.Now()
	var chunks, learned, reused int
	var last tokenizer.Result
	for _, path := range args {
		c, err := corpus.Open(path, opts)
		if err != nil {
			return err
		}

		for chunk, err := range c.Batches(batchLines) {
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := cmd.Context().Err(); err != nil {
				return err
			}

			last = trainer.TrainChunk(chunk)
			if last.Stop == tokenizer.StopEmpty {
				continue
			}
			if err := m.Save(cmd.Context(), st); err != nil {
				return err
			}
			chunks++
			learned += last.Learned
			reused += last.Reused
			slog.Info("chunk", "file", path, "n", chunks, "learned", last.Learned, "vocab", last.VocabSize, "stop", last.Stop.String())

			if last.Stop == tokenizer.StopVocabCap {
				break
			}
		}
		if last.Stop == tokenizer.StopVocabCap {
			slog.Info("vocabulary cap reached", "size", last.VocabSize)
			break
		}
	}

	if chunks == 0 {
		return fmt.Errorf("no text in %s", strings.Join(args, ", "))
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk([][]string{
		{"chunks", fmt.Sprint(chunks)},
		{"vocabulary", fmt.Sprint(m.Vocabulary().Len())},
		{"merges", fmt.Sprint(m.Merges().Len())},
		{"learned", fmt.Sprint(learned)},
		{"reused", fmt.Sprint(reused)},
		{"duration", time.Since(start).Round(time.Millisecond).String()},
	})
	table.Render()
	return nil
}
