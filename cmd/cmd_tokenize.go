// cmd_tokenize.go - Encode, Decode, Mask und Batch Commands
// Hauptfunktionen: EncodeHandler, DecodeHandler, MaskHandler, BatchHandler
package cmd

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ollama/subword/api"
	"github.com/ollama/subword/batch"
	"github.com/ollama/subword/corpus"
	"github.com/ollama/subword/envconfig"
	"github.com/ollama/subword/mlm"
	"github.com/ollama/subword/tokenizer"
)

func joinInts[T int | int32](xs []T) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.FormatInt(int64(x), 10)
	}
	return strings.Join(parts, " ")
}

func parseIDs(args []string) ([]int32, error) {
	var ids []int32
	for _, arg := range args {
		for _, f := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
			n, err := strconv.ParseInt(f, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q", f)
			}
			ids = append(ids, int32(n))
		}
	}
	return ids, nil
}

// readInputs liefert die Argumente oder, ohne Argumente, die Zeilen von r
func readInputs(args []string, r io.Reader) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var texts []string
	for row, err := range corpus.FromReader(r, corpus.Options{}).Rows() {
		if err != nil {
			return nil, err
		}
		texts = append(texts, row)
	}
	return texts, nil
}

func seedFlag(cmd *cobra.Command) (*uint64, error) {
	seed, err := cmd.Flags().GetUint64("seed")
	if err != nil || seed == 0 {
		return nil, err
	}
	return &seed, nil
}

// EncodeHandler - Kodiert Texte lokal oder ueber den Server
func EncodeHandler(cmd *cobra.Command, args []string) error {
	remote, errRemote := cmd.Flags().GetBool("remote")
	showTokens, errTokens := cmd.Flags().GetBool("tokens")
	spaces, errSpaces := cmd.Flags().GetString("spaces")
	if err := errors.Join(errRemote, errTokens, errSpaces); err != nil {
		return err
	}

	texts, err := readInputs(args, os.Stdin)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if remote {
		if spaces != "" {
			return errors.New("--spaces is not supported with --remote")
		}
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return err
		}
		resp, err := client.Encode(cmd.Context(), &api.EncodeRequest{Input: texts})
		if err != nil {
			return err
		}
		for _, ids := range resp.IDs {
			if !showTokens {
				fmt.Fprintln(w, joinInts(ids))
				continue
			}
			toks := make([]string, len(ids))
			for i, id := range ids {
				tok, err := client.Token(cmd.Context(), id)
				if err != nil {
					return err
				}
				toks[i] = strconv.Quote(tok.Token)
			}
			fmt.Fprintln(w, strings.Join(toks, " "))
		}
		return nil
	}

	m, err := loadModel(cmd.Context(), spaces)
	if err != nil {
		return err
	}

	seqs, err := m.EncodeBatch(cmd.Context(), texts, int(envconfig.NumParallel()))
	if err != nil {
		return err
	}
	for _, ids := range seqs {
		if !showTokens {
			fmt.Fprintln(w, joinInts(ids))
			continue
		}
		toks := make([]string, len(ids))
		for i, id := range ids {
			tok, err := m.Vocabulary().Token(id)
			if err != nil {
				return err
			}
			toks[i] = strconv.Quote(tok)
		}
		fmt.Fprintln(w, strings.Join(toks, " "))
	}
	return nil
}

// DecodeHandler - Dekodiert Token-IDs zu Text
func DecodeHandler(cmd *cobra.Command, args []string) error {
	remote, errRemote := cmd.Flags().GetBool("remote")
	skip, errSkip := cmd.Flags().GetBool("skip-special")
	if err := errors.Join(errRemote, errSkip); err != nil {
		return err
	}

	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	var text string
	if remote {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return err
		}
		resp, err := client.Decode(cmd.Context(), &api.DecodeRequest{IDs: ids, SkipSpecial: skip})
		if err != nil {
			return err
		}
		text = resp.Text
	} else {
		m, err := loadModel(cmd.Context(), "")
		if err != nil {
			return err
		}
		if text, err = m.DecodeWith(ids, tokenizer.DecodeOptions{SkipSpecial: skip}); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

// MaskHandler - Erzeugt eine maskierte MLM-Sequenz
func MaskHandler(cmd *cobra.Command, args []string) error {
	remote, errRemote := cmd.Flags().GetBool("remote")
	rate, errRate := cmd.Flags().GetFloat64("rate")
	seed, errSeed := seedFlag(cmd)
	if err := errors.Join(errRemote, errRate, errSeed); err != nil {
		return err
	}

	var seq api.MaskResponse
	if remote {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return err
		}
		resp, err := client.Mask(cmd.Context(), &api.MaskRequest{Text: args[0], Rate: rate, Seed: seed})
		if err != nil {
			return err
		}
		seq = *resp
	} else {
		m, err := loadModel(cmd.Context(), "")
		if err != nil {
			return err
		}
		p, err := batch.NewPipeline(m, batch.Config{
			Strategy:  batch.Strategy{Masking: &mlm.Config{Rate: rate}},
			MaskToken: "[MASK]",
			Seed:      seedOrRandom(seed),
		})
		if err != nil {
			return err
		}
		s, err := p.PrepareMLM(args[0])
		if err != nil {
			return err
		}
		seq = api.MaskResponse{IDs: s.IDs, Positions: s.Positions, Originals: s.Originals, Targets: s.Targets}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "ids:       %s\n", joinInts(seq.IDs))
	fmt.Fprintf(w, "positions: %s\n", joinInts(seq.Positions))
	fmt.Fprintf(w, "originals: %s\n", joinInts(seq.Originals))
	fmt.Fprintf(w, "targets:   %s\n", joinInts(seq.Targets))
	return nil
}

func seedOrRandom(seed *uint64) uint64 {
	if seed != nil {
		return *seed
	}
	return rand.Uint64()
}

// BatchHandler - Formt Texte zu einem Batch mit Attention-Maske
func BatchHandler(cmd *cobra.Command, args []string) error {
	remote, errRemote := cmd.Flags().GetBool("remote")
	width, errWidth := cmd.Flags().GetInt("width")
	sideName, errSide := cmd.Flags().GetString("side")
	styleName, errStyle := cmd.Flags().GetString("mask-style")
	maskRate, errMaskRate := cmd.Flags().GetFloat64("mask-rate")
	wrap, errWrap := cmd.Flags().GetBool("wrap")
	seed, errSeed := seedFlag(cmd)
	if err := errors.Join(errRemote, errWidth, errSide, errStyle, errMaskRate, errWrap, errSeed); err != nil {
		return err
	}

	texts, err := readInputs(args, os.Stdin)
	if err != nil {
		return err
	}

	var b api.BatchResponse
	if remote {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return err
		}
		resp, err := client.Batch(cmd.Context(), &api.BatchRequest{
			Input: texts, Width: width, Side: sideName, MaskStyle: styleName,
			MaskRate: maskRate, Wrap: wrap, Seed: seed,
		})
		if err != nil {
			return err
		}
		b = *resp
	} else {
		side, err := batch.ParseSide(sideName)
		if err != nil {
			return err
		}
		style, err := batch.ParseMaskStyle(styleName)
		if err != nil {
			return err
		}
		m, err := loadModel(cmd.Context(), "")
		if err != nil {
			return err
		}

		cfg := batch.Config{
			Strategy: batch.Strategy{Width: width, Side: side, MaskStyle: style},
			Seed:     seedOrRandom(seed),
			Parallel: int(envconfig.NumParallel()),
		}
		if slices.Contains(m.SpecialTokens(), "[PAD]") {
			cfg.PadToken = "[PAD]"
		}
		if wrap {
			cfg.StartToken, cfg.EndToken = "[CLS]", "[SEP]"
		}
		if maskRate > 0 {
			cfg.Strategy.Masking = &mlm.Config{Rate: maskRate}
			cfg.MaskToken = "[MASK]"
		}

		p, err := batch.NewPipeline(m, cfg)
		if err != nil {
			return err
		}
		out, err := p.Encode(cmd.Context(), texts)
		if err != nil {
			return err
		}
		b = api.BatchResponse{IDs: out.IDs, Mask: out.Mask, Targets: out.Targets, Lengths: out.Lengths}
	}

	w := cmd.OutOrStdout()
	for i := range b.IDs {
		fmt.Fprintf(w, "ids:     %s\n", joinInts(b.IDs[i]))
		mask := make([]string, len(b.Mask[i]))
		for j, v := range b.Mask[i] {
			mask[j] = strconv.FormatFloat(float64(v), 'g', -1, 32)
		}
		fmt.Fprintf(w, "mask:    %s\n", strings.Join(mask, " "))
		if b.Targets != nil {
			fmt.Fprintf(w, "targets: %s\n", joinInts(b.Targets[i]))
		}
	}
	return nil
}
