// cmd.go - Haupt-CLI Definition
// Hauptfunktionen: NewCLI, appendEnvDocs, Command-Builder
package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"slices"

	"github.com/containerd/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ollama/subword/envconfig"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false

	if runtime.GOOS == "windows" && term.IsTerminal(int(os.Stdout.Fd())) {
		console.ConsoleFromFile(os.Stdin) //nolint:errcheck
	}

	rootCmd := &cobra.Command{
		Use:           "subword",
		Short:         "Byte pair encoding tokenizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	trainCmd := newTrainCmd()
	encodeCmd := newEncodeCmd()
	decodeCmd := newDecodeCmd()
	maskCmd := newMaskCmd()
	batchCmd := newBatchCmd()
	showCmd := newShowCmd()
	statsCmd := newStatsCmd()
	listCmd := newListCmd()
	pruneCmd := newPruneCmd()
	importCmd := newImportCmd()
	exportCmd := newExportCmd()
	serveCmd := newServeCmd()

	envVars := envconfig.AsMap()
	storeEnvs := []envconfig.EnvVar{envVars["SUBWORD_STORE"], envVars["SUBWORD_STORE_BACKEND"]}
	encodeEnvs := slices.Concat([]envconfig.EnvVar{envVars["SUBWORD_HOST"], envVars["SUBWORD_SPACES"], envVars["SUBWORD_NUM_PARALLEL"]}, storeEnvs)

	for _, cmd := range []*cobra.Command{
		trainCmd,
		encodeCmd,
		decodeCmd,
		maskCmd,
		batchCmd,
		showCmd,
		statsCmd,
		listCmd,
		pruneCmd,
		importCmd,
		exportCmd,
		serveCmd,
	} {
		switch cmd {
		case trainCmd:
			appendEnvDocs(cmd, slices.Concat([]envconfig.EnvVar{
				envVars["SUBWORD_DEBUG"],
				envVars["SUBWORD_MAX_VOCAB"],
				envVars["SUBWORD_BATCH_LINES"],
				envVars["SUBWORD_NORMALIZE"],
			}, storeEnvs))
		case encodeCmd, decodeCmd, statsCmd:
			appendEnvDocs(cmd, encodeEnvs)
		case maskCmd, batchCmd:
			appendEnvDocs(cmd, slices.Concat(encodeEnvs, []envconfig.EnvVar{envVars["SUBWORD_MAX_TOKENS"], envVars["SUBWORD_MASK_RATE"]}))
		case serveCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["SUBWORD_DEBUG"],
				envVars["SUBWORD_HOST"],
				envVars["SUBWORD_ORIGINS"],
				envVars["SUBWORD_STORE"],
				envVars["SUBWORD_STORE_BACKEND"],
				envVars["SUBWORD_SPACES"],
				envVars["SUBWORD_MAX_TOKENS"],
				envVars["SUBWORD_MASK_RATE"],
				envVars["SUBWORD_NUM_PARALLEL"],
			})
		default:
			appendEnvDocs(cmd, storeEnvs)
		}
	}

	rootCmd.AddCommand(
		serveCmd,
		trainCmd,
		encodeCmd,
		decodeCmd,
		maskCmd,
		batchCmd,
		showCmd,
		statsCmd,
		listCmd,
		pruneCmd,
		importCmd,
		exportCmd,
	)

	return rootCmd
}

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train CORPUS...",
		Short: "Train a tokenizer from text, CSV or PDF files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  TrainHandler,
	}
	cmd.Flags().Int("max-vocab", int(envconfig.MaxVocab()), "Maximum vocabulary size, 0 for unbounded")
	cmd.Flags().Int("batch-lines", int(envconfig.BatchLines()), "Corpus rows per training chunk")
	cmd.Flags().Bool("normalize", envconfig.Normalize(), "Apply NFC normalization to the corpus")
	cmd.Flags().Int("column", 0, "CSV column holding the text")
	cmd.Flags().Bool("skip-header", false, "Skip the first CSV record")
	cmd.Flags().StringSlice("special", nil, "Special tokens (default [CLS],[SEP],[MASK],[PAD])")
	cmd.Flags().String("marker", "", "Word boundary marker (default ▁)")
	cmd.Flags().Bool("resume", false, "Continue training the stored model")
	return cmd
}

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [TEXT...]",
		Short: "Encode text into token ids (reads stdin without arguments)",
		RunE:  EncodeHandler,
	}
	cmd.Flags().Bool("remote", false, "Use the running server instead of the local store")
	cmd.Flags().Bool("tokens", false, "Print tokens instead of ids")
	cmd.Flags().String("spaces", "", "Space runs: preserve, collapse or reject")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode ID...",
		Short: "Decode token ids into text",
		Args:  cobra.MinimumNArgs(1),
		RunE:  DecodeHandler,
	}
	cmd.Flags().Bool("remote", false, "Use the running server instead of the local store")
	cmd.Flags().Bool("skip-special", false, "Remove special tokens from the output")
	return cmd
}

func newMaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mask TEXT",
		Short: "Prepare a masked language modeling sequence",
		Args:  cobra.ExactArgs(1),
		RunE:  MaskHandler,
	}
	cmd.Flags().Bool("remote", false, "Use the running server instead of the local store")
	cmd.Flags().Float64("rate", envconfig.MaskRate(), "Share of masked tokens")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
	return cmd
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [TEXT...]",
		Short: "Encode texts into a padded batch with attention mask",
		RunE:  BatchHandler,
	}
	cmd.Flags().Bool("remote", false, "Use the running server instead of the local store")
	cmd.Flags().Int("width", int(envconfig.MaxTokens()), "Row width")
	cmd.Flags().String("side", "right", "Truncation and padding side: right or left")
	cmd.Flags().String("mask-style", "boolean", "Attention mask style: boolean or additive")
	cmd.Flags().Float64("mask-rate", 0, "Mask tokens for MLM when > 0")
	cmd.Flags().Bool("wrap", false, "Add [CLS] and [SEP] to every row")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
	return cmd
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [TOKEN|ID...]",
		Short: "Show the stored model or look up vocabulary entries",
		RunE:  ShowHandler,
	}
	cmd.Flags().Bool("remote", false, "Use the running server instead of the local store")
	cmd.Flags().Int("tokens", 0, "List the first N tokens")
	cmd.Flags().Int("merges", 0, "List the first N merge rules")
	return cmd
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats CORPUS",
		Short: "Report sequence length statistics of a corpus",
		Args:  cobra.ExactArgs(1),
		RunE:  StatsHandler,
	}
	cmd.Flags().Bool("normalize", envconfig.Normalize(), "Apply NFC normalization to the corpus")
	cmd.Flags().Int("column", 0, "CSV column holding the text")
	cmd.Flags().Bool("skip-header", false, "Skip the first CSV record")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored checkpoints",
		Args:    cobra.ExactArgs(0),
		RunE:    ListHandler,
	}
}

func newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old checkpoints (sqlite backend)",
		Args:  cobra.ExactArgs(0),
		RunE:  PruneHandler,
	}
	cmd.Flags().Int("keep", 1, "Number of checkpoints to keep")
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import DIR",
		Short: "Import a tokenizer.json or pickled model into the store",
		Args:  cobra.ExactArgs(1),
		RunE:  ImportHandler,
	}
	cmd.Flags().String("format", "", "Input format: tokenizer.json or pickle (default: detect)")
	cmd.Flags().StringSlice("special", nil, "Special tokens of a pickled model (default [CLS],[SEP],[MASK],[PAD])")
	return cmd
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Export the stored model as tokenizer.json",
		Args:  cobra.ExactArgs(1),
		RunE:  ExportHandler,
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the tokenizer server",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}
}
