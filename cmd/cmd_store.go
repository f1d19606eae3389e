// cmd_store.go - Store-Zugriff fuer die CLI
// Hauptfunktionen: openStore, loadModel, ListHandler, PruneHandler
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ollama/subword/envconfig"
	"github.com/ollama/subword/store"
	"github.com/ollama/subword/store/blob"
	"github.com/ollama/subword/store/sqlite"
	"github.com/ollama/subword/tokenizer"
)

// checkpointRow ist eine Zeile der Checkpoint-Liste, unabhaengig vom Backend
type checkpointRow struct {
	ID      string
	Created string
	Blobs   int
}

// openStore oeffnet das konfigurierte Store-Backend unter envconfig.StoreDir
func openStore() (store.Store, error) {
	dir := envconfig.StoreDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	switch backend := envconfig.StoreBackend(); backend {
	case "disk":
		return blob.OpenStore(dir)
	case "sqlite":
		return sqlite.Open(filepath.Join(dir, "subword.db"))
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// loadModel laedt den letzten Checkpoint. spaces ueberschreibt SUBWORD_SPACES.
func loadModel(ctx context.Context, spaces string) (*tokenizer.Model, error) {
	if spaces == "" {
		spaces = envconfig.Spaces()
	}
	policy, err := tokenizer.ParseSpacePolicy(spaces)
	if err != nil {
		return nil, err
	}

	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	m, err := tokenizer.Load(ctx, st, tokenizer.Options{Spaces: policy})
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no trained model in %s, run 'subword train' first", envconfig.StoreDir())
	}
	return m, err
}

func checkpoints(ctx context.Context, st store.Store) ([]checkpointRow, error) {
	var rows []checkpointRow
	switch st := st.(type) {
	case *blob.Store:
		for m, err := range st.Checkpoints() {
			if err != nil {
				return nil, err
			}
			rows = append(rows, checkpointRow{ID: m.ID.String(), Created: m.Created.Format("2006-01-02 15:04:05"), Blobs: len(m.Blobs)})
		}
	case *sqlite.Store:
		cps, err := st.Checkpoints(ctx)
		if err != nil {
			return nil, err
		}
		for _, cp := range cps {
			rows = append(rows, checkpointRow{ID: cp.ID.String(), Created: cp.Created.Format("2006-01-02 15:04:05"), Blobs: cp.Blobs})
		}
	default:
		return nil, fmt.Errorf("store %T cannot list checkpoints", st)
	}
	return rows, nil
}

func renderCheckpoints(w io.Writer, rows []checkpointRow) {
	var data [][]string
	for _, r := range rows {
		data = append(data, []string{r.ID, r.Created, fmt.Sprint(r.Blobs)})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "CREATED", "BLOBS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

// ListHandler - Listet alle gespeicherten Checkpoints auf
func ListHandler(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := checkpoints(cmd.Context(), st)
	if err != nil {
		return err
	}
	renderCheckpoints(cmd.OutOrStdout(), rows)
	return nil
}

// PruneHandler - Loescht alte Checkpoints im sqlite-Backend
func PruneHandler(cmd *cobra.Command, _ []string) error {
	keep, err := cmd.Flags().GetInt("keep")
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	db, ok := st.(*sqlite.Store)
	if !ok {
		return fmt.Errorf("prune requires SUBWORD_STORE_BACKEND=sqlite")
	}

	n, err := db.Prune(cmd.Context(), keep)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d checkpoint(s)\n", n)
	return nil
}
