// config_training.go - Training-, Encoding- und Batch-Parameter
//
// Dieses Modul enthaelt:
// - Store-Backend und Vokabular-Obergrenze
// - Batch- und Masking-Parameter
// - Parallelitaets-Einstellungen
package envconfig

import "strings"

// =============================================================================
// Store und Training
// =============================================================================

var (
	// MaxVocab begrenzt die Groesse des Vokabulars beim Training
	MaxVocab = Uint("SUBWORD_MAX_VOCAB", 50000)

	// BatchLines ist die Anzahl Korpus-Zeilen pro Trainings-Chunk
	BatchLines = Uint("SUBWORD_BATCH_LINES", 10)

	// Normalize aktiviert NFC-Normalisierung des Korpus
	Normalize = Bool("SUBWORD_NORMALIZE")
)

// StoreBackend gibt das Store-Backend zurueck ("disk" oder "sqlite")
// Konfigurierbar via SUBWORD_STORE_BACKEND
// Default: disk
func StoreBackend() string {
	switch s := strings.ToLower(Var("SUBWORD_STORE_BACKEND")); s {
	case "", "disk":
		return "disk"
	default:
		return s
	}
}

// =============================================================================
// Encoding und Batches
// =============================================================================

var (
	// MaxTokens ist die Zeilenbreite von Batches
	MaxTokens = Uint("SUBWORD_MAX_TOKENS", 150)

	// MaskRate ist der Anteil maskierter Tokens fuer MLM
	MaskRate = Float("SUBWORD_MASK_RATE", 0.15)

	// Spaces waehlt die Behandlung von Leerzeichenfolgen (preserve, collapse, reject)
	Spaces = String("SUBWORD_SPACES")

	// NumParallel begrenzt parallele Encodings; 0 = GOMAXPROCS
	NumParallel = Uint("SUBWORD_NUM_PARALLEL", 0)
)
