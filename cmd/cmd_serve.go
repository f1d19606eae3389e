// cmd_serve.go - Server Command und Versionsanzeige
// Hauptfunktionen: RunServer, versionHandler
package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ollama/subword/api"
	"github.com/ollama/subword/envconfig"
	"github.com/ollama/subword/server"
	"github.com/ollama/subword/version"
)

// RunServer - Laedt das Modell und startet den subword-Server
func RunServer(cmd *cobra.Command, _ []string) error {
	m, err := loadModel(cmd.Context(), "")
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", envconfig.Host().Host)
	if err != nil {
		return err
	}

	err = server.Serve(ln, m)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func versionHandler(cmd *cobra.Command, _ []string) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return
	}

	serverVersion, err := client.Version(cmd.Context())
	if err != nil {
		fmt.Println("Warning: could not connect to a running subword instance")
	}

	if serverVersion != "" {
		fmt.Printf("subword version is %s\n", serverVersion)
	}

	if serverVersion != version.Version {
		fmt.Printf("Warning: client version is %s\n", version.Version)
	}
}
