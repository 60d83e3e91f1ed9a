package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"go.vocdoni.io/ballot/data"
	"go.vocdoni.io/ballot/ipfs"
	"go.vocdoni.io/ballot/types"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata <locator>",
	Short: "fetch the metadata document of a candidate or voter from IPFS",
	Args:  cobra.ExactArgs(1),
	RunE:  fetchMetadata,
}

var ipfsOpt struct {
	api     string
	gateway string
	timeout time.Duration
}

func init() {
	metadataCmd.Flags().StringVar(&ipfsOpt.api, "ipfsApi", "http://127.0.0.1:5001", "IPFS HTTP API")
	metadataCmd.Flags().StringVar(&ipfsOpt.gateway, "ipfsGateway", types.DefaultIPFSGateway, "IPFS HTTP gateway")
	metadataCmd.Flags().DurationVar(&ipfsOpt.timeout, "timeout", time.Minute, "IPFS request timeout")
	RootCmd.AddCommand(metadataCmd)
}

func fetchMetadata(cmd *cobra.Command, args []string) error {
	storage, err := data.NewIPFSHTTP(ipfsOpt.api, "ERROR", ipfsOpt.timeout)
	if err != nil {
		return err
	}
	defer storage.Stop()
	uploader, err := data.NewUploader(storage, ipfsOpt.gateway, 0)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), ipfsOpt.timeout)
	defer cancel()
	content, err := uploader.Retrieve(ctx, gatewayPath(args[0]), types.MaxUploadSize)
	if err != nil {
		return err
	}
	var md types.EntityMetadata
	if err := json.Unmarshal(content, &md); err != nil {
		return fmt.Errorf("%s is not a metadata document: %w", args[0], err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, content, "", "  "); err != nil {
		return err
	}
	fmt.Fprintln(Stdout, out.String())
	if md.Image != "" {
		fmt.Fprintf(Stdout, "%s %s\n", au.Cyan("image:"), uploader.ToHTTPURL(md.Image))
	}
	return nil
}

// gatewayPath turns a gateway URL back into an /ipfs/ path.
func gatewayPath(locator string) string {
	if !strings.HasPrefix(locator, "http://") && !strings.HasPrefix(locator, "https://") {
		return locator
	}
	if i := strings.Index(locator, ipfs.PathPrefix); i > 0 {
		return locator[i:]
	}
	return locator
}
