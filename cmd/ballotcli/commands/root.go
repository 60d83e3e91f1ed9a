// Package commands implements the ballotcli commands on top of the ballot node API.
package commands

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"go.vocdoni.io/ballot/apiclient"
	"go.vocdoni.io/ballot/log"
)

var RootCmd = &cobra.Command{
	Use:   "ballotcli",
	Short: "ballot node command line interface.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		au = aurora.NewAurora(opt.colorize)
		if SetupLogPackage {
			log.Init(opt.logLevel, "stderr")
		}
	},
	SilenceUsage: true,
}

type options struct {
	colorize bool
	host     string
	logLevel string
}

var (
	au  aurora.Aurora
	opt options

	// when running ballotcli in a test harness which has its own logger setup,
	// SetupLogPackage should be false so that the harness settings are kept
	SetupLogPackage = true
	Stdout          io.Writer
	Stderr          io.Writer
)

func init() {
	Stdout = os.Stdout
	Stderr = os.Stderr
	RootCmd.CompletionOptions.DisableDefaultCmd = true
	RootCmd.PersistentFlags().BoolVarP(&opt.colorize, "color", "c", true,
		"colorize output")
	RootCmd.PersistentFlags().StringVarP(&opt.host, "host", "u", "http://127.0.0.1:9090/",
		"ballot node API to connect to")
	RootCmd.PersistentFlags().StringVar(&opt.logLevel, "logLevel", "error",
		"log level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() (*apiclient.HTTPclient, error) {
	u, err := url.Parse(opt.host)
	if err != nil {
		return nil, fmt.Errorf("invalid host %q: %w", opt.host, err)
	}
	return apiclient.NewHTTPclient(u)
}
