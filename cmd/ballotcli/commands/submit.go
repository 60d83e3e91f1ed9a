package commands

import (
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"go.vocdoni.io/ballot/api"
	"go.vocdoni.io/ballot/types"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "ask the node wallet to authorize an account",
	Args:  cobra.NoArgs,
	RunE:  connect,
}

var registerCandidateCmd = &cobra.Command{
	Use:   "register-candidate",
	Short: "register a candidate (name, address or ENS name, age and image)",
	Args:  cobra.NoArgs,
	RunE:  registerCandidate,
}

var registerVoterCmd = &cobra.Command{
	Use:   "register-voter",
	Short: "authorize a voter (name, address or ENS name and image)",
	Args:  cobra.NoArgs,
	RunE:  registerVoter,
}

var voteCmd = &cobra.Command{
	Use:   "vote <candidateAddress> <candidateId>",
	Short: "cast the vote of the connected account",
	Args:  cobra.ExactArgs(2),
	RunE:  vote,
}

var refreshCmd = &cobra.Command{
	Use:       "refresh <candidates|voters>",
	Short:     "reload a collection from the contract",
	Args:      cobra.ExactValidArgs(1),
	ValidArgs: []string{types.Candidates.String(), types.Voters.String()},
	RunE:      refresh,
}

var entity struct {
	name    string
	address string
	age     int
	image   string
}

func init() {
	for _, cmd := range []*cobra.Command{registerCandidateCmd, registerVoterCmd} {
		cmd.Flags().StringVar(&entity.name, "name", "", "display name")
		cmd.Flags().StringVar(&entity.address, "address", "", "account address or ENS name")
		cmd.Flags().StringVar(&entity.image, "image", "", "path of the image file")
		cmd.MarkFlagRequired("name")
		cmd.MarkFlagRequired("address")
		cmd.MarkFlagRequired("image")
	}
	registerCandidateCmd.Flags().IntVar(&entity.age, "age", 0, "candidate age")
	registerCandidateCmd.MarkFlagRequired("age")
	RootCmd.AddCommand(connectCmd, registerCandidateCmd, registerVoterCmd, voteCmd, refreshCmd)
}

func connect(cmd *cobra.Command, args []string) error {
	cli, err := newClient()
	if err != nil {
		return err
	}
	s, err := cli.Connect()
	if err != nil {
		return err
	}
	printSession(s)
	return nil
}

func readImage(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.Size() > types.MaxUploadSize {
		return nil, fmt.Errorf("image %s is larger than %d bytes", path, types.MaxUploadSize)
	}
	return os.ReadFile(path)
}

func registerCandidate(cmd *cobra.Command, args []string) error {
	cli, err := newClient()
	if err != nil {
		return err
	}
	image, err := readImage(entity.image)
	if err != nil {
		return err
	}
	fmt.Fprintln(Stdout, au.Magenta("waiting for the transaction to be mined..."))
	r, err := cli.RegisterCandidate(entity.name, entity.address, entity.age, image)
	if err != nil {
		return err
	}
	printReceipt(r)
	return nil
}

func registerVoter(cmd *cobra.Command, args []string) error {
	cli, err := newClient()
	if err != nil {
		return err
	}
	image, err := readImage(entity.image)
	if err != nil {
		return err
	}
	fmt.Fprintln(Stdout, au.Magenta("waiting for the transaction to be mined..."))
	r, err := cli.RegisterVoter(entity.name, entity.address, image)
	if err != nil {
		return err
	}
	printReceipt(r)
	return nil
}

func vote(cmd *cobra.Command, args []string) error {
	id, ok := new(big.Int).SetString(args[1], 10)
	if !ok {
		return fmt.Errorf("invalid candidate id %q", args[1])
	}
	cli, err := newClient()
	if err != nil {
		return err
	}
	fmt.Fprintln(Stdout, au.Magenta("waiting for the transaction to be mined..."))
	r, err := cli.Vote(args[0], id)
	if err != nil {
		return err
	}
	printReceipt(r)
	return nil
}

func refresh(cmd *cobra.Command, args []string) error {
	collection, err := types.ParseCollection(args[0])
	if err != nil {
		return err
	}
	cli, err := newClient()
	if err != nil {
		return err
	}
	if err := cli.Refresh(collection); err != nil {
		return err
	}
	fmt.Fprintf(Stdout, "%s reloaded\n", collection)
	return nil
}

func printReceipt(r *api.Receipt) {
	fmt.Fprintf(Stdout, "%s %s\n%s %d\n%s %d\n",
		au.Green("mined:"), au.Yellow(r.TxHash.Hex()),
		au.Cyan("block:"), r.BlockNumber,
		au.Cyan("gas used:"), r.GasUsed)
}
