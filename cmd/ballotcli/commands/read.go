package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.vocdoni.io/ballot/api"
	"go.vocdoni.io/ballot/types"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "list the registered candidates",
	Args:  cobra.NoArgs,
	RunE:  listCandidates,
}

var votersCmd = &cobra.Command{
	Use:   "voters",
	Short: "list the authorized voters",
	Args:  cobra.NoArgs,
	RunE:  listVoters,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "show the election participation",
	Args:  cobra.NoArgs,
	RunE:  showStats,
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "list the transactions waiting to be mined",
	Args:  cobra.NoArgs,
	RunE:  listPending,
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "show the wallet session of the node",
	Args:  cobra.NoArgs,
	RunE:  showSession,
}

var votedOnly bool

func init() {
	votersCmd.Flags().BoolVar(&votedOnly, "voted", false, "only list the voters that already voted")
	RootCmd.AddCommand(candidatesCmd, votersCmd, statsCmd, pendingCmd, sessionCmd)
}

func listCandidates(cmd *cobra.Command, args []string) error {
	cli, err := newClient()
	if err != nil {
		return err
	}
	resp, err := cli.Candidates()
	if err != nil {
		return err
	}
	printCandidates(resp)
	return nil
}

func printCandidates(resp *api.Candidates) {
	printCollectionState(resp.Loading, resp.Error)
	fmt.Fprintf(Stdout, "%s %d\n", au.Bold("candidates:"), resp.Count)
	for _, c := range resp.Candidates {
		fmt.Fprintf(Stdout, "%s %s %s age:%s votes:%s\n",
			au.Cyan(c.ID), au.Yellow(c.Address.Hex()), au.Bold(c.Name), c.Age, au.Green(c.VoteCount))
		if c.ImageURL != "" {
			fmt.Fprintf(Stdout, "  image: %s\n", c.ImageURL)
		}
	}
}

func listVoters(cmd *cobra.Command, args []string) error {
	cli, err := newClient()
	if err != nil {
		return err
	}
	resp, err := cli.Voters(votedOnly)
	if err != nil {
		return err
	}
	printVoters(resp)
	return nil
}

func printVoters(resp *api.Voters) {
	printCollectionState(resp.Loading, resp.Error)
	fmt.Fprintf(Stdout, "%s %d\n", au.Bold("voters:"), resp.Count)
	for _, v := range resp.Voters {
		state := au.Red("not voted")
		if v.HasVoted {
			state = au.Green("voted")
		}
		fmt.Fprintf(Stdout, "%s %s %s %s\n", au.Cyan(v.ID), au.Yellow(v.Address.Hex()), au.Bold(v.Name), state)
	}
}

func printCollectionState(loading bool, apiErr *api.Error) {
	if loading {
		fmt.Fprintln(Stdout, au.Magenta("refreshing..."))
	}
	if apiErr != nil {
		fmt.Fprintf(Stderr, "%s %s: %s\n", au.Red("last refresh failed:"), apiErr.Kind, apiErr.Message)
	}
}

func showStats(cmd *cobra.Command, args []string) error {
	cli, err := newClient()
	if err != nil {
		return err
	}
	stats, err := cli.Stats()
	if err != nil {
		return err
	}
	printStats(cli.VotingTitle(), stats)
	return nil
}

func printStats(title string, stats *types.Stats) {
	fmt.Fprintf(Stdout, "%s\n", au.Bold(title).Underline())
	fmt.Fprintf(Stdout, "%s %d\n", au.Cyan("candidates:"), stats.CandidateCount)
	fmt.Fprintf(Stdout, "%s %d\n", au.Cyan("voters:"), stats.VoterCount)
	fmt.Fprintf(Stdout, "%s %d\n", au.Cyan("voted:"), stats.Voted)
	fmt.Fprintf(Stdout, "%s %d\n", au.Cyan("not voted:"), stats.NotVoted)
	fmt.Fprintf(Stdout, "%s %.2f%%\n", au.Cyan("progress:"), stats.Progress)
}

func listPending(cmd *cobra.Command, args []string) error {
	cli, err := newClient()
	if err != nil {
		return err
	}
	pending, err := cli.Pending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(Stdout, "no pending transactions")
	}
	for _, p := range pending {
		fmt.Fprintf(Stdout, "%s %s %s since %s\n", au.Cyan(p.ID), au.Bold(p.Kind), au.Yellow(p.TxHash.Hex()), p.SubmittedAt.Format("15:04:05"))
	}
	return nil
}

func showSession(cmd *cobra.Command, args []string) error {
	cli, err := newClient()
	if err != nil {
		return err
	}
	s, err := cli.Session()
	if err != nil {
		return err
	}
	printSession(s)
	return nil
}

func printSession(s *api.SessionResponse) {
	account := "none"
	if s.Address != nil {
		account = s.Address.Hex()
	}
	fmt.Fprintf(Stdout, "%s %s\n%s %s\n", au.Cyan("state:"), au.Bold(s.State), au.Cyan("account:"), au.Yellow(account))
}
