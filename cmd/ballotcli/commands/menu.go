package commands

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/fatih/color"
	ui "github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"go.vocdoni.io/ballot/apiclient"
	"go.vocdoni.io/ballot/types"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "interactive menu",
	Args:  cobra.NoArgs,
	RunE:  menu,
}

var (
	infoPrint = color.New(color.FgGreen)
	errorp    = color.New(color.FgHiRed)
)

func init() {
	RootCmd.AddCommand(menuCmd)
}

func menu(cmd *cobra.Command, args []string) error {
	cli, err := newClient()
	if err != nil {
		return err
	}
	header := func() string {
		account := "wallet not connected"
		if s, err := cli.Session(); err == nil && s.Address != nil {
			account = s.Address.Hex()
		}
		return fmt.Sprintf("%s | %s",
			color.New(color.FgHiGreen, color.Bold, color.Underline).Sprint(cli.VotingTitle()),
			color.New(color.FgHiBlue).Sprint(account),
		)
	}
	items := color.New(color.FgHiYellow, color.Bold)
	for {
		prompt := ui.Select{
			Label:    header(),
			HideHelp: true,
			Size:     10,
			Items: []string{
				items.Sprint("🔌\tConnect wallet"),       // 0
				items.Sprint("📖\tCandidates"),           // 1
				items.Sprint("👥\tVoters"),               // 2
				items.Sprint("📊\tResults"),              // 3
				items.Sprint("✍\tRegister candidate"),   // 4
				items.Sprint("🪪\tAuthorize voter"),      // 5
				items.Sprint("🗳️\tVote"),                // 6
				items.Sprint("⏳\tPending transactions"), // 7
				items.Sprint("❌\tQuit"),                 // 8
			},
		}
		option, _, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}
		switch option {
		case 0:
			err = connect(cmd, nil)
		case 1:
			err = listCandidates(cmd, nil)
		case 2:
			err = listVoters(cmd, nil)
		case 3:
			err = showStats(cmd, nil)
		case 4:
			err = promptCandidate(cli)
		case 5:
			err = promptVoter(cli)
		case 6:
			err = promptVote(cli)
		case 7:
			err = listPending(cmd, nil)
		default:
			return nil
		}
		if err != nil {
			errorp.Println(err)
		}
	}
}

func ask(label string, validate ui.ValidateFunc) (string, error) {
	p := ui.Prompt{Label: label, Validate: validate}
	return p.Run()
}

func notEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func promptEntity() (name, address string, image []byte, err error) {
	if name, err = ask("Name", notEmpty); err != nil {
		return
	}
	if address, err = ask("Address or ENS name", notEmpty); err != nil {
		return
	}
	path, err := ask("Image file", notEmpty)
	if err != nil {
		return
	}
	image, err = readImage(path)
	return
}

func promptCandidate(cli *apiclient.HTTPclient) error {
	name, address, image, err := promptEntity()
	if err != nil {
		return err
	}
	ageStr, err := ask("Age", func(s string) error {
		age, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		if age < types.MinCandidateAge {
			return fmt.Errorf("must be at least %d", types.MinCandidateAge)
		}
		return nil
	})
	if err != nil {
		return err
	}
	age, _ := strconv.Atoi(ageStr)
	infoPrint.Printf("registering candidate %s, waiting for the transaction to be mined...\n", name)
	r, err := cli.RegisterCandidate(name, address, age, image)
	if err != nil {
		return err
	}
	printReceipt(r)
	return nil
}

func promptVoter(cli *apiclient.HTTPclient) error {
	name, address, image, err := promptEntity()
	if err != nil {
		return err
	}
	infoPrint.Printf("authorizing voter %s, waiting for the transaction to be mined...\n", name)
	r, err := cli.RegisterVoter(name, address, image)
	if err != nil {
		return err
	}
	printReceipt(r)
	return nil
}

func promptVote(cli *apiclient.HTTPclient) error {
	resp, err := cli.Candidates()
	if err != nil {
		return err
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates registered")
	}
	names := []string{}
	for _, c := range resp.Candidates {
		names = append(names, fmt.Sprintf("%s (%s)", c.Name, c.Address.Hex()))
	}
	sel := ui.Select{Label: "Candidate", Items: names, HideHelp: true}
	i, _, err := sel.Run()
	if err != nil {
		return err
	}
	c := resp.Candidates[i]
	id := new(big.Int)
	if c.ID != nil {
		id = c.ID.MathBigInt()
	}
	infoPrint.Printf("voting %s, waiting for the transaction to be mined...\n", c.Name)
	r, err := cli.Vote(c.Address.Hex(), id)
	if err != nil {
		return err
	}
	printReceipt(r)
	return nil
}
