package main

import "go.vocdoni.io/ballot/cmd/ballotcli/commands"

func main() {
	commands.Execute()
}
