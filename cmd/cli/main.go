package main

import (
	"github.com/crucial707/mtg-cards/cmd/cli/auth"
	"github.com/crucial707/mtg-cards/cmd/cli/cards"
	"github.com/crucial707/mtg-cards/cmd/cli/root"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	cards.InitCards(rootCmd)

	// Execute the root Cobra command
	root.Execute()
}
