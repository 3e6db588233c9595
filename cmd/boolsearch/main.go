package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
