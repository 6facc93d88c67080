package main

import "github.com/tijender7/dancer-latest/internal/cli"

func main() {
	cli.Execute()
}
