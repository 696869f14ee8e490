package main

import "github.com/twaters/radiant/internal/cli"

func main() {
	cli.Execute()
}
