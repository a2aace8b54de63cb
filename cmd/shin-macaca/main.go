package main

import "github.com/SH1NK10KU/shin-macaca/pkg/cli"

func main() {
	cli.Execute()
}
