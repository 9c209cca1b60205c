package main

import "github.com/snarrenberg/westerlines/cmd"

func main() {
	cmd.Execute()
}
