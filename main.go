package main

import "github.com/agentic-research/cinerank/cmd"

func main() {
	cmd.Execute()
}
