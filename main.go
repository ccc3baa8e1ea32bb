package main

import "github.com/agentic-research/rbx2rojo/cmd"

func main() {
	cmd.Execute()
}
