package main

import "github.com/w3agent/w3agent/cmd"

func main() {
	cmd.Execute()
}
