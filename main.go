package main

import "cinetix-cli/cmd"

func main() {
	cmd.Execute()
}
