package main

import "github.com/sw33tLie/dasha/cmd"

func main() {
	cmd.Execute()
}
