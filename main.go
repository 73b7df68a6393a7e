package main

import "github.com/quarryhq/quarry/cmd"

func main() {
	cmd.Execute()
}
