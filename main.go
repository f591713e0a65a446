package main

import "github.com/renbrahe/parsing-ski/cmd"

func main() {
	cmd.Execute()
}
