package main

import "github.com/tripforge/tripforge/cmd/tripforge/cmd"

func main() {
	cmd.Execute()
}
