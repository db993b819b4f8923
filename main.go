package main

import "github.com/nvali/chronotap/cmd"

func main() {
	cmd.Execute()
}
