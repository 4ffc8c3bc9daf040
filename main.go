package main

import "imgswap/cmd"

func main() {
	cmd.Execute()
}
