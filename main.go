package main

import "coldstore/cmd"

func main() {
	cmd.Execute()
}
