package main

import "github.com/greenplot/ecdash/cmd"

func main() {
	cmd.Execute()
}
