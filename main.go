package main

import "github.com/jsphweid/progdex/cmd"

func main() {
	cmd.Execute()
}
