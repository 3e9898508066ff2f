package main

import "booktracker/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
