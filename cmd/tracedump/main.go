package main

import "github.com/tracelens/tracelens/cmd/tracedump/commands"

func main() {
	commands.Execute()
}
