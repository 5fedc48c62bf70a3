package main

import "github.com/fakeyudi/ghostedit/cmd"

func main() {
	cmd.Execute()
}
