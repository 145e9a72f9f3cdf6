package main

import "github.com/Quidge/actrun/cmd"

func main() {
	cmd.Execute()
}
