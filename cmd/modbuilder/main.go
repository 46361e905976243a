package main

import "github.com/oshokin/modbuilder/cmd/modbuilder/cmd"

func main() {
	cmd.Execute()
}
