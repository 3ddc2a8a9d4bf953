package main

import "github.com/oshokin/chiller-supervisor/cmd/chiller-supervisor/cmd"

func main() {
	cmd.Execute()
}
