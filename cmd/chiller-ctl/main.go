package main

import "github.com/oshokin/chiller-supervisor/cmd/chiller-ctl/cmd"

func main() {
	cmd.Execute()
}
