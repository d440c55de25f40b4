package main

import "go.pilab.hu/authbridge/cmd/authctl/cmd"

func main() {
	cmd.Execute()
}
