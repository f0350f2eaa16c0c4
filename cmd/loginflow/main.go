package main

import "github.com/nfrund/loginflow/cmd/loginflow/cmd"

func main() {
	cmd.Execute()
}
