package main

import "github.com/kressler/docproof/cmd"

func main() {
	cmd.Execute()
}
