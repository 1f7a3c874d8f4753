package main

import "github.com/ValentinKolb/dInfer/cmd"

func main() {
	cmd.Execute()
}
