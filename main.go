package main

import "github.com/vatsalai/vatsal/cmd"

func main() {
	cmd.Execute()
}
