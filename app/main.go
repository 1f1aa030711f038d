package main

import "github.com/ghxstship/recordguard/app/cmd"

func main() {
	cmd.Execute()
}
