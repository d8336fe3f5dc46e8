// Package main provides the entry point for the lightplan command.
package main

import "lightplan/cmd"

func main() {
	cmd.Execute()
}
