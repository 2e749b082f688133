package main

import "depstall/cmd/depstall/internal"

func main() {
	internal.Execute()
}
