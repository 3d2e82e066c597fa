package main

import "github.com/leshchenko1979/telegram-mcp-go/cmd"

func main() {
	cmd.Execute()
}
