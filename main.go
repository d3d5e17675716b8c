package main

import (
	"context"

	"coffeescraper/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
