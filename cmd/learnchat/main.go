// Command learnchat is a chat client and backend that learns from its
// conversations.
package main

import "github.com/diogo/learnchat/internal/commands"

func main() {
	commands.Execute()
}
