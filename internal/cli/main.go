package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) Main(ctx context.Context) {

	fmt.Println("SplitSync CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("splitsync > ")
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Println("Available commands: login, logout, sync, status <entity> <id>, resolve <entity> <id> keep|accept, exit")

		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "sync":
			a.Sync(ctx)
		case "status":
			a.Status(ctx, args)
		case "resolve":
			a.Resolve(ctx, args)
		case "exit", "quit":
			fmt.Println("Bye!")
			return

		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}
