package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  login                     - sign in to the platform")
	fmt.Println("  logout                    - clear the stored session")
	fmt.Println("  whoami                    - show current user")
	fmt.Println("  upload <ctx> <path>       - stage a file (ctx: avatar|document|message)")
	fmt.Println("  replace <id> <path>       - replace a staged upload")
	fmt.Println("  confirm <id>              - attach a staged upload permanently")
	fmt.Println("  remove <id>               - discard a staged upload")
	fmt.Println("  list <ctx>                - list uploads for a context")
	fmt.Println("  download <id>             - download a document to ./downloads")
	fmt.Println("  avatar <ref>              - resolve a protected image through the cache")
	fmt.Println("  inbox                     - show records awaiting moderation")
	fmt.Println("  help                      - show this help")
	fmt.Println("  exit                      - quit")
}

func (a *App) prompt() string {
	if !a.isLoggedIn() {
		return "finbroker (anonymous)> "
	}
	who := "user"
	if claims, err := a.session.Claims(); err == nil && claims.Email != "" {
		who = claims.Email
	}
	if n := a.pending.Load(); n > 0 {
		return fmt.Sprintf("finbroker (%s) [%d pending]> ", who, n)
	}
	return fmt.Sprintf("finbroker (%s)> ", who)
}

// Root runs the interactive command loop until the user exits or ctx is
// cancelled.
func (a *App) Root(ctx context.Context) {
	fmt.Println("FinBroker client. Type 'help' for a list of commands.")

	defer a.stopWatcher()
	if a.isLoggedIn() {
		a.startWatcher(ctx)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Print(a.prompt())
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			a.printHelp()
		case "login":
			if err := a.login(ctx); err != nil {
				log.Printf("login failed: %s", err.Error())
				continue
			}
			a.startWatcher(ctx)
		case "logout":
			a.logout(ctx)
		case "whoami":
			a.whoami()
		case "upload":
			a.cmdUpload(ctx, args)
		case "replace":
			a.cmdReplace(ctx, args)
		case "confirm":
			a.cmdConfirm(ctx, args)
		case "remove":
			a.cmdRemove(ctx, args)
		case "list":
			a.cmdList(ctx, args)
		case "download":
			a.cmdDownload(ctx, args)
		case "avatar":
			a.cmdAvatar(ctx, args)
		case "inbox":
			a.cmdInbox(ctx)
		case "exit", "quit":
			return
		default:
			fmt.Printf("unknown command: %s\n", cmd)
		}
	}
}
