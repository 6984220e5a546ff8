package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked() bool
	Setup(ctx context.Context) error
	Save(ctx context.Context) error
	Unlock(ctx context.Context) error
	Reveal(ctx context.Context) error
	Status(ctx context.Context) error
	Funds(ctx context.Context, query string) error
	Users(ctx context.Context, query string) error
	Table(ctx context.Context, name string) error
	Order(ctx context.Context) error
	Lock(ctx context.Context) error
	Clear(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the AcqBridge CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	  - help           — show available commands
//	  - setup          — choose the unlock password
//	  - save           — store the acquisitions API key
//	  - unlock         — unlock with the password
//	  - reveal         — show the stored API key
//	  - status         — show credential and session state
//	  - funds <text>   — search acquisition funds by name
//	  - users <text>   — search staff users
//	  - table <name>   — fetch a configuration code table
//	  - order          — build and submit a purchase-order line
//	  - lock           — drop the in-memory credential
//	  - clear          — wipe the stored credential and password
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are printed and the loop continues.
// This keeps the REPL resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("acq> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		arg := strings.TrimSpace(strings.TrimPrefix(line, cmd))

		var err error
		switch cmd {
		case "help":
			if a.isUnlocked() {
				printlnFn("Available commands: status, reveal, funds, users, table, order, lock, clear, exit")
			} else {
				printlnFn("Available commands: setup, save, unlock, status, clear, exit")
			}

		case "setup":
			err = a.Setup(ctx)

		case "save":
			err = a.Save(ctx)

		case "unlock":
			err = a.Unlock(ctx)

		case "reveal":
			err = a.Reveal(ctx)

		case "status", "st":
			err = a.Status(ctx)

		case "funds":
			err = a.Funds(ctx, arg)

		case "users":
			err = a.Users(ctx, arg)

		case "table":
			if arg == "" {
				printlnFn("Usage: table <name>")
				continue
			}
			err = a.Table(ctx, arg)

		case "order":
			err = a.Order(ctx)

		case "lock":
			err = a.Lock(ctx)

		case "clear":
			err = a.Clear(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
