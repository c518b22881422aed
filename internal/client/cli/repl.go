package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Confirm(ctx context.Context) error
	Login(ctx context.Context) error
	Refresh(ctx context.Context) error
	Me(ctx context.Context) error
	User(ctx context.Context, id string) error
	Update(ctx context.Context) error
	Passwd(ctx context.Context) error
	Delete(ctx context.Context) error
	GroupCreate(ctx context.Context) error
	Group(ctx context.Context, id string) error
}

var errUsage = errors.New("usage")

// runREPL reads one command per line from reader and dispatches it to a.
// Command errors are printed and the loop goes on; it ends on EOF, exit or
// quit.
//
//	Not logged in:  register, confirm, login, help, exit
//	Logged in:      me, user <id>, update, passwd, delete, refresh,
//	                group-create, group <id>, help, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("oclus> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		arg := func() string {
			if len(args) == 0 {
				return ""
			}
			return args[0]
		}

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: me, user <id>, update, passwd, delete, refresh, group-create, group <id>, exit")
			} else {
				printlnFn("Available commands: register, confirm, login, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "confirm":
			cmdErr = a.Confirm(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "refresh":
			cmdErr = a.Refresh(ctx)

		case "me":
			cmdErr = a.Me(ctx)

		case "user":
			if arg() == "" {
				cmdErr = fmt.Errorf("%w: user <id>", errUsage)
				break
			}
			cmdErr = a.User(ctx, arg())

		case "update":
			cmdErr = a.Update(ctx)

		case "passwd":
			cmdErr = a.Passwd(ctx)

		case "delete":
			cmdErr = a.Delete(ctx)

		case "group-create":
			cmdErr = a.GroupCreate(ctx)

		case "group":
			if arg() == "" {
				cmdErr = fmt.Errorf("%w: group <id>", errUsage)
				break
			}
			cmdErr = a.Group(ctx, arg())

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}
