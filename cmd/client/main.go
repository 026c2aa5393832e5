// Command client is a minimal terminal client for a talkd server. It dials
// the TCP endpoint, optionally sends one register/login command built from
// flags, then relays stdin lines to the server and server lines to stdout.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/talkroom/talkd/pkg/protocol"
)

func main() {
	addr := flag.String("addr", "localhost:8888", "server address")
	user := flag.String("user", "", "username for -register / -login")
	pass := flag.String("pass", "", "password for -register / -login")
	register := flag.Bool("register", false, "register a new account instead of logging in")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	if *user != "" {
		cmd := protocol.CmdLogin
		if *register {
			cmd = protocol.CmdRegister
		}
		line := cmd + "username=" + *user + "&password=" + *pass + "\n"
		if _, err := io.WriteString(conn, line); err != nil {
			fmt.Fprintf(os.Stderr, "send credentials: %v\n", err)
			os.Exit(1)
		}
	}

	// Server lines go to stdout until the connection closes.
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, 1024), protocol.MaxLineLength)
		for scanner.Scan() {
			fmt.Println(scanner.Text())
		}
	}()

	// Stdin lines go to the server verbatim, so commands like GET_USERS
	// and QUIT work as typed.
	go func() {
		stdin := bufio.NewScanner(os.Stdin)
		for stdin.Scan() {
			if _, err := io.WriteString(conn, stdin.Text()+"\n"); err != nil {
				return
			}
		}
		_, _ = io.WriteString(conn, protocol.CmdQuit+"\n")
	}()

	<-done
}
