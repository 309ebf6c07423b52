// Package main provides the nornic-bolt CLI: a thin driver over the
// pkg/bolt connection, useful for probing a Bolt endpoint by hand.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orneryd/nornic-bolt/pkg/auth"
	"github.com/orneryd/nornic-bolt/pkg/bolt"
	"github.com/orneryd/nornic-bolt/pkg/config"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nornic-bolt",
		Short: "nornic-bolt - a client-side Bolt v1 protocol driver",
		Long: `nornic-bolt speaks the Bolt v1 wire protocol to a graph database
server: handshake, chunked framing, the PackStream codec, and pipelined
request/response dispatch. It does not run a server, parse Cypher, or
manage sessions/pools — it is the connection layer those build on.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nornic-bolt v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "handshake <address>",
		Short: "Dial an address and report the negotiated Bolt version",
		Args:  cobra.ExactArgs(1),
		RunE:  runHandshake,
	})

	runCmd := &cobra.Command{
		Use:   "run <address> <statement>",
		Short: "Run one statement and print the records returned",
		Args:  cobra.ExactArgs(2),
		RunE:  runStatement,
	}
	runCmd.Flags().String("user", "", "basic auth principal")
	runCmd.Flags().String("password", "", "basic auth credentials")
	rootCmd.AddCommand(runCmd)

	shellCmd := &cobra.Command{
		Use:   "shell <address>",
		Short: "Interactive Bolt shell: one statement per line",
		Args:  cobra.ExactArgs(1),
		RunE:  runShell,
	}
	shellCmd.Flags().String("user", "", "basic auth principal")
	shellCmd.Flags().String("password", "", "basic auth credentials")
	rootCmd.AddCommand(shellCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// dialAndInit connects to address and blocks until INIT settles, so
// every subcommand below gets a connection that is already usable or an
// error explaining why it isn't.
func dialAndInit(address, user, password string) (*bolt.Connection, error) {
	cfg := config.FromEnv()
	cfg.Address = address

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HandshakeTimeout)
	defer cancel()

	conn, err := bolt.Connect(ctx, address, cfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}

	token := auth.None()
	if user != "" {
		token = auth.Basic(user, password, "")
	}

	done := make(chan error, 1)
	conn.Initialize(cfg.UserAgent, token, bolt.Observer{
		OnCompleted: func(map[string]any) { done <- nil },
		OnError:     func(err error) { done <- err },
	})

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("init: %w", err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return conn, nil
}

func runHandshake(cmd *cobra.Command, args []string) error {
	address := args[0]
	conn, err := dialAndInit(address, "", "")
	if err != nil {
		return err
	}
	defer conn.Close(nil)
	fmt.Printf("connected to %s: negotiated Bolt v1 (encrypted=%v)\n", address, conn.IsEncrypted())
	return nil
}

func runStatement(cmd *cobra.Command, args []string) error {
	address, statement := args[0], args[1]
	user, _ := cmd.Flags().GetString("user")
	password, _ := cmd.Flags().GetString("password")

	conn, err := dialAndInit(address, user, password)
	if err != nil {
		return err
	}
	defer conn.Close(nil)

	return execStatement(conn, statement)
}

// execStatement pipelines RUN and PULL_ALL behind a single Sync, the
// shape spec.md §8 scenario 3 describes, and reports whichever of RUN's
// or PULL_ALL's errors arrives first.
func execStatement(conn *bolt.Connection, statement string) error {
	done := make(chan error, 1)
	conn.Run(statement, nil, bolt.Observer{
		OnError: func(err error) {
			select {
			case done <- err:
			default:
			}
		},
	})
	conn.PullAll(bolt.Observer{
		OnNext: func(fields []any) {
			fmt.Println(fields)
		},
		OnCompleted: func(map[string]any) {
			select {
			case done <- nil:
			default:
			}
		},
		OnError: func(err error) {
			select {
			case done <- err:
			default:
			}
		},
	})
	conn.Sync()
	return <-done
}

func runShell(cmd *cobra.Command, args []string) error {
	address := args[0]
	user, _ := cmd.Flags().GetString("user")
	password, _ := cmd.Flags().GetString("password")

	conn, err := dialAndInit(address, user, password)
	if err != nil {
		return err
	}
	defer conn.Close(nil)

	fmt.Printf("connected to %s\n", address)
	fmt.Println("type a statement and press enter; 'exit' or Ctrl+D to quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			return nil
		}
		if !conn.IsOpen() {
			return fmt.Errorf("connection is no longer open")
		}
		if err := execStatement(conn, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}
