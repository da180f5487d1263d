package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/neekrasov/typedkv/pkg/client"
)

func main() {
	address := flag.String("address", "127.0.0.1:7878", "Address of the server")
	username := flag.String("username", "admin", "Username for requests")
	password := flag.String("password", "", "Password for requests")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	flag.Parse()

	kv := client.New(client.Config{
		Address:  *address,
		Username: *username,
		Password: *password,
		Timeout:  *timeout,
	})

	rl, err := readline.New("$ ")
	if err != nil {
		log.Fatalf("failed to create readline instance: %s", err.Error())
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			log.Fatal(err)
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if query == "exit" {
			return
		}

		body, status, err := kv.Query(query)
		if err != nil {
			fmt.Printf("error: %s\n", err)
			continue
		}

		fmt.Printf("[%d] %s\n", status, body)
	}
}
