// Command purge deletes every stored chat transcript belonging to one user.
// The server prunes missing files on its next listing scan, so this is safe
// to run against a live data directory.
//
// Usage:
//
//	go run ./scripts/purge [-dry-run] <username>
//	DATA_DIR=/srv/knitec/chats go run ./scripts/purge jsmith
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knitec/iq-platform/internal/chat"
	appconfig "github.com/knitec/iq-platform/internal/config"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "list matching transcripts without deleting them")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Usage: go run ./scripts/purge [-dry-run] <username>")
		fmt.Println("Example: go run ./scripts/purge jsmith")
		os.Exit(1)
	}
	username := flag.Arg(0)

	cfg := appconfig.Load()
	entries, err := os.ReadDir(cfg.DataDir)
	if err != nil {
		fmt.Printf("Error reading data directory %s: %v\n", cfg.DataDir, err)
		os.Exit(1)
	}

	matched := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		sessionID := strings.TrimSuffix(entry.Name(), ".jsonl")
		if !chat.OwnedBy(sessionID, username) {
			continue
		}
		matched++

		path := filepath.Join(cfg.DataDir, entry.Name())
		if *dryRun {
			fmt.Printf("would delete %s\n", path)
			continue
		}
		if err := os.Remove(path); err != nil {
			fmt.Printf("Error deleting %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("deleted %s\n", path)
	}

	if matched == 0 {
		fmt.Printf("No transcripts found for user %q in %s\n", username, cfg.DataDir)
		return
	}
	if *dryRun {
		fmt.Printf("%d transcript(s) would be deleted\n", matched)
	} else {
		fmt.Printf("%d transcript(s) deleted\n", matched)
	}
}
