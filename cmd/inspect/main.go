// Command inspect examines a corridor data dir offline: it verifies the
// audit sink is attachable, prints store stats and optionally lists raw
// keys. Useful when the server will not start and ops need to see what
// is on disk.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"corridor/pkg/logger"
	"corridor/pkg/store"
)

func main() {
	var (
		dbPath = flag.String("db", "", "corridor data dir to inspect")
		prefix = flag.String("prefix", "", "list keys with this prefix")
		audit  = flag.String("audit", "", "audit dir to probe for writability")
	)
	flag.Parse()

	if *dbPath == "" && *audit == "" {
		fmt.Fprintln(os.Stderr, "--db or --audit required")
		os.Exit(2)
	}

	logger.Init()

	if *audit != "" {
		if err := logger.AttachAuditFileSink(*audit); err != nil {
			fmt.Fprintf(os.Stderr, "audit sink not usable: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("audit sink ok: %s\n", filepath.Join(*audit, "audit.log"))
	}

	if *dbPath == "" {
		return
	}

	if err := store.Open(filepath.Join(*dbPath, "store")); err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	st := store.CollectStats()
	out, _ := json.MarshalIndent(st, "", "  ")
	fmt.Printf("stats: %s\n", out)

	if *prefix != "" {
		keys, err := store.ListKeys(*prefix)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list keys: %v\n", err)
			os.Exit(1)
		}
		for _, k := range keys {
			fmt.Println(k)
		}
	}
}
