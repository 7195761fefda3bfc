// Package banner prints the startup banner and an effective-config
// summary so operators can eyeball what the server is about to run
// with.
package banner

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"corridor/pkg/config"
)

const banner = `
 ██████╗ ██████╗ ██████╗ ██████╗ ██╗██████╗  ██████╗ ██████╗
██╔════╝██╔═══██╗██╔══██╗██╔══██╗██║██╔══██╗██╔═══██╗██╔══██╗
██║     ██║   ██║██████╔╝██████╔╝██║██║  ██║██║   ██║██████╔╝
██║     ██║   ██║██╔══██╗██╔══██╗██║██║  ██║██║   ██║██╔══██╗
╚██████╗╚██████╔╝██║  ██║██║  ██║██║██████╔╝╚██████╔╝██║  ██║
 ╚═════╝ ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝╚═════╝  ╚═════╝ ╚═╝  ╚═╝
`

// Print renders the banner plus the effective configuration summary.
func Print(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	if dbPath == "" && eff.Config != nil {
		dbPath = eff.Config.Storage.DBPath
	}
	src := eff.Source
	if src == "" {
		src = "defaults"
	}
	engine := "nethttp"
	if eff.Config != nil && eff.Config.Server.Engine != "" {
		engine = eff.Config.Server.Engine
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	fmt.Printf("Engine:   %s\n", engine)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config:   %s\n", src)
	if eff.Config != nil && eff.Config.Server.MaxBodyBytes.Int64() > 0 {
		fmt.Printf("Max Body: %s\n", humanize.Bytes(uint64(eff.Config.Server.MaxBodyBytes.Int64())))
	}

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST   /v1/notes               - Create a note (JSON: id, title, author, body)")
	fmt.Println("GET    /v1/notes?limit=<n>     - List notes")
	fmt.Println("GET    /v1/notes/{id}          - Fetch a note")
	fmt.Println("PUT    /v1/notes/{id}          - Update a note (new version recorded)")
	fmt.Println("DELETE /v1/notes/{id}          - Soft-delete a note")
	fmt.Println("GET    /v1/notes/{id}/versions - List saved versions")

	fmt.Println("\n== Examples ===================================================")
	fmt.Println(`curl -X POST 'http://<host>:<port>/v1/notes' -d '{"body":{"text":"hello"}}'`)
	fmt.Println(`curl 'http://<host>:<port>/v1/notes?limit=10'`)

	fmt.Println("\n== Production? =================================================")
	be, fe, ak := 0, 0, 0
	if eff.Config != nil {
		be = len(eff.Config.Security.APIKeys.Backend)
		fe = len(eff.Config.Security.APIKeys.Frontend)
		ak = len(eff.Config.Security.APIKeys.Admin)
	}
	if be > 0 {
		fmt.Printf("- Backend API keys: OK (%d)\n", be)
	} else {
		fmt.Println("- Backend API keys: MISSING (required for backend services)")
	}
	if fe > 0 {
		fmt.Printf("- Frontend API keys: OK (%d)\n", fe)
	} else {
		fmt.Println("- Frontend API keys: MISSING (required for client access)")
	}
	if ak > 0 {
		fmt.Printf("- Admin API keys: OK (%d)\n", ak)
	} else {
		fmt.Println("- Admin API keys: MISSING (required for admin tooling)")
	}

	if eff.Config != nil && eff.Config.Server.TLS.CertFile != "" && eff.Config.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}

	if dbPath != "" {
		fmt.Printf("- DB Path: %s\n", dbPath)
	} else {
		fmt.Println("- DB Path: not set (use --db or CORRIDOR_DB_PATH)")
	}

	if eff.Config != nil && eff.Config.Retention.Enabled {
		cron := eff.Config.Retention.Cron
		if cron == "" {
			cron = "0 2 * * *"
		}
		fmt.Printf("- Retention: enabled (cron %q, max age %s)\n", cron, eff.Config.Retention.MaxAge.Duration())
	} else {
		fmt.Println("- Retention: disabled")
	}
	fmt.Println()
}
