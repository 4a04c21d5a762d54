package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/database"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serverURL string

type check struct {
	name   string
	detail string
	err    error
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check configuration, database and the running server",
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().StringVar(&serverURL, "url", "", "Server base URL (default http://localhost:$PORT)")
}

func runHealth(cmd *cobra.Command, args []string) error {
	var checks []check

	envErr := cfg.Validate()
	checks = append(checks, check{name: "environment", detail: "required variables set", err: envErr})

	if envErr == nil {
		checks = append(checks, databaseChecks()...)
	}

	url := serverURL
	if url == "" {
		url = "http://localhost:" + cfg.Port
	}
	checks = append(checks, serverCheck(strings.TrimRight(url, "/")))

	fmt.Println(titleStyle.Render("ytpulse health"))
	failed := 0
	for _, c := range checks {
		if c.err != nil {
			failed++
			fmt.Printf("%s %-12s %s\n", errStyle.Render("✗"), c.name, c.err)
			continue
		}
		fmt.Printf("%s %-12s %s\n", okStyle.Render("✓"), c.name, dimStyle.Render(c.detail))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	return nil
}

func databaseChecks() []check {
	db, err := openDB()
	if err != nil {
		return []check{{name: "database", err: err}}
	}
	defer closeDB(db)

	out := []check{{name: "database", detail: cfg.DBHost + "/" + cfg.DBName, err: database.Ping(db)}}
	out = append(out, tablesCheck(db))
	return out
}

func tablesCheck(db *gorm.DB) check {
	if missing := database.MissingTables(db); len(missing) > 0 {
		return check{name: "tables", err: fmt.Errorf("missing %s (run ytctl migrate)", strings.Join(missing, ", "))}
	}
	return check{name: "tables", detail: "all yt_* tables present"}
}

func serverCheck(url string) check {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url + "/api/health")
	if err != nil {
		return check{name: "server", err: err}
	}
	defer resp.Body.Close()

	var body dto.HealthResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK {
		return check{name: "server", err: fmt.Errorf("%s returned %d (%s)", url, resp.StatusCode, body.DB)}
	}
	return check{name: "server", detail: url + " " + body.Status}
}
