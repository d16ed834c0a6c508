package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/mickamy/gorecord"
)

var customers = gorecord.MustDescriptor("customers",
	gorecord.WithDateFields("birthday"),
	gorecord.WithPhoneFields("phone"),
	gorecord.WithMoneyFields("balance"),
)

var idColumn = map[string]string{
	"mysql":   "BIGINT AUTO_INCREMENT PRIMARY KEY",
	"pgx":     "BIGSERIAL PRIMARY KEY",
	"sqlite3": "INTEGER PRIMARY KEY AUTOINCREMENT",
}

func main() {
	var (
		configPath = pflag.StringP("config", "c", getenv("GORECORD_CONFIG", ""), "path to a JSON/JSONC config file")
		driver     = pflag.String("driver", "", "database driver (mysql, pgx, sqlite3)")
		dsn        = pflag.String("dsn", "", "data source name, overrides the host settings")
		report     = pflag.String("report", "", "write the diagnostics report to this file")
		create     = pflag.Bool("create-table", false, "create the customers table first")
	)
	pflag.Parse()

	cfg, err := gorecord.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *dsn != "" {
		cfg.DSN = *dsn
	}

	logger := cfg.Logger()
	diag, err := gorecord.NewDiagnostics(cfg.DiagnosticsOptions(logger)...)
	if err != nil {
		log.Fatalf("diagnostics: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := gorecord.Open(ctx, cfg, gorecord.WithDiagnostics(diag))
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer func(db *gorecord.DB) {
		_ = db.Close()
	}(db)

	if *create {
		ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS customers (
    id %s,
    name VARCHAR(255) NOT NULL,
    phone VARCHAR(32),
    birthday DATE,
    balance VARCHAR(64)
)`, idColumn[cfg.Driver])
		if _, err := db.Unwrap().ExecContext(ctx, ddl); err != nil {
			log.Fatalf("create table: %v", err)
		}
	}

	// INSERT: every field of a new entity is dirty
	c := gorecord.NewEntity(customers, db)
	if err := c.Fill(
		gorecord.Field{Name: "name", Value: "Ada Lovelace"},
		gorecord.Field{Name: "phone", Value: "+1 (234) 567-8901"},
		gorecord.Field{Name: "birthday", Value: "1815-12-10"},
		gorecord.Field{Name: "balance", Value: "1234,5"},
	); err != nil {
		log.Fatalf("fill: %v", err)
	}
	if _, err := c.Save(ctx); err != nil {
		log.Fatalf("insert: %v", err)
	}
	fmt.Printf("inserted %v: %s\n", c.ID(), c)

	// UPDATE: only balance is written
	if err := c.Set("balance", 99.9); err != nil {
		log.Fatalf("set: %v", err)
	}
	fmt.Printf("dirty before save: %v\n", c.GetDirty())
	if _, err := c.Save(ctx); err != nil {
		log.Fatalf("update: %v", err)
	}

	other := gorecord.NewEntity(customers, db)
	found, err := other.FetchColumns(ctx, "name, balance", c.ID())
	if err != nil {
		log.Fatalf("fetch columns: %v", err)
	}
	fmt.Printf("fetched columns (found=%v): %s\n", found, other)

	if err := c.Delete(ctx); err != nil {
		log.Fatalf("delete: %v", err)
	}
	found, err = other.Fetch(ctx, c.ID())
	if err != nil {
		log.Fatalf("fetch: %v", err)
	}
	fmt.Printf("row present after delete = %v (expected false)\n", found)

	fmt.Println(diag.Summary())
	if *report != "" {
		if err := diag.WriteReport(*report); err != nil {
			log.Fatalf("report: %v", err)
		}
		fmt.Printf("report written to %s\n", *report)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
