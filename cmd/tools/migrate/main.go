package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"time"

	"media.local/internal/platform/config"
	"media.local/internal/platform/db"
	"media.local/internal/platform/migrate"
)

// 按文件名顺序执行 migrations/*.sql，已执行过的跳过。
func main() {
	dir := flag.String("dir", "", "migrations directory (default: auto-detect ./migrations)")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.New(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	res, err := migrate.Up(ctx, pool, migrate.Options{Dir: *dir})
	if err != nil {
		log.Fatal(err)
	}

	slog.Info("migrations done", "dir", res.Dir, "applied", res.AppliedFiles, "skipped", len(res.SkippedFiles))
}
