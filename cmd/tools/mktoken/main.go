package main

import (
	"fmt"
	"log"
	"os"

	"media.local/internal/platform/auth"
	"media.local/internal/platform/config"
)

// 给管理端 API 签发一个 Bearer token（密钥/签发者/有效期走同一份配置）。
func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		log.Fatal("usage: go run ./cmd/tools/mktoken <subject> [role]")
	}
	role := "admin"
	if len(os.Args) == 3 {
		role = os.Args[2]
	}

	cfg := config.Load()
	ts, err := auth.NewHS256Service(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		log.Fatal(err)
	}

	token, err := ts.Sign(os.Args[1], role)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(token)
}
