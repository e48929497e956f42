package templink

import (
	"sync"

	"github.com/sqids/sqids-go"
)

var (
	sq   *sqids.Sqids
	once sync.Once
)

func getSqids() *sqids.Sqids {
	once.Do(func() {
		var err error
		sq, err = sqids.New(sqids.Options{
			Alphabet:  "T4jWm2yVpNdKxq8eR0cZBUEnAfbF9tXazYJ6kCuMHihLo7GgwQS5sDrvO31PlI",
			MinLength: 4,
		})
		if err != nil {
			panic("sqids init failed: " + err.Error())
		}
	})
	return sq
}

// AliasEncode 把数据库自增 id 编码成对外的短别名（管理端 API 用）。
func AliasEncode(id uint64) (string, error) {
	return getSqids().Encode([]uint64{id})
}
