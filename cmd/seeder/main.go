package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/poiesic/merkor/core"
	"github.com/poiesic/merkor/seed"
	"github.com/poiesic/merkor/storage"
	"github.com/poiesic/merkor/storage/badger"
	"github.com/poiesic/merkor/storage/redis"
)

var (
	seedFileName  = flag.String("src", "", "lexicon YAML file (default: built-in sample)")
	dbPath        = flag.String("db", "./merkor_db", "BadgerDB snapshot directory to write")
	redisAddr     = flag.String("redis-addr", "", "write to this Redis server instead of a snapshot")
	relationTypes = flag.String("reltypes", "", "relation type table YAML (default: built-in table)")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

type target interface {
	storage.Writer
	Close() error
}

// openTarget opens the Redis server when one is given, the snapshot
// directory otherwise.
func openTarget(ctx context.Context) (target, error) {
	if *redisAddr != "" {
		slog.Info("seeding redis", "addr", *redisAddr)
		return redis.Open(ctx, redis.Options{Addr: *redisAddr})
	}
	slog.Info("seeding snapshot", "path", *dbPath)
	return badger.OpenBackend(*dbPath, false)
}

func loadLexicon() (*seed.Lexicon, error) {
	if *seedFileName != "" {
		return seed.LoadFile(*seedFileName)
	}
	return seed.Sample()
}

func loadRelationTypes() (*core.RelationTypes, error) {
	if *relationTypes != "" {
		return core.LoadRelationTypesFile(*relationTypes)
	}
	return core.DefaultRelationTypes()
}

func main() {
	ctx := context.Background()

	lex, err := loadLexicon()
	if err != nil {
		panic(err)
	}
	types, err := loadRelationTypes()
	if err != nil {
		panic(err)
	}

	w, err := openTarget(ctx)
	if err != nil {
		panic(err)
	}
	defer w.Close()

	if _, err := seed.Write(ctx, w, lex, types, slog.Default()); err != nil {
		panic(err)
	}
}
