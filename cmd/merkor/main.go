// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/merkor"
	"github.com/poiesic/merkor/core"
)

// defaultTopRelations is the number of relations top prints without -n.
const defaultTopRelations = 100

const separator = "****************************************************"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "merkor",
		Usage: "Query the MerkOr lexical-semantic resource",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Store backend (redis, badger)",
				Value: merkor.BackendRedis,
			},
			&cli.StringFlag{
				Name:  "redis-addr",
				Usage: "Redis server address",
				Value: merkor.DefaultConfig().RedisAddr,
			},
			&cli.StringFlag{
				Name:  "redis-password",
				Usage: "Redis password",
			},
			&cli.IntFlag{
				Name:  "redis-db",
				Usage: "Logical Redis database number",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to a BadgerDB snapshot directory (selects the badger backend)",
			},
			&cli.StringFlag{
				Name:  "reltypes",
				Usage: "Path to a YAML relation type table",
			},
			&cli.IntFlag{
				Name:  "pool-size",
				Usage: "Number of workers decoding records",
				Value: merkor.DefaultConfig().PoolSize,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "items",
				Usage:     "List the items of a lemma, or of every lemma matching a pattern with * or ?",
				ArgsUsage: "<lemma>",
				Action:    itemsCommand,
			},
			{
				Name:      "relations",
				Usage:     "List the relations of every item of a lemma",
				ArgsUsage: "<lemma>",
				Action:    relationsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "n",
						Usage: "Only the n most related per item",
					},
				},
			},
			{
				Name:      "between",
				Usage:     "List the relations between two lemmas",
				ArgsUsage: "<lemma1> <lemma2>",
				Action:    betweenCommand,
			},
			{
				Name:      "left",
				Usage:     "List relations of a type with a lemma as left item",
				ArgsUsage: "<lemma> <relation>",
				Action:    havingCommand(true),
			},
			{
				Name:      "right",
				Usage:     "List relations of a type with a lemma as right item",
				ArgsUsage: "<lemma> <relation>",
				Action:    havingCommand(false),
			},
			{
				Name:      "top",
				Usage:     "List the most related pairs of a relation type",
				ArgsUsage: "<relation>",
				Action:    topCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "n",
						Usage: "Number of relations",
						Value: defaultTopRelations,
					},
				},
			},
			{
				Name:   "clusters",
				Usage:  "List all cluster names",
				Action: clustersCommand,
			},
			{
				Name:      "cluster",
				Usage:     "Show the cluster with an id",
				ArgsUsage: "<id>",
				Action:    clusterCommand,
			},
			{
				Name:      "clusters-matching",
				Usage:     "List clusters whose name matches a pattern",
				ArgsUsage: "<pattern>",
				Action:    clustersMatchingCommand,
			},
			{
				Name:      "clusters-having",
				Usage:     "List the clusters of every item of a lemma",
				ArgsUsage: "<lemma>",
				Action:    clustersHavingCommand,
			},
			{
				Name:      "domains-having",
				Usage:     "List the domains of every item of a lemma",
				ArgsUsage: "<lemma>",
				Action:    domainsHavingCommand,
			},
			{
				Name:      "cluster-items",
				Usage:     "List the members of a cluster",
				ArgsUsage: "<id>",
				Action:    clusterItemsCommand,
			},
			{
				Name:      "domain-items",
				Usage:     "List the items of a domain",
				ArgsUsage: "<domain>",
				Action:    domainItemsCommand,
			},
		},
	}
}

// config builds the database configuration from the global flags.
func config(c *cli.Context) *merkor.Config {
	cfg := merkor.NewConfig(
		merkor.WithBackend(c.String("backend")),
		merkor.WithRedisAddr(c.String("redis-addr")),
		merkor.WithRedisPassword(c.String("redis-password")),
		merkor.WithRedisDB(c.Int("redis-db")),
		merkor.WithPoolSize(c.Int("pool-size")),
		merkor.WithRelationTypesPath(c.String("reltypes")),
	)
	if path := c.String("db"); path != "" {
		cfg.SnapshotPath = path
		if !c.IsSet("backend") {
			cfg.Backend = merkor.BackendBadger
		}
	}
	return cfg
}

// withDatabase opens the configured database for one query.
func withDatabase(c *cli.Context, fn func(ctx context.Context, db *merkor.Database, out io.Writer) error) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := merkor.NewDatabase(ctx, merkor.WithConfig(config(c)), merkor.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	return fn(ctx, db, c.App.Writer)
}

func args(c *cli.Context, names ...string) ([]string, error) {
	if c.NArg() != len(names) {
		return nil, fmt.Errorf("%s expects %d argument(s): %s", c.Command.Name, len(names), strings.Join(names, " "))
	}
	return c.Args().Slice(), nil
}

func parseID(s string) (core.ID, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cluster id must be a non-negative integer: %q", s)
	}
	return core.ID(id), nil
}

func nothingFound(out io.Writer, c *cli.Context) {
	fmt.Fprintf(out, "nothing found for %s %s\n", c.Command.Name, strings.Join(c.Args().Slice(), " "))
}

func itemsCommand(c *cli.Context) error {
	a, err := args(c, "<lemma>")
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *merkor.Database, out io.Writer) error {
		var items []core.Item
		if strings.ContainsAny(a[0], "*?") {
			items, err = db.Items().ItemsMatching(ctx, a[0])
		} else {
			items, err = db.Items().ItemsForLemma(ctx, a[0])
		}
		if err != nil {
			return err
		}
		if len(items) == 0 {
			nothingFound(out, c)
		}
		for _, it := range items {
			fmt.Fprintln(out, it)
		}
		return nil
	})
}

func relationsCommand(c *cli.Context) error {
	a, err := args(c, "<lemma>")
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *merkor.Database, out io.Writer) error {
		var objects []core.RelationObject
		if c.IsSet("n") {
			objects, err = db.Relations().MostRelatedForLemma(ctx, a[0], c.Int("n"))
		} else {
			objects, err = db.Relations().RelationsForLemma(ctx, a[0])
		}
		if err != nil {
			return err
		}
		if len(objects) == 0 {
			fmt.Fprintf(out, "No relation found for '%s'\n", a[0])
			return nil
		}
		printRelationObjects(out, objects, a[0])
		return nil
	})
}

func betweenCommand(c *cli.Context) error {
	a, err := args(c, "<lemma1>", "<lemma2>")
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *merkor.Database, out io.Writer) error {
		objects, err := db.Relations().RelationsForLemmas(ctx, a[0], a[1])
		if err != nil {
			return err
		}
		if len(objects) == 0 {
			fmt.Fprintf(out, "No relations found for '%s' and '%s'\n", a[0], a[1])
			return nil
		}
		lemma := ""
		if objects[0].Item != nil {
			lemma = objects[0].Item.Lemma
		}
		printRelationObjects(out, objects, lemma)
		return nil
	})
}

func havingCommand(left bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		a, err := args(c, "<lemma>", "<relation>")
		if err != nil {
			return err
		}
		return withDatabase(c, func(ctx context.Context, db *merkor.Database, out io.Writer) error {
			relType, err := db.RelationTypes().Resolve(a[1])
			if err != nil {
				return err
			}
			side := "right"
			query := db.Relations().RelationsHavingRight
			if left {
				side = "left"
				query = db.Relations().RelationsHavingLeft
			}
			rels, err := query(ctx, a[0], &relType)
			if err != nil {
				return err
			}
			if len(rels) == 0 {
				fmt.Fprintf(out, "No relations found having '%s' as %s element and '%s' as relation\n", a[0], side, a[1])
				return nil
			}
			for _, r := range rels {
				fmt.Fprintln(out, r)
			}
			return nil
		})
	}
}

func topCommand(c *cli.Context) error {
	a, err := args(c, "<relation>")
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *merkor.Database, out io.Writer) error {
		relType, err := db.RelationTypes().Resolve(a[0])
		if err != nil {
			return err
		}
		rels, err := db.Relations().TopRelationsByType(ctx, &relType, c.Int("n"))
		if err != nil {
			return err
		}
		if len(rels) == 0 {
			nothingFound(out, c)
		}
		for _, r := range rels {
			fmt.Fprintln(out, r)
		}
		return nil
	})
}

func clustersCommand(c *cli.Context) error {
	return withDatabase(c, func(ctx context.Context, db *merkor.Database, out io.Writer) error {
		names, err := db.Clusters().AllClusterNames(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	})
}

func clusterCommand(c *cli.Context) error {
	a, err := args(c, "<id>")
	if err != nil {
		return err
	}
	id, err := parseID(a[0])
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *merkor.Database, out io.Writer) error {
		cluster, err := db.Clusters().ClusterByID(ctx, id)
		if err != nil {
			return err
		}
		if cluster == nil {
			nothingFound(out, c)
			return nil
		}
		fmt.Fprintln(out, cluster)
		return nil
	})
}

func clustersMatchingCommand(c *cli.Context) error {
	a, err := args(c, "<pattern>")
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *merkor.Database, out io.Writer) error {
		clusters, err := db.Clusters().ClustersMatching(ctx, a[0])
		if err != nil {
			return err
		}
		if len(clusters) == 0 {
			nothingFound(out, c)
		}
		for _, cl := range clusters {
			fmt.Fprintln(out, cl)
		}
		return nil
	})
}

func clustersHavingCommand(c *cli.Context) error {
	a, err := args(c, "<lemma>")
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *merkor.Database, out io.Writer) error {
		members, err := db.Clusters().ClustersForLemma(ctx, a[0])
		if err != nil {
			return err
		}
		if len(members) == 0 {
			nothingFound(out, c)
		}
		for _, m := range members {
			fmt.Fprintln(out, m)
		}
		return nil
	})
}

func domainsHavingCommand(c *cli.Context) error {
	a, err := args(c, "<lemma>")
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *merkor.Database, out io.Writer) error {
		domains, err := db.Clusters().DomainsFor(ctx, a[0])
		if err != nil {
			return err
		}
		if len(domains) == 0 {
			nothingFound(out, c)
		}
		names := make([]string, 0, len(domains))
		for name := range domains {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(out, "domain: %s, %s\n", name, domains[name])
		}
		return nil
	})
}

func clusterItemsCommand(c *cli.Context) error {
	a, err := args(c, "<id>")
	if err != nil {
		return err
	}
	id, err := parseID(a[0])
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *merkor.Database, out io.Writer) error {
		cluster, err := db.Clusters().ClusterByID(ctx, id)
		if err != nil {
			return err
		}
		if cluster == nil {
			nothingFound(out, c)
			return nil
		}
		members, err := db.Clusters().ClusterMembersOf(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d items for %s:\n", len(members), cluster)
		for _, m := range members {
			fmt.Fprintln(out, m)
		}
		return nil
	})
}

func domainItemsCommand(c *cli.Context) error {
	a, err := args(c, "<domain>")
	if err != nil {
		return err
	}
	return withDatabase(c, func(ctx context.Context, db *merkor.Database, out io.Writer) error {
		items, err := db.Clusters().ItemsForDomain(ctx, a[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d items for domain %s:\n", len(items), strings.ToUpper(a[0]))
		for _, it := range items {
			fmt.Fprintln(out, it)
		}
		return nil
	})
}

func printRelationObjects(out io.Writer, objects []core.RelationObject, lemma string) {
	if lemma != "" {
		fmt.Fprintf(out, "%d items found for '%s':\n", len(objects), lemma)
	}
	fmt.Fprintln(out, separator)
	for i, obj := range objects {
		fmt.Fprintf(out, "Item %d:\n", i+1)
		if obj.Item != nil {
			fmt.Fprintln(out, obj.Item)
		}
		fmt.Fprintln(out, "Relations:")
		for _, r := range obj.Relations {
			fmt.Fprintln(out, r)
		}
		fmt.Fprintln(out, separator)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
