// Command indexer embeds the medical corpus and writes it into the configured vector index.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/medibot/backend/internal/config"
	"github.com/zhouzirui/medibot/backend/internal/database"
	"github.com/zhouzirui/medibot/backend/internal/model/knowledge"
	"github.com/zhouzirui/medibot/backend/internal/service/retrieval"
)

// rebuilder is implemented by the persistent indexes.
type rebuilder interface {
	Rebuild(ctx context.Context, embedder retrieval.Embedder, entries []knowledge.Entry) (int, error)
}

var (
	success = color.New(color.FgGreen).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
	failure = color.New(color.FgRed, color.Bold).SprintFunc()
)

func fail(format string, args ...any) {
	fmt.Fprintln(os.Stderr, failure("✗ "+fmt.Sprintf(format, args...)))
	os.Exit(1)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fail("failed to load configuration: %v", err)
	}

	backend := flag.String("backend", cfg.Retrieval.Backend, "target index: qdrant or pgvector")
	corpusPath := flag.String("corpus", cfg.Retrieval.CorpusPath, "YAML corpus file")
	dryRun := flag.Bool("dry-run", false, "parse the corpus and stop")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	entries, err := retrieval.LoadCorpus(*corpusPath)
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("%s loaded %d passages from %s\n", success("✓"), len(entries), *corpusPath)
	if *dryRun {
		return
	}

	embedder, closeEmbedder, err := retrieval.NewEmbedderFromConfig(cfg.Retrieval)
	if err != nil {
		fail("failed to create embedder: %v", err)
	}
	defer closeEmbedder()

	var (
		target rebuilder
		db     *sql.DB
	)
	switch *backend {
	case config.RetrievalQdrant:
		index, err := retrieval.NewQdrantIndex(cfg.Retrieval.QdrantHost, cfg.Retrieval.QdrantPort, cfg.Retrieval.Collection)
		if err != nil {
			fail("failed to connect to qdrant: %v", err)
		}
		defer index.Close()
		target = index
		fmt.Printf("%s qdrant %s:%d collection %s\n", success("✓"), cfg.Retrieval.QdrantHost, cfg.Retrieval.QdrantPort, cfg.Retrieval.Collection)
	case config.RetrievalPGVector:
		if cfg.Database.DSN == "" {
			fail("pgvector backend requires DATABASE_URL")
		}
		db, err = database.Open(ctx, cfg.Database.DSN)
		if err != nil {
			fail("%v", err)
		}
		defer db.Close()
		target = retrieval.NewPGVectorIndex(db)
		fmt.Printf("%s connected to postgres\n", success("✓"))
	default:
		fmt.Println(warning("! the memory backend is built at server startup, nothing to index"))
		return
	}

	start := time.Now()
	count, err := target.Rebuild(ctx, embedder, entries)
	if err != nil {
		fail("indexing failed: %v", err)
	}
	fmt.Printf("%s indexed %d passages in %s\n", success("✓"), count, time.Since(start).Round(time.Millisecond))
}
