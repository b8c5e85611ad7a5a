package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/uluckystar/teachhelper/internal/ai"
	"github.com/uluckystar/teachhelper/internal/auth"
	"github.com/uluckystar/teachhelper/internal/bank"
	"github.com/uluckystar/teachhelper/internal/config"
	"github.com/uluckystar/teachhelper/internal/db"
	"github.com/uluckystar/teachhelper/internal/extract"
	"github.com/uluckystar/teachhelper/internal/importer"
	"github.com/uluckystar/teachhelper/internal/inference"
	"github.com/uluckystar/teachhelper/internal/segment"
	"github.com/uluckystar/teachhelper/internal/storage"
)

func main() {
	var (
		examID  = flag.String("exam", "", "target exam id (required)")
		bankID  = flag.String("bank", "", "question bank id for lookups and creates")
		actorID = flag.String("as", "importd", "acting user id")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()
	if *examID == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: importd -exam <id> [-bank <id>] [-as <user>] <folder-or-zip>")
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()
	store := bank.NewSQLStore(dbh)

	var completer ai.Completer
	if cfg.AIAPIKey != "" {
		completer = ai.New(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, cfg.AITimeout)
	}

	pipeline := extract.NewPipeline(
		extract.WithConverter(extract.NewConverter(cfg.SofficePath, cfg.ConvertTimeout)),
		extract.WithLogger(logger),
	)
	engine := segment.NewEngine(segment.WithLogger(logger))
	inf := inference.NewInferencer(inference.WithCompleter(completer), inference.WithLogger(logger))
	resolver := bank.NewResolver(store, bank.ResolverConfig{
		Threshold:       cfg.MatchThreshold,
		DirectThreshold: cfg.DirectThreshold,
		Weights:         bank.SimilarityWeights{Keyword: cfg.KeywordWeight, Edit: cfg.EditWeight},
		MaxCandidates:   20,
		SearchPrefix:    30,
	}, logger)

	opts := []importer.Option{
		importer.WithWorkers(cfg.ImportWorkers),
		importer.WithCompleter(completer),
		importer.WithLogger(logger),
	}
	if cfg.ArchiveDir != "" {
		blobs, err := storage.NewFSStore(cfg.ArchiveDir)
		if err != nil {
			log.Fatalf("archive store: %v", err)
		}
		opts = append(opts, importer.WithBlobStore(blobs))
	}
	orch := importer.New(store, pipeline, engine, inf, resolver, opts...)

	docs, err := loadInput(flag.Arg(0))
	if err != nil {
		log.Fatalf("load input: %v", err)
	}
	if len(docs) == 0 {
		log.Fatalf("no documents found in %s", flag.Arg(0))
	}

	runCtx := auth.WithActor(context.Background(), auth.Actor{ID: *actorID, Name: *actorID})
	out, err := orch.ImportBatch(runCtx, *examID, *bankID, docs)
	if err != nil {
		log.Fatalf("import aborted: %v", err)
	}

	fmt.Println(out.Summary)
	for _, d := range out.Details {
		status := "ok"
		if !d.Success {
			status = "FAIL " + d.Error
		}
		fmt.Printf("%-40s %s (%s) %s\n", d.Filename, d.StudentNumber, d.ParseMethod, status)
	}
	if out.Failed > 0 {
		os.Exit(1)
	}
}

func loadInput(path string) ([]extract.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return importer.LoadDir(path)
	}
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return importer.ExpandArchive(data, filepath.Base(path), true)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []extract.RawDocument{{Path: path, Filename: filepath.Base(path), Data: data}}, nil
}
