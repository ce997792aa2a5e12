// Command form4feed ingests a single SEC Form 4 filing, classifies its
// transactions, persists it, and prints the canonical filing as JSON.
//
// Usage:
//
//	form4feed [flags] <source>
//
// The source is either a local file path or an SEC EDGAR archive URL.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	form4 "github.com/tickerlabs/go-form4"
	"github.com/tickerlabs/go-form4/storage/memory"
	"github.com/tickerlabs/go-form4/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		accession = flag.String("accession", "", "Accession number (derived from the URL when omitted)")
		email     = flag.String("email", "", "Contact email for SEC requests (or set SEC_EMAIL)")
		output    = flag.String("o", "", "Output file path (default: stdout)")
		dsn       = flag.String("dsn", "", "PostgreSQL DSN (or set PG_DSN; default: in-memory store)")
		verbose   = flag.Bool("v", false, "Verbose logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file-or-url>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ingest one SEC Form 4 filing and print the classified result as JSON.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("expected exactly one source argument")
	}
	source := flag.Arg(0)

	// Best effort; a missing .env is fine.
	_ = godotenv.Load()

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync()
	}

	isURL := strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")

	var raw []byte
	accessionNumber := *accession

	if isURL {
		contactEmail := *email
		if contactEmail == "" {
			var err error
			contactEmail, err = getSecEmail()
			if err != nil {
				return err
			}
		}

		if accessionNumber == "" {
			derived, err := accessionFromURL(source)
			if err != nil {
				return fmt.Errorf("cannot determine accession number: %w (pass -accession)", err)
			}
			accessionNumber = derived
		}

		fmt.Fprintf(os.Stderr, "Fetching from SEC: %s\n", source)
		var err error
		raw, err = fetchFiling(source, contactEmail)
		if err != nil {
			return fmt.Errorf("failed to fetch filing: %w", err)
		}
	} else {
		if accessionNumber == "" {
			return fmt.Errorf("-accession is required when reading from a file")
		}

		fmt.Fprintf(os.Stderr, "Reading from file: %s\n", source)
		var err error
		raw, err = os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
	}

	ctx := context.Background()

	store, cleanup, err := openStore(ctx, *dsn)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := form4.NewPipeline(store, form4.WithLogger(logger))

	result, err := pipeline.Process(ctx, accessionNumber, raw)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Processed %s: %d transaction(s), %d inserted, %d duplicate(s)\n",
		accessionNumber, len(result.Filing.Transactions), result.Upsert.Inserted, result.Upsert.Duplicates)
	for _, d := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", d.Error())
	}

	jsonData, err := json.MarshalIndent(result.Filing, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal filing: %w", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, jsonData, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output written to: %s\n", *output)
		return nil
	}

	fmt.Println(string(jsonData))
	return nil
}

// openStore selects the persistence backend. With no DSN the in-memory
// store is used, which is enough for one-shot inspection runs.
func openStore(ctx context.Context, dsn string) (form4.FilingStore, func(), error) {
	if dsn == "" {
		dsn = os.Getenv("PG_DSN")
	}
	if dsn == "" {
		return memory.NewFilingStore(), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return postgres.NewFilingStore(pool), pool.Close, nil
}
