package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"booktracker/internal/config"
	"booktracker/internal/enrich"
	"booktracker/internal/openlibrary"
	"booktracker/internal/repository"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"
)

// Constructors behind vars so tests can swap in fakes.
var (
	newCatalogClient = func() *openlibrary.Client {
		return openlibrary.New(openlibrary.Options{})
	}
	newStore = func() (repository.Store, error) {
		store := repository.NewSQLiteStore(viper.GetString("books.dbfile"))
		if err := store.Connect(); err != nil {
			return nil, err
		}
		return store, nil
	}
	newGenerator = func() enrich.Generator {
		return enrich.NewGemini()
	}
)

// CLI represents the complete command structure for the booktracker application
type CLI struct {
	// Global flags
	UpdateCovers bool `help:"Re-download cover images even if they already exist"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)" default:"720h"`

	// Collection database
	DBFile string `help:"Path to the book collection SQLite database" default:"./books.db"`

	Search   SearchCmd   `cmd:"" help:"Search the catalog for works"`
	Editions EditionsCmd `cmd:"" help:"List English editions of a work, oldest first"`
	Enrich   EnrichCmd   `cmd:"" help:"Resolve and merge metadata for a book"`
	Add      AddCmd      `cmd:"" help:"Enrich a book and add it to the collection"`
	Import   ImportCmd   `cmd:"" help:"Bulk-import books from a CSV file"`
	Backfill BackfillCmd `cmd:"" help:"Fill in missing data on existing books"`
}

// SearchCmd searches the catalog by title and author.
type SearchCmd struct {
	Title  string `short:"t" help:"Book title to search for" required:""`
	Author string `short:"a" help:"Author name to narrow the search"`
	Limit  int    `short:"n" help:"Maximum number of results" default:"5"`
}

// EditionsCmd lists the English-language editions of one work.
type EditionsCmd struct {
	Work  string `short:"w" help:"Work identifier (e.g. OL893415W)" required:""`
	Limit int    `short:"n" help:"Maximum number of editions" default:"10"`
}

// EnrichCmd resolves metadata for one book and prints the merged result.
type EnrichCmd struct {
	Title  string `short:"t" help:"Book title" required:""`
	Author string `short:"a" help:"Author name"`
	ISBN   string `short:"i" help:"ISBN to resolve catalog data with"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("booktracker"),
		kong.Description("A tool to resolve, enrich and store book metadata."),
		kong.UsageOnError(),
	)

	updateGlobalConfig(&cli)

	if err := ctx.Run(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	// Cache defaults
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h") // 30 days

	// Collection database default
	viper.SetDefault("books.dbfile", "./books.db")

	// Enable environment variable support
	viper.AutomaticEnv()
	if err := viper.BindEnv("gemini.apikey", "GEMINI_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file...")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
			os.Exit(0)
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	config.SetUpdateCovers(cli.UpdateCovers)

	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("cache.ttl", cli.CacheTTL)
	viper.Set("books.dbfile", cli.DBFile)
}

func (s *SearchCmd) Run() error {
	client := newCatalogClient()
	works := client.Search(context.Background(), s.Title, s.Author, s.Limit)
	if len(works) == 0 {
		fmt.Println("No works found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WORK\tTITLE\tAUTHOR\tFIRST PUBLISHED\tEDITIONS")
	for _, work := range works {
		year := ""
		if work.FirstPublishYear > 0 {
			year = fmt.Sprintf("%d", work.FirstPublishYear)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			work.ID, work.Title, work.AuthorDisplay, year, work.EditionCount)
	}
	return w.Flush()
}

func (e *EditionsCmd) Run() error {
	client := newCatalogClient()
	editions := client.FetchEditions(context.Background(), e.Work, e.Limit)
	if len(editions) == 0 {
		fmt.Println("No English editions found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tPUBLISHER\tPUBLISHED\tPAGES\tISBN")
	for _, ed := range editions {
		pages := ""
		if ed.Pages > 0 {
			pages = fmt.Sprintf("%d", ed.Pages)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			ed.Title, ed.Publisher, ed.PublishDate, pages, ed.ISBN)
	}
	return w.Flush()
}

func (e *EnrichCmd) Run() error {
	engine := enrich.New(enrich.Options{
		Catalog:   newCatalogClient(),
		Generator: newGenerator(),
		UseCache:  true,
	})

	result := engine.Enrich(context.Background(), e.Title, e.Author, normalizeISBN(e.ISBN), enrich.Metadata{})

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render metadata: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func initLogging() {
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: slog.LevelInfo,
	})

	slog.SetDefault(slog.New(handler))
}
