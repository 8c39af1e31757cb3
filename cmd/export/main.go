// Command export works with the meal database from the command line: it
// writes the history CSV, and imports meal or family CSV files in the same
// format the cloud sync uses.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"mymeals/internal/config"
	"mymeals/internal/database"
	"mymeals/internal/notify"
	"mymeals/internal/repository"
	"mymeals/internal/store"
	"mymeals/internal/sync"
	"mymeals/internal/tabular"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: meal-history_YYYYMMDD_HHMMSS.csv)")

	// Import flags
	importMeals := importCmd.String("meals", "", "Meals CSV file in the cloud sync format")
	importFamily := importCmd.String("family", "", "Family CSV file in the cloud sync format")
	importReplace := importCmd.Bool("replace", false, "Replace existing data instead of merging")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(database.Options{
		Type: cfg.DatabaseType,
		Path: cfg.DatabasePath,
		URL:  cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	appStore := store.New(db)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(appStore, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importMeals == "" && *importFamily == "" {
			fmt.Println("Error: -meals or -family flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(appStore, *importMeals, *importFamily, *importReplace)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(appStore store.Store, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("meal-history_%s.csv", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	events := notify.NewBroadcaster()
	meals, err := repository.NewMealRepository(appStore, events)
	if err != nil {
		log.Fatalf("Failed to load meals: %v", err)
	}
	family, err := repository.NewFamilyRepository(appStore, events)
	if err != nil {
		log.Fatalf("Failed to load family members: %v", err)
	}

	csv := repository.ExportHistoryCSV(meals.Meals(), family.Members())

	log.Printf("Exporting meal history to: %s", outputPath)
	if err := os.WriteFile(outputPath, []byte(csv), 0644); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	log.Printf("Export complete! %d meals written", len(meals.Meals()))
}

func handleImport(appStore store.Store, mealsPath, familyPath string, replace bool) {
	if mealsPath != "" {
		text, err := os.ReadFile(mealsPath)
		if err != nil {
			log.Fatalf("Failed to read meals file: %v", err)
		}
		imported := tabular.RowsToMeals(tabular.DecodeCSV(string(text)))
		if !replace {
			local, err := appStore.LoadMeals()
			if err != nil {
				log.Fatalf("Failed to load meals: %v", err)
			}
			imported = sync.MergeMeals(local, imported)
		}
		if err := appStore.SaveMeals(imported); err != nil {
			log.Fatalf("Failed to save meals: %v", err)
		}
		log.Printf("Imported %d meals from %s", len(imported), mealsPath)
	}

	if familyPath != "" {
		text, err := os.ReadFile(familyPath)
		if err != nil {
			log.Fatalf("Failed to read family file: %v", err)
		}
		imported := tabular.RowsToMembers(tabular.DecodeCSV(string(text)))
		if !replace {
			local, err := appStore.LoadMembers()
			if err != nil {
				log.Fatalf("Failed to load family members: %v", err)
			}
			imported = sync.MergeMembers(local, imported)
		}
		if err := appStore.SaveMembers(imported); err != nil {
			log.Fatalf("Failed to save family members: %v", err)
		}
		log.Printf("Imported %d family members from %s", len(imported), familyPath)
	}

	log.Println("Import complete!")
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  export export [-output path]                    Write the meal history CSV")
	fmt.Println("  export import [-meals path] [-family path]      Import sync-format CSV files")
	fmt.Println("                [-replace]                        Replace instead of merge")
}
