package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"meal-plan-assistant/internal/config"
	"meal-plan-assistant/internal/database"
	"meal-plan-assistant/internal/llm"
	"meal-plan-assistant/internal/message"
	"meal-plan-assistant/internal/metrics"
	"meal-plan-assistant/internal/planner"
	"meal-plan-assistant/internal/recipe"
	"meal-plan-assistant/internal/shopping"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	recipeRepo := recipe.NewRepository(db.SQL)
	planRepo := planner.NewPlanRepository(db)
	shoppingRepo := shopping.NewRepository(db)
	metricsStore := metrics.NewStore(db)

	textGen, closeTextGen, err := buildTextGen(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize model client: %v", err)
	}
	defer closeTextGen()

	mealPlanner := planner.New(recipeRepo, planRepo, shoppingRepo,
		planner.WithScoringOracle(planner.NewLLMScorer(textGen, metricsStore)),
		planner.WithRankingOracle(planner.NewLLMRanker(textGen, metricsStore)),
		planner.WithModificationOracle(planner.NewLLMModifier(textGen, metricsStore)),
	)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "import":
		importCmd := flag.NewFlagSet("import", flag.ExitOnError)
		file := importCmd.String("file", "recipes.json", "JSON file with an array of recipes")
		importCmd.Parse(os.Args[2:])
		if err := importRecipes(ctx, recipeRepo, *file); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
	case "plan":
		planCmd := flag.NewFlagSet("plan", flag.ExitOnError)
		count := planCmd.Int("count", 0, "Number of meals (0 = derive from request, default 7)")
		planCmd.Parse(os.Args[2:])
		request := strings.Join(planCmd.Args(), " ")
		if request == "" {
			log.Fatal("plan requires a request, e.g.: plan \"5 quick dinners, no mushrooms\"")
		}

		prefs := message.ParseUserMessage(request, planner.Preferences{})
		requested := *count
		if requested == 0 {
			requested = message.ExtractRequestedCount(request)
		}
		result, err := mealPlanner.CreateMealPlan(ctx, prefs, requested, nil, planner.ModeCreateNew)
		if err != nil {
			log.Fatalf("Plan generation failed: %v", err)
		}
		printPlan(result)
	case "modify":
		modifyCmd := flag.NewFlagSet("modify", flag.ExitOnError)
		planID := modifyCmd.Int64("plan", 0, "Plan id to modify (0 = latest)")
		modifyCmd.Parse(os.Args[2:])
		request := strings.Join(modifyCmd.Args(), " ")
		if request == "" {
			log.Fatal("modify requires a request, e.g.: modify \"replace the chicken with fish\"")
		}

		id, err := resolvePlanID(ctx, planRepo, *planID)
		if err != nil {
			log.Fatal(err)
		}
		result, err := mealPlanner.ReplaceInMealPlan(ctx, id, request)
		if err != nil {
			log.Fatalf("Modification failed: %v", err)
		}
		printPlan(result)
	case "grocery":
		groceryCmd := flag.NewFlagSet("grocery", flag.ExitOnError)
		planID := groceryCmd.Int64("plan", 0, "Plan id (0 = latest)")
		groceryCmd.Parse(os.Args[2:])

		id, err := resolvePlanID(ctx, planRepo, *planID)
		if err != nil {
			log.Fatal(err)
		}
		result, err := mealPlanner.AddToExistingMealPlan(ctx, id)
		if err != nil {
			log.Fatalf("Grocery list generation failed: %v", err)
		}
		for _, item := range result.GroceryList {
			fmt.Println("- " + item)
		}
	case "metrics":
		metricsCmd := flag.NewFlagSet("metrics", flag.ExitOnError)
		days := metricsCmd.Int("days", 7, "Show usage for the last N days")
		metricsCmd.Parse(os.Args[2:])

		usage, err := metricsStore.GetDailyUsage(ctx, *days)
		if err != nil {
			log.Fatalf("Failed to load metrics: %v", err)
		}
		for _, u := range usage {
			fmt.Printf("%s  calls=%d prompt=%d completion=%d\n",
				u.Date, u.TotalExecution, u.TotalPrompt, u.TotalCompletion)
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := metricsStore.Cleanup(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// buildTextGen prefers Groq and falls back to Gemini; config guarantees at
// least one key is present.
func buildTextGen(ctx context.Context, cfg *config.Config) (llm.TextGenerator, func(), error) {
	if cfg.GroqAPIKey != "" {
		return llm.NewGroqClient(cfg, llm.DefaultGroqModel, 0.3), func() {}, nil
	}
	gemini, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if c, ok := gemini.(llm.Closer); ok {
			c.Close()
		}
	}
	return gemini, closeFn, nil
}

func importRecipes(ctx context.Context, repo *recipe.Repository, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var recipes []recipe.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, r := range recipes {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if err := repo.Save(ctx, r); err != nil {
			return fmt.Errorf("saving %q: %w", r.Name, err)
		}
	}
	fmt.Printf("Imported %d recipes from %s\n", len(recipes), path)
	return nil
}

func resolvePlanID(ctx context.Context, repo *planner.PlanRepository, planID int64) (int64, error) {
	if planID > 0 {
		return planID, nil
	}
	latest, err := repo.Latest(ctx)
	if err != nil {
		return 0, err
	}
	if latest == nil {
		return 0, fmt.Errorf("no meal plans exist yet, run the plan command first")
	}
	return latest.ID, nil
}

func printPlan(result *planner.PlanResult) {
	fmt.Printf("Meal plan #%d\n", result.ID)
	for _, m := range result.Meals {
		fmt.Printf("  %-10s %-10s %s\n", m.DayOfWeek, m.MealType, m.Recipe.Name)
	}
	if result.Reasoning != "" {
		fmt.Println("\n" + result.Reasoning)
	}
	if len(result.GroceryList) > 0 {
		fmt.Println("\nGrocery list:")
		for _, item := range result.GroceryList {
			fmt.Println("  - " + item)
		}
	}
}

func printUsage() {
	fmt.Println("Usage: meal-plan-assistant <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  import           Import recipes from a JSON file into the database")
	fmt.Println("  plan             Generate a meal plan from a free-text request")
	fmt.Println("  modify           Apply a free-text change to an existing plan")
	fmt.Println("  grocery          Print the grocery list for a plan")
	fmt.Println("  metrics          Show oracle token usage per day")
	fmt.Println("  metrics-cleanup  Remove old metric records")
}
