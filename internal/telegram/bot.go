// Package telegram is the chat front end: it receives webhook updates,
// routes each message through the intent heuristics, and drives the planner
// accordingly.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"meal-plan-assistant/internal/config"
	"meal-plan-assistant/internal/message"
	"meal-plan-assistant/internal/metrics"
	"meal-plan-assistant/internal/planner"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// errNoPlanIntent means the message carried no recognizable meal-plan
// request; the bot answers with usage help instead of an error.
var errNoPlanIntent = errors.New("no meal plan intent detected")

// Bot wraps the Telegram API, the planner service and session state.
type Bot struct {
	api          *tgbotapi.BotAPI
	planner      *planner.Planner
	sessions     *SessionRepository
	prefOracle   planner.PreferenceOracle
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the webhook.
func NewBot(
	cfg *config.Config,
	mealPlanner *planner.Planner,
	sessions *SessionRepository,
	prefOracle planner.PreferenceOracle,
	metricsStore *metrics.Store,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		planner:      mealPlanner,
		sessions:     sessions,
		prefOracle:   prefOracle,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}
	if update.Message == nil {
		return
	}

	isAllowed := false
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if update.Message.From.ID == id {
			isAllowed = true
			break
		}
	}
	if !isAllowed {
		log.Printf("unauthorized access attempt from UserID: %d (@%s)",
			update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	if msg.Text == "/metrics" {
		b.handleMetricsCommand(msg.Chat.ID)
		return
	}
	if msg.Text == "/start" {
		b.send(msg.Chat.ID, "👋 Tell me what you'd like to eat this week — for example \"5 quick vegetarian dinners, no mushrooms\".")
		return
	}
	b.handlePlannerRequest(msg)
}

func (b *Bot) handlePlannerRequest(msg *tgbotapi.Message) {
	statusText := "🧑‍🍳 *Thinking...* \n(Analyzing recipes and generating your plan)"
	replyMsg := tgbotapi.NewMessage(msg.Chat.ID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx := context.Background()
	result, err := b.respondToMessage(ctx, msg.From.ID, msg.Text)

	var finalText string
	if errors.Is(err, errNoPlanIntent) {
		finalText = "🤔 Tell me what you'd like to eat and I'll plan your week — for example \"5 quick dinners, no mushrooms\"."
	} else if err != nil {
		log.Printf("Error handling request %q: %v", msg.Text, err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Something went wrong:*\n```\n%v\n```", safeErr)
	} else {
		finalText = formatPlanReply(result)
	}

	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sentMsg.MessageID, finalText)
	edit.ParseMode = "Markdown"
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Failed to send plan reply: %v", err)
	}
}

// respondToMessage is the conversation state machine: parse preferences,
// decide between new plan / modify / extend, run the planner, and store the
// resulting session.
func (b *Bot) respondToMessage(ctx context.Context, userID int64, text string) (*planner.PlanResult, error) {
	session, err := b.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	var current planner.Preferences
	activePlanID := int64(0)
	if session != nil {
		current = planner.SafeParsePreferences(session.Preferences)
		if session.MealPlanID.Valid {
			activePlanID = session.MealPlanID.Int64
		}
	}
	isFirstMessage := session == nil || activePlanID == 0

	prefs := b.parsePreferences(ctx, text, current)
	requestedCount := message.ExtractRequestedCount(text)

	var result *planner.PlanResult
	switch {
	case !isFirstMessage && message.WantsNewPlan(text):
		result, err = b.planner.CreateMealPlan(ctx, prefs, requestedCount, nil, planner.ModeCreateNew)
	case !isFirstMessage && message.ShouldAddToExistingMealPlan(text):
		addCounts := message.ExtractAddProteinCounts(text)
		if tag := message.BuildRequireProteinCountsTag(addCounts); tag != "" {
			prefs.SpecialRequests = strings.TrimPrefix(prefs.SpecialRequests+", "+tag, ", ")
		}
		count := requestedCount
		if count == 0 {
			count = countTotal(addCounts)
		}
		if count == 0 {
			count = 1
		}
		result, err = b.planner.ExtendMealPlan(ctx, activePlanID, prefs, count)
	case !isFirstMessage && message.ShouldModifyExistingMealPlan(text):
		result, err = b.planner.ReplaceInMealPlan(ctx, activePlanID, text)
	case message.ShouldGenerateMealPlan(text, isFirstMessage):
		result, err = b.planner.CreateMealPlan(ctx, prefs, requestedCount, nil, planner.ModeCreateNew)
	default:
		return nil, errNoPlanIntent
	}
	if err != nil {
		return nil, err
	}

	prefsJSON, jsonErr := json.Marshal(prefs)
	if jsonErr != nil {
		return nil, fmt.Errorf("encoding session preferences: %w", jsonErr)
	}
	if err := b.sessions.Upsert(ctx, userID, result.ID, string(prefsJSON)); err != nil {
		return nil, err
	}
	return result, nil
}

// parsePreferences prefers the model-backed parser and falls back to the
// regex heuristics when it is absent or fails.
func (b *Bot) parsePreferences(ctx context.Context, text string, current planner.Preferences) planner.Preferences {
	if b.prefOracle != nil {
		prefs, err := b.prefOracle.ParsePreferences(ctx, text)
		if err == nil {
			// Carry over categories the model left empty.
			merged := message.ParseUserMessage(text, current)
			if len(prefs.DietaryRestrictions) == 0 {
				prefs.DietaryRestrictions = merged.DietaryRestrictions
			}
			if len(prefs.CuisinePreferences) == 0 {
				prefs.CuisinePreferences = merged.CuisinePreferences
			}
			if prefs.CookingTime == "" {
				prefs.CookingTime = merged.CookingTime
			}
			if prefs.Difficulty == "" {
				prefs.Difficulty = merged.Difficulty
			}
			if prefs.ServingSize == 0 {
				prefs.ServingSize = merged.ServingSize
			}
			if prefs.SpecialRequests == "" {
				prefs.SpecialRequests = merged.SpecialRequests
			}
			prefs.MealTypes = []string{"dinner"}
			return prefs
		}
		log.Printf("preference oracle failed, using parser: %v", err)
	}
	return message.ParseUserMessage(text, current)
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	usage, err := b.metricsStore.GetDailyUsage(context.Background(), 7)
	if err != nil {
		b.send(chatID, fmt.Sprintf("❌ Failed to load metrics: %v", err))
		return
	}
	if len(usage) == 0 {
		b.send(chatID, "No oracle calls recorded in the last 7 days.")
		return
	}
	var sb strings.Builder
	sb.WriteString("📊 *Oracle usage (last 7 days)*\n")
	for _, u := range usage {
		fmt.Fprintf(&sb, "`%s` — %d calls, %d prompt / %d completion tokens\n",
			u.Date, u.TotalExecution, u.TotalPrompt, u.TotalCompletion)
	}
	b.send(chatID, sb.String())
}

func (b *Bot) send(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = "Markdown"
	if _, err := b.api.Send(m); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func formatPlanReply(result *planner.PlanResult) string {
	var sb strings.Builder
	sb.WriteString("🍽️ *Your meal plan*\n\n")
	for _, m := range result.Meals {
		fmt.Fprintf(&sb, "*%s* (%s): %s\n", m.DayOfWeek, m.MealType, m.Recipe.Name)
	}
	if len(result.GroceryList) > 0 {
		sb.WriteString("\n🛒 *Grocery list*\n")
		for _, item := range result.GroceryList {
			fmt.Fprintf(&sb, "• %s\n", item)
		}
	}
	return sb.String()
}

func countTotal(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
