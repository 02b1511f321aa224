package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/LimitAL/cafemaker-web/internal/config"
	"github.com/LimitAL/cafemaker-web/internal/database"
	"github.com/LimitAL/cafemaker-web/internal/services/analytics"
	"github.com/LimitAL/cafemaker-web/internal/services/companion"
	"github.com/LimitAL/cafemaker-web/internal/services/discord"
	"github.com/LimitAL/cafemaker-web/internal/services/market"
	"github.com/LimitAL/cafemaker-web/internal/services/names"
	"github.com/LimitAL/cafemaker-web/internal/services/tokens"
	"github.com/LimitAL/cafemaker-web/internal/services/updater"
	"github.com/joho/godotenv"
)

var (
	priority = flag.Int("priority", 0, "item priority bucket to process")
	queue    = flag.Int("queue", 0, "queue partition index; concurrent workers need distinct (priority, queue) pairs")
	manual   = flag.Bool("manual", false, "process manually flagged items instead of the priority rotation")
	servers  = flag.String("servers", "", "comma-separated world filter, empty = all worlds with a token")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	var serverFilter []string
	if *servers != "" {
		for _, s := range strings.Split(*servers, ",") {
			if s = strings.TrimSpace(s); s != "" {
				serverFilter = append(serverFilter, s)
			}
		}
	}

	alerts := discord.NewWebhook(cfg.DiscordWebhookURL, cfg.Updater.AlertCooldown)
	ga := analytics.NewClient(cfg.GAPropertyID)
	tracker := updater.NewTracker(db, alerts, ga, cfg.Updater.ErrorThreshold, cfg.Updater.ExceptionLookback)

	u := updater.New(
		db,
		cfg.Updater,
		market.NewStore(db),
		names.NewResolver(db),
		tokens.NewManager(db),
		companion.NewClient(cfg.CompanionBaseURL),
		tracker,
		ga,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("[auto-update] starting run: priority=%d queue=%d manual=%v servers=%v", *priority, *queue, *manual, serverFilter)

	err = u.Update(ctx, *priority, *queue, *manual, serverFilter)
	if errors.Is(err, updater.ErrBreakerTripped) {
		// the only non-zero exit: the cron wrapper watches for it
		os.Exit(1)
	}
	if err != nil {
		log.Printf("[auto-update] run failed: %v", err)
	}
}
