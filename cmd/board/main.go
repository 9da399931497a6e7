package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/snooker-cafe/board"
	"github.com/yeremiapane/snooker-cafe/utils"
)

func main() {
	_ = godotenv.Load()

	api := os.Getenv("BOARD_API")
	if api == "" {
		api = "http://localhost:8080"
	}
	id := os.Getenv("BOARD_ID")
	if id == "" {
		id, _ = os.Hostname()
	}
	flag.StringVar(&api, "api", api, "backend base URL")
	flag.StringVar(&id, "id", id, "dashboard id sent with every edit")
	pollEvery := flag.Duration("poll", 5*time.Second, "how often to fetch sessions")
	tickEvery := flag.Duration("tick", time.Second, "how often to redraw")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if id == "" {
		utils.ErrorLogger.Fatal("A dashboard id is required (-id or BOARD_ID)")
	}
	b := board.New(board.NewClient(api, 5*time.Second), id)
	if err := b.Poll(ctx); err != nil {
		utils.ErrorLogger.Fatalf("Initial poll of %s failed: %v", api, err)
	}

	poll := time.NewTicker(*pollEvery)
	defer poll.Stop()
	tick := time.NewTicker(*tickEvery)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			utils.InfoLogger.Println("Board stopped")
			return
		case <-poll.C:
			if err := b.Poll(ctx); err != nil {
				utils.ErrorLogger.Printf("Poll failed: %v", err)
			}
		case now := <-tick.C:
			for _, s := range b.Tick(now) {
				utils.InfoLogger.WithField("session", s.SessionID).
					Printf("Time up on %s, total %.2f", s.TableName, s.Estimate.GrandTotal)
			}
			fmt.Print("\033[H\033[2J")
			fmt.Printf("%s  %s\n\n", now.Format("15:04:05"), api)
			if err := b.Render(os.Stdout); err != nil {
				utils.ErrorLogger.Printf("Render failed: %v", err)
			}
		}
	}
}
