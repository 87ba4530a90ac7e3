// Package undercroft parses command flags and runs the console challenge
// loop.
package undercroft

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/haverlock/undercroft/internal/challenge/domain"
	"github.com/haverlock/undercroft/internal/challenge/eval"
	"github.com/haverlock/undercroft/internal/challenge/service"
	sqlitestore "github.com/haverlock/undercroft/internal/challenge/storage/sqlite"
	"github.com/haverlock/undercroft/internal/game"
	"github.com/haverlock/undercroft/internal/llm"
	"github.com/haverlock/undercroft/internal/platform/config"
	"github.com/haverlock/undercroft/internal/platform/otel"
	"github.com/haverlock/undercroft/internal/platform/timeouts"
)

// Config holds undercroft command configuration.
type Config struct {
	LLMEndpoint     string  `env:"UNDERCROFT_LLM_ENDPOINT" envDefault:"http://localhost:8080/v1/chat/completions"`
	LLMModel        string  `env:"UNDERCROFT_LLM_MODEL" envDefault:"local"`
	LLMTemperature  float64 `env:"UNDERCROFT_LLM_TEMPERATURE" envDefault:"0.7"`
	LLMMaxRetries   int     `env:"UNDERCROFT_LLM_MAX_RETRIES" envDefault:"3"`
	ModelEvaluation bool    `env:"UNDERCROFT_LLM_EVALUATION" envDefault:"true"`
	RulesScript     string  `env:"UNDERCROFT_RULES_SCRIPT"`
	DBPath          string  `env:"UNDERCROFT_DB_PATH" envDefault:"undercroft.db"`
	Difficulty      string  `env:"UNDERCROFT_DIFFICULTY" envDefault:"Medium"`
	PlayerName      string  `env:"UNDERCROFT_PLAYER" envDefault:"Adventurer"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.LLMEndpoint, "llm-endpoint", cfg.LLMEndpoint, "Chat-completions endpoint URL")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.Difficulty, "difficulty", cfg.Difficulty, "Game difficulty (Easy/Medium/Hard/Ultra)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the challenge loop on stdin/stdout.
func Run(ctx context.Context, cfg Config) error {
	return run(ctx, cfg, os.Stdin, os.Stdout)
}

func run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	shutdown, err := otel.Setup(ctx, "undercroft")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("event=tracing_shutdown_failed err=%q", err)
		}
	}()

	difficulty, err := game.ParseDifficulty(cfg.Difficulty)
	if err != nil {
		return fmt.Errorf("parse difficulty %q: %w", cfg.Difficulty, err)
	}

	store, err := sqlitestore.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	session := &game.State{
		Difficulty:  difficulty,
		Player:      game.NewPlayer(cfg.PlayerName),
		CurrentRoom: startingRoom(),
	}

	opts := service.Options{
		Boundary: llm.NewClient(llm.Config{
			Endpoint:    cfg.LLMEndpoint,
			Model:       cfg.LLMModel,
			Temperature: cfg.LLMTemperature,
			MaxRetries:  cfg.LLMMaxRetries,
		}),
		Session:            session,
		Store:              store,
		UseModelEvaluation: cfg.ModelEvaluation,
	}
	if cfg.RulesScript != "" {
		opts.Rules = eval.NewScriptRules(cfg.RulesScript)
	}
	orchestrator, err := service.New(opts)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	if restored, result, err := orchestrator.Load(ctx); err != nil {
		log.Printf("event=restore_failed err=%q", err)
	} else if restored != nil {
		remaining, _ := orchestrator.Remaining()
		fmt.Fprintf(out, "A challenge awaits you still. %s left.\n\n%s\n", remaining.Round(time.Second), restored.Prompt)
	} else if result != nil {
		fmt.Fprintf(out, "Your saved challenge expired while you were away. You take %d damage.\n", result.DamageTaken)
	}

	fmt.Fprintf(out, "You descend into %s. Type 'help' for commands.\n", session.CurrentRoom.Name)
	return loop(ctx, orchestrator, session, in, out)
}

func loop(ctx context.Context, orchestrator *service.Service, session *game.State, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		command, rest, _ := strings.Cut(line, " ")

		switch strings.ToLower(command) {
		case "quit", "exit":
			return nil
		case "help":
			printHelp(out)
		case "status":
			printStatus(out, orchestrator, session)
		case "challenge":
			doInitiate(ctx, out, orchestrator, session, rest)
		case "answer":
			doAnswer(ctx, out, orchestrator, rest)
		case "hint":
			doHint(ctx, out, orchestrator, rest)
		case "abort":
			doAbort(ctx, out, orchestrator)
		case "save":
			if err := orchestrator.Save(ctx); err != nil {
				fmt.Fprintf(out, "Nothing was saved: %v\n", err)
			} else {
				fmt.Fprintln(out, "Challenge saved.")
			}
		default:
			fmt.Fprintf(out, "Unknown command %q. Type 'help'.\n", command)
		}

		if !session.Player.Alive() {
			fmt.Fprintln(out, "You have fallen. The undercroft claims another.")
			return nil
		}
	}
}

func doInitiate(ctx context.Context, out io.Writer, orchestrator *service.Service, session *game.State, rest string) {
	typ := domain.TypeUnspecified
	if rest != "" {
		parsed, err := domain.ParseType(rest)
		if err != nil {
			fmt.Fprintf(out, "Unknown challenge type %q.\n", rest)
			return
		}
		typ = parsed
	}

	challenge, err := orchestrator.Initiate(ctx, session.CurrentRoom, typ)
	switch {
	case errors.Is(err, service.ErrChallengeActive):
		fmt.Fprintln(out, "You are already mid-challenge. Answer it or abort.")
	case errors.Is(err, service.ErrServiceUnavailable):
		fmt.Fprintln(out, "The voices of the deep are silent. Try again shortly.")
	case errors.Is(err, service.ErrGenerationFailed):
		fmt.Fprintln(out, "The challenge failed to take shape. Try again.")
	case err != nil:
		fmt.Fprintf(out, "Something went wrong: %v\n", err)
	default:
		fmt.Fprintf(out, "[%s, %s] %s\n", challenge.Type, challenge.Difficulty, challenge.Prompt)
		fmt.Fprintf(out, "You have %s and %d attempts.\n", challenge.TimeLimit, challenge.MaxAttempts)
	}
}

func doAnswer(ctx context.Context, out io.Writer, orchestrator *service.Service, text string) {
	if text == "" {
		fmt.Fprintln(out, "Answer what, exactly? Usage: answer <text>")
		return
	}
	result, err := orchestrator.SubmitResponse(ctx, text)
	switch {
	case errors.Is(err, service.ErrChallengeNotActive):
		fmt.Fprintln(out, "There is no challenge before you.")
	case errors.Is(err, service.ErrServiceUnavailable):
		fmt.Fprintln(out, "Your answer hangs unheard. Try again shortly.")
	case err != nil:
		fmt.Fprintf(out, "Something went wrong: %v\n", err)
	case result.Success:
		fmt.Fprintf(out, "%s\nYou gain %d XP.\n", result.Feedback, result.XPAwarded)
		for _, item := range result.Items {
			fmt.Fprintf(out, "You found: %s — %s\n", item.Name, item.Description)
		}
	case result.DamageTaken > 0:
		fmt.Fprintf(out, "%s\nYou take %d damage.\n", result.Feedback, result.DamageTaken)
	default:
		fmt.Fprintf(out, "%s\nTry again.\n", result.Feedback)
	}
}

func doHint(ctx context.Context, out io.Writer, orchestrator *service.Service, rest string) {
	level := 1
	if rest != "" {
		parsed, err := strconv.Atoi(rest)
		if err != nil {
			fmt.Fprintln(out, "Usage: hint <1-3>")
			return
		}
		level = parsed
	}
	offer, err := orchestrator.RequestHint(ctx, level)
	switch {
	case errors.Is(err, service.ErrChallengeNotActive):
		fmt.Fprintln(out, "There is no challenge before you.")
	case errors.Is(err, service.ErrHintsDisabled):
		fmt.Fprintln(out, "No hints at this difficulty. You are on your own.")
	case errors.Is(err, service.ErrServiceUnavailable):
		fmt.Fprintln(out, "No hint comes. Try again shortly.")
	case err != nil:
		fmt.Fprintf(out, "Something went wrong: %v\n", err)
	default:
		fmt.Fprintf(out, "Hint (cost %.0f XP): %s\n", offer.Cost, offer.Text)
	}
}

func doAbort(ctx context.Context, out io.Writer, orchestrator *service.Service) {
	result, err := orchestrator.Abort(ctx)
	switch {
	case errors.Is(err, service.ErrChallengeNotActive):
		fmt.Fprintln(out, "There is nothing to walk away from.")
	case err != nil:
		fmt.Fprintf(out, "Something went wrong: %v\n", err)
	default:
		fmt.Fprintf(out, "You back away. The failure costs you %d health.\n", result.DamageTaken)
	}
}

func printStatus(out io.Writer, orchestrator *service.Service, session *game.State) {
	player := session.Player
	fmt.Fprintf(out, "%s — level %d, %d/%d HP, %d XP\n", player.Name, player.Level, player.Health, player.MaxHealth, player.XP)
	if active := orchestrator.Active(); active != nil {
		remaining, err := orchestrator.Remaining()
		if err == nil {
			fmt.Fprintf(out, "Active %s challenge: %s left, %d attempts remaining.\n",
				active.Type, remaining.Round(time.Second), active.AttemptsRemaining)
		}
	} else {
		fmt.Fprintln(out, "No active challenge.")
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  challenge [type]  face a new challenge (type defaults by room)")
	fmt.Fprintln(out, "  answer <text>     submit an answer")
	fmt.Fprintln(out, "  hint [1-3]        ask for a hint (costs XP and reward)")
	fmt.Fprintln(out, "  abort             give up the current challenge")
	fmt.Fprintln(out, "  save              save the current challenge")
	fmt.Fprintln(out, "  status            show player and challenge state")
	fmt.Fprintln(out, "  quit              leave the undercroft")
}

// startingRoom stages the entry chamber. Map generation is a separate
// concern; the loop only needs one room to anchor context building.
func startingRoom() *game.Room {
	return &game.Room{
		Name:        "Threshold of the Undercroft",
		Description: "A broken stair descends into fungal dark. Somewhere below, water moves.",
		Category:    game.RoomOrdinary,
		Item: &game.Item{
			Name:        "Tallow Stub",
			Description: "A half-burnt candle. It smells of old fat.",
		},
	}
}
