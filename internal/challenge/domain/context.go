package domain

import (
	"fmt"
	"strings"

	"github.com/haverlock/undercroft/internal/game"
)

// historyLimit caps how many recent challenge types steer generation.
const historyLimit = 10

// Context is the prompt-worthy snapshot of session state a generation
// call is built from. It is constructed once per initiation and
// discarded after the call; all fields are set at creation.
type Context struct {
	PlayerLevel     int
	PlayerHealth    int
	PlayerMaxHealth int
	Inventory       []string

	RoomName        string
	RoomDescription string

	MonsterName        string
	MonsterKind        string
	MonsterDescription string
	MonsterDifficulty  string

	Type       Type
	Difficulty Difficulty

	RecentTypes []string
}

// ContextInput names the session state a context is assembled from.
type ContextInput struct {
	Player  *game.Player
	Room    *game.Room
	Type    Type
	Tier    Difficulty
	History []Type
}

// BuildContext assembles an immutable context snapshot. History is
// capped at the most recent entries, most-recent-first.
func BuildContext(input ContextInput) Context {
	ctx := Context{
		Type:       input.Type,
		Difficulty: input.Tier,
	}
	if input.Player != nil {
		ctx.PlayerLevel = input.Player.Level
		ctx.PlayerHealth = input.Player.Health
		ctx.PlayerMaxHealth = input.Player.MaxHealth
		ctx.Inventory = input.Player.InventoryNames()
	}
	if input.Room != nil {
		ctx.RoomName = input.Room.Name
		ctx.RoomDescription = input.Room.Description
		if input.Room.HasMonster() {
			ctx.MonsterName = input.Room.Monster.Name
			ctx.MonsterKind = input.Room.Monster.Kind
			ctx.MonsterDescription = input.Room.Monster.Description
			ctx.MonsterDifficulty = input.Room.Monster.Difficulty.String()
		}
	}
	history := input.History
	if len(history) > historyLimit {
		history = history[:historyLimit]
	}
	for _, t := range history {
		ctx.RecentTypes = append(ctx.RecentTypes, t.String())
	}
	return ctx
}

// Prompt renders the generation request: the session context plus the
// output schema the reply is expected to follow.
func (c Context) Prompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a %s challenge for the following RPG context:\n\n", c.Type)

	b.WriteString("--- ENVIRONMENT ---\n")
	fmt.Fprintf(&b, "Location: %s\n", c.RoomName)
	fmt.Fprintf(&b, "Description: %s\n\n", c.RoomDescription)

	b.WriteString("--- PLAYER ---\n")
	fmt.Fprintf(&b, "Level: %d\n", c.PlayerLevel)
	fmt.Fprintf(&b, "Condition: %d/%d HP\n", c.PlayerHealth, c.PlayerMaxHealth)
	inventory := "Empty"
	if len(c.Inventory) > 0 {
		inventory = strings.Join(c.Inventory, ", ")
	}
	fmt.Fprintf(&b, "Inventory: %s\n\n", inventory)

	if c.MonsterName != "" {
		b.WriteString("--- THREAT ---\n")
		fmt.Fprintf(&b, "Monster: %s (%s)\n", c.MonsterName, c.MonsterDifficulty)
		fmt.Fprintf(&b, "Details: %s\n\n", c.MonsterDescription)
	}

	b.WriteString("--- CHALLENGE REQUIREMENTS ---\n")
	fmt.Fprintf(&b, "Difficulty: %s\n", c.Difficulty)
	if len(c.RecentTypes) > 0 {
		fmt.Fprintf(&b, "Avoid these recent themes: %s\n", strings.Join(c.RecentTypes, ", "))
	}
	b.WriteString("Style: Immersive, dark fantasy, and high-stakes.\n\n")

	b.WriteString("--- OUTPUT FORMAT ---\n")
	b.WriteString("Return ONLY a valid JSON object with the following structure:\n")
	b.WriteString("{\n")
	b.WriteString("  \"prompt\": \"The flavor text and the actual riddle/puzzle description\",\n")
	b.WriteString("  \"desc\": \"A brief summary of what the player sees\",\n")
	b.WriteString("  \"correctAnswer\": \"The intended solution\",\n")
	b.WriteString("  \"hint1\": \"A subtle hint\",\n")
	b.WriteString("  \"hint2\": \"A direct hint\",\n")
	b.WriteString("  \"hint3\": \"An obvious hint (last resort)\",\n")
	b.WriteString("  \"expectedAnswerPattern\": \"A regex or list of keywords to solve this\",\n")
	b.WriteString("  \"alternateAnswers\": [\"other\", \"accepted\", \"answers\"]\n")
	b.WriteString("}")

	return b.String()
}
