package game

// Item is a carryable reward or tool.
type Item struct {
	Name        string
	Description string
}

// Player carries the stats the engine reads for context building and the
// fields consequence application mutates.
type Player struct {
	Name      string
	Level     int
	Health    int
	MaxHealth int
	XP        int
	Inventory []Item
}

// NewPlayer returns a level-1 player at full health.
func NewPlayer(name string) *Player {
	return &Player{
		Name:      name,
		Level:     1,
		Health:    100,
		MaxHealth: 100,
	}
}

// AddXP grants experience and levels the player up every 100 points.
func (p *Player) AddXP(amount int) {
	if amount <= 0 {
		return
	}
	p.XP += amount
	for p.XP >= p.Level*100 {
		p.XP -= p.Level * 100
		p.Level++
	}
}

// SpendXP deducts experience within the current level, clamped at zero.
func (p *Player) SpendXP(amount int) {
	if amount <= 0 {
		return
	}
	p.XP -= amount
	if p.XP < 0 {
		p.XP = 0
	}
}

// TakeDamage reduces health, clamped at zero.
func (p *Player) TakeDamage(amount int) {
	if amount <= 0 {
		return
	}
	p.Health -= amount
	if p.Health < 0 {
		p.Health = 0
	}
}

// Alive reports whether the player has health remaining.
func (p *Player) Alive() bool {
	return p.Health > 0
}

// AddItem appends an item to the inventory.
func (p *Player) AddItem(item Item) {
	p.Inventory = append(p.Inventory, item)
}

// InventoryNames lists carried item names in insertion order.
func (p *Player) InventoryNames() []string {
	names := make([]string, 0, len(p.Inventory))
	for _, item := range p.Inventory {
		names = append(names, item.Name)
	}
	return names
}
