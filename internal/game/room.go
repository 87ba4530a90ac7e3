package game

// RoomCategory drives the default challenge type for a room.
type RoomCategory int

const (
	// RoomOrdinary is a regular room.
	RoomOrdinary RoomCategory = iota
	// RoomBoss holds a boss encounter.
	RoomBoss
	// RoomSafe is a rest area.
	RoomSafe
)

func (c RoomCategory) String() string {
	switch c {
	case RoomBoss:
		return "Boss"
	case RoomSafe:
		return "Safe"
	default:
		return "Ordinary"
	}
}

// MonsterDifficulty labels how dangerous a monster is.
type MonsterDifficulty int

const (
	MonsterWeak MonsterDifficulty = iota
	MonsterNormal
	MonsterTough
	MonsterBoss
)

func (d MonsterDifficulty) String() string {
	switch d {
	case MonsterWeak:
		return "Weak"
	case MonsterTough:
		return "Tough"
	case MonsterBoss:
		return "Boss"
	default:
		return "Normal"
	}
}

// Monster is an opposing party in a room.
type Monster struct {
	Name        string
	Kind        string
	Description string
	Difficulty  MonsterDifficulty
}

// Room is the location a challenge is staged in.
type Room struct {
	Name        string
	Description string
	Category    RoomCategory
	Monster     *Monster
	Item        *Item
}

// HasMonster reports whether an opposing party is present.
func (r *Room) HasMonster() bool {
	return r != nil && r.Monster != nil
}
