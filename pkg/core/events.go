// pkg/core/events.go
package core

// Events decoded from host commands. They carry no tick of their own; consumers read
// the host clock from the client mirror, which :TICK: keeps current.

// TickEvent marks the start of a new game tick.
type TickEvent struct {
	Tick int
}

// PlayerState is a snapshot of a visible player.
type PlayerState struct {
	Index       int
	Name        string
	Team        int
	Location    WorldPoint
	WeaponID    int // -1 when nothing is wielded
	Interacting ActorRef
}

// NPCState is a snapshot of a visible NPC.
type NPCState struct {
	Index       int
	ID          int
	Location    WorldPoint
	Interacting ActorRef
}

// WidgetEvent reports a HUD widget's visibility.
type WidgetEvent struct {
	Name    string
	Visible bool
}

// VarEvent reports a client variable (varbit or varp) value.
type VarEvent struct {
	Name  string
	Value int
}

// ExperienceEvent reports the total experience of a skill.
type ExperienceEvent struct {
	Skill      string
	Experience int
}

// AnimationEvent reports an actor's current animation.
type AnimationEvent struct {
	Actor       ActorRef
	AnimationID int
}

// GraphicEvent reports a spot animation played on an actor.
type GraphicEvent struct {
	Actor     ActorRef
	GraphicID int
}

// HitsplatEvent reports a hitsplat applied to an actor.
type HitsplatEvent struct {
	Actor  ActorRef
	Type   string
	Amount int
}

// ChatEvent is a chat box message.
type ChatEvent struct {
	Type    string
	Message string
}

// OverheadEvent is text said over an actor's head.
type OverheadEvent struct {
	Actor ActorRef
	Text  string
}

// ContainerEvent carries the full item id list of an item container.
type ContainerEvent struct {
	Container string
	Items     []int
}

// ObjectDespawnEvent reports a world object being removed.
type ObjectDespawnEvent struct {
	ObjectID int
	Location WorldPoint
}

// MenuEvent is a clicked context-menu entry.
type MenuEvent struct {
	Option string
	Target string
	Action string
	ID     int
}

// Hitsplat types.
const (
	HitsplatDamage = "DAMAGE"
	HitsplatBlock  = "BLOCK"
)

// Menu actions used by the tracker.
const (
	MenuActionItemDrop     = "ITEM_DROP"
	MenuActionItemUseOnNPC = "ITEM_USE_ON_NPC"
)

// Container names.
const (
	ContainerInventory = "inventory"
	ContainerEquipment = "equipment"
)

// LogEvent is a log line forwarded by the host bridge.
type LogEvent struct {
	Function string
	Message  string
	Level    string
}
