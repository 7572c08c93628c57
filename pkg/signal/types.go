package signal

import "time"

// Signal type constants for decoded game events.
const (
	TypeJoin       = "join"
	TypeLeave      = "leave"
	TypeChat       = "chat"
	TypeCommand    = "command"
	TypeDeath      = "death"
	TypeInventory  = "inventory_transaction"
	TypePacket     = "packet"
	TypeConnection = "connection"
	TypeProfile    = "player_profile"
)

// Build platform ids as reported in the client login data.
const (
	PlatformUnknown      = 0
	PlatformAndroid      = 1
	PlatformIOS          = 2
	PlatformOSX          = 3
	PlatformFireOS       = 4
	PlatformGearVR       = 5
	PlatformHololens     = 6
	PlatformWindows10    = 7
	PlatformWin32        = 8
	PlatformDedicated    = 9
	PlatformTVOS         = 10
	PlatformPlayStation  = 11
	PlatformNintendo     = 12
	PlatformXbox         = 13
	PlatformWindowsPhone = 14
	PlatformLinux        = 15
)

// Input modes as reported in the client login data.
const (
	InputUnknown  = 0
	InputMouse    = 1
	InputTouch    = 2
	InputGamepad  = 3
	InputMotionVR = 4
)

var platformNames = map[int]string{
	PlatformAndroid:      "Android",
	PlatformIOS:          "iOS",
	PlatformOSX:          "macOS",
	PlatformFireOS:       "FireOS",
	PlatformGearVR:       "GearVR",
	PlatformHololens:     "Hololens",
	PlatformWindows10:    "Windows",
	PlatformWin32:        "Win32",
	PlatformDedicated:    "Dedicated",
	PlatformTVOS:         "tvOS",
	PlatformPlayStation:  "PlayStation",
	PlatformNintendo:     "Switch",
	PlatformXbox:         "Xbox",
	PlatformWindowsPhone: "WindowsPhone",
	PlatformLinux:        "Linux",
}

// PlatformName returns the device class name for a build platform id.
func PlatformName(id int) string {
	if name, ok := platformNames[id]; ok {
		return name
	}
	return "Unknown"
}

// IsConsole reports whether the platform is a home console.
func IsConsole(id int) bool {
	return id == PlatformPlayStation || id == PlatformNintendo || id == PlatformXbox
}

// DeviceInfo is the client-declared device data from the login chain.
type DeviceInfo struct {
	Platform         int    `json:"platform"`
	DeviceModel      string `json:"device_model"`
	DeviceID         string `json:"device_id"`
	Locale           string `json:"locale"`
	InputMode        int    `json:"input_mode"`
	DefaultInputMode int    `json:"default_input_mode"`
	EditorMode       bool   `json:"editor_mode"`
	UntrustedSkin    bool   `json:"untrusted_skin"`
	GameVersion      string `json:"game_version"`
}

// SkinData is the client-declared appearance payload.
type SkinData struct {
	ImageWidth   int    `json:"image_width"`
	ImageHeight  int    `json:"image_height"`
	ImageData    []byte `json:"image_data"`
	GeometryData string `json:"geometry_data"`
}

// PlayerFacts is what the game client reports about a joining player.
type PlayerFacts struct {
	XUID     string     `json:"xuid"`
	Gamertag string     `json:"gamertag"`
	Device   DeviceInfo `json:"device"`
	Skin     SkinData   `json:"skin"`
}

// DeviceClass returns the platform name used for history and reporting.
func (f PlayerFacts) DeviceClass() string {
	return PlatformName(f.Device.Platform)
}

// JoinSignal represents a player joining the realm.
type JoinSignal struct {
	BaseSignal
	Facts PlayerFacts
}

// NewJoinSignal creates a new join signal.
func NewJoinSignal(timestamp time.Time, facts PlayerFacts) *JoinSignal {
	metadata := map[string]interface{}{
		"gamertag": facts.Gamertag,
		"platform": facts.DeviceClass(),
	}
	return &JoinSignal{
		BaseSignal: NewBaseSignal(TypeJoin, facts.XUID, timestamp, metadata),
		Facts:      facts,
	}
}

// LeaveSignal represents a player leaving the realm.
type LeaveSignal struct {
	BaseSignal
	Gamertag string
}

// NewLeaveSignal creates a new leave signal.
func NewLeaveSignal(timestamp time.Time, xuid, gamertag string) *LeaveSignal {
	return &LeaveSignal{
		BaseSignal: NewBaseSignal(TypeLeave, xuid, timestamp, map[string]interface{}{"gamertag": gamertag}),
		Gamertag:   gamertag,
	}
}

// ChatSignal represents a chat message. Chat packets identify the sender
// by display name; the xuid is filled in when the client knows it.
type ChatSignal struct {
	BaseSignal
	SenderName string
	Text       string
}

// NewChatSignal creates a new chat signal.
func NewChatSignal(timestamp time.Time, xuid, senderName, text string) *ChatSignal {
	metadata := map[string]interface{}{
		"sender": senderName,
		"length": len(text),
	}
	return &ChatSignal{
		BaseSignal: NewBaseSignal(TypeChat, xuid, timestamp, metadata),
		SenderName: senderName,
		Text:       text,
	}
}

// CommandSignal represents a command request issued by a player.
type CommandSignal struct {
	BaseSignal
	SenderName string
	Command    string
}

// NewCommandSignal creates a new command signal.
func NewCommandSignal(timestamp time.Time, xuid, senderName, command string) *CommandSignal {
	metadata := map[string]interface{}{
		"sender":  senderName,
		"command": command,
	}
	return &CommandSignal{
		BaseSignal: NewBaseSignal(TypeCommand, xuid, timestamp, metadata),
		SenderName: senderName,
		Command:    command,
	}
}

// DeathSignal represents a player death message.
type DeathSignal struct {
	BaseSignal
	PlayerName string
	Cause      string
}

// NewDeathSignal creates a new death signal.
func NewDeathSignal(timestamp time.Time, playerName, cause string) *DeathSignal {
	metadata := map[string]interface{}{
		"player": playerName,
		"cause":  cause,
	}
	return &DeathSignal{
		BaseSignal: NewBaseSignal(TypeDeath, "", timestamp, metadata),
		PlayerName: playerName,
		Cause:      cause,
	}
}

// Enchantment is one enchantment entry on an item stack.
type Enchantment struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

// ItemStack is one item entry of an inventory transaction.
type ItemStack struct {
	Slot         int           `json:"slot"`
	ID           string        `json:"id"`
	Count        int           `json:"count"`
	Enchantments []Enchantment `json:"enchantments,omitempty"`
	// MetadataSize is the serialized size of the item's extra data in bytes.
	MetadataSize int `json:"metadata_size"`
	// Strings holds decoded string fields such as custom names and lore.
	Strings map[string]string `json:"strings,omitempty"`
}

// InventorySignal represents an inventory transaction.
type InventorySignal struct {
	BaseSignal
	Items []ItemStack
}

// NewInventorySignal creates a new inventory transaction signal.
func NewInventorySignal(timestamp time.Time, xuid string, items []ItemStack) *InventorySignal {
	return &InventorySignal{
		BaseSignal: NewBaseSignal(TypeInventory, xuid, timestamp, map[string]interface{}{"items": len(items)}),
		Items:      items,
	}
}

// Vec3 is a decoded position or velocity.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation is a decoded orientation in degrees.
type Rotation struct {
	Pitch   float64 `json:"pitch"`
	Yaw     float64 `json:"yaw"`
	HeadYaw float64 `json:"head_yaw"`
}

// PacketSignal represents a generic low-level packet. Only the fields the
// packet actually carries are set.
type PacketSignal struct {
	BaseSignal
	PacketType string
	Position   *Vec3
	Velocity   *Vec3
	Rotation   *Rotation
	Slot       *int
	Count      *int
	Strings    map[string]string
	Numbers    map[string]float64
}

// NewPacketSignal creates a new packet signal with no decoded fields.
func NewPacketSignal(timestamp time.Time, xuid, packetType string) *PacketSignal {
	return &PacketSignal{
		BaseSignal: NewBaseSignal(TypePacket, xuid, timestamp, map[string]interface{}{"packet": packetType}),
		PacketType: packetType,
	}
}

// ConnectionKind is the kind of connection state change.
type ConnectionKind string

const (
	ConnectionSpawn ConnectionKind = "spawn"
	ConnectionClose ConnectionKind = "close"
	ConnectionError ConnectionKind = "error"
	ConnectionKick  ConnectionKind = "kick"
)

// ConnectionSignal represents a change in the bot's own connection.
type ConnectionSignal struct {
	BaseSignal
	Kind   ConnectionKind
	Reason string
}

// NewConnectionSignal creates a new connection signal.
func NewConnectionSignal(timestamp time.Time, kind ConnectionKind, reason string) *ConnectionSignal {
	metadata := map[string]interface{}{
		"kind":   string(kind),
		"reason": reason,
	}
	return &ConnectionSignal{
		BaseSignal: NewBaseSignal(TypeConnection, "", timestamp, metadata),
		Kind:       kind,
		Reason:     reason,
	}
}

// ProfileSignal carries the result of a remote profile lookup back into
// the tenant's event stream.
type ProfileSignal struct {
	BaseSignal
	Gamerscore int
	Followers  int
	Tier       string
}

// NewProfileSignal creates a new player profile signal.
func NewProfileSignal(timestamp time.Time, xuid string, gamerscore, followers int, tier string) *ProfileSignal {
	metadata := map[string]interface{}{
		"gamerscore": gamerscore,
		"followers":  followers,
	}
	return &ProfileSignal{
		BaseSignal: NewBaseSignal(TypeProfile, xuid, timestamp, metadata),
		Gamerscore: gamerscore,
		Followers:  followers,
		Tier:       tier,
	}
}
