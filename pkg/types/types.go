package types

import "time"

// Event types emitted to notification sinks.
const (
	EventPlayerJoined  = "player_joined"
	EventPlayerDeleted = "player_deleted"
	EventMatchFormed   = "match_formed"
	EventSimulation    = "simulation"
)

// JoinRequest is the administrative add-player payload. Elo and ping are
// accepted as JSON numbers or numeric strings.
type JoinRequest struct {
	Name string `json:"name"`
	Elo  Number `json:"elo"`
	Ping Number `json:"ping"`
}

// Candidate is a player waiting to be matched. The pool owns the record;
// indexes only hold pointers to it.
type Candidate struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Elo      int       `json:"elo"`
	Ping     int       `json:"ping"`
	JoinTime time.Time `json:"join_time"`
	InQueue  bool      `json:"in_queue"`

	// Seq is the admission sequence assigned by the pool; it breaks rating
	// ties inside the rating index.
	Seq uint64 `json:"-"`
}

// Rotation is a single rebalancing step performed by the rating index.
type Rotation struct {
	Direction string `json:"type"`
	Case      string `json:"case"`
	Pivot     int    `json:"node"`
	Affected  [2]int `json:"affected"`
}

// TreeNode is a read-only structural view of one rating index node.
type TreeNode struct {
	Elo           int       `json:"elo"`
	Player        Candidate `json:"player"`
	BalanceFactor int       `json:"balance_factor"`
	Height        int       `json:"height"`
	Left          *TreeNode `json:"left"`
	Right         *TreeNode `json:"right"`
}

type Match struct {
	ID           int         `json:"match_id"`
	Timestamp    time.Time   `json:"timestamp"`
	TeamA        []Candidate `json:"team_a"`
	TeamB        []Candidate `json:"team_b"`
	TeamATotal   int         `json:"team_a_total"`
	TeamBTotal   int         `json:"team_b_total"`
	Gap          int         `json:"gap"`
	BalanceScore float64     `json:"balance_score"`
	AvgWait      float64     `json:"avg_wait"`
}

type Stats struct {
	QueueSize    int     `json:"queue_size"`
	PoolSize     int     `json:"pool_size"`
	TotalMatches int     `json:"total_matches"`
	AvgBalance   float64 `json:"avg_balance"`
	AvgWait      float64 `json:"avg_wait"`
	Running      bool    `json:"running"`
	Speed        float64 `json:"speed"`
}

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type PlayerJoined struct {
	Player    Candidate  `json:"player"`
	Tree      *TreeNode  `json:"tree"`
	Rotations []Rotation `json:"rotations"`
	QueueSize int        `json:"queue_size"`
}

type PlayerDeleted struct {
	PlayerID  string     `json:"player_id"`
	Tree      *TreeNode  `json:"tree"`
	Rotations []Rotation `json:"rotations"`
}

type MatchFormed struct {
	Match     Match      `json:"match"`
	Tree      *TreeNode  `json:"tree"`
	Rotations []Rotation `json:"rotations"`
	Stats     Stats      `json:"stats"`
}

type Simulation struct {
	Running bool    `json:"running"`
	Speed   float64 `json:"speed"`
}
