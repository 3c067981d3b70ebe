package session

// Event types published for a live match.
const (
	EventTime         = "time"
	EventBallAddition = "ball_addition"
	EventImminentEnd  = "imminent_end"
	EventMatchEnd     = "match_end"
	EventScore        = "score"
	EventElimination  = "elimination"
	EventBadges       = "badges"
)

// Event is one notification about a live match.
type Event struct {
	Type    string `json:"type"`
	MatchID string `json:"matchId"`
	Data    any    `json:"data,omitempty"`
}

// Publisher fans events out to subscribers. Publish must not block.
type Publisher interface {
	Publish(matchID string, ev Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, Event) {}

type TimeData struct {
	Remaining int  `json:"remaining"`
	Paused    bool `json:"paused"`
}

type BallAdditionData struct {
	Index        int `json:"index"`
	CurrentBalls int `json:"currentBalls"`
}

type ScoreData struct {
	StudentID  string `json:"studentId"`
	Kind       string `json:"kind"`
	Hits       int    `json:"hits"`
	Passes     int    `json:"passes"`
	Sacrifices int    `json:"sacrifices"`
	Cookies    int    `json:"cookies"`
}

type EliminationData struct {
	StudentID    string `json:"studentId"`
	CurrentLives int    `json:"currentLives"`
	Position     string `json:"position"`
}
