package domain

import "time"

type Group struct {
	Name      string     `json:"group_name"`
	CreatedAt time.Time  `json:"created_at"`
	DrawID    string     `json:"draw_id,omitempty"`
	DrawnAt   *time.Time `json:"drawn_at"`
	Attempts  int        `json:"-"`
}

func (g Group) IsDrawn() bool { return g.DrawnAt != nil }

type Participant struct {
	Name      string `json:"name"`
	GroupName string `json:"-"`
}

type Assignment struct {
	Giver    string `json:"giver"`
	Receiver string `json:"receiver"`
}

type Draw struct {
	ID          string       `json:"draw_id"`
	GroupName   string       `json:"group_name"`
	Assignments []Assignment `json:"-"`
	DrawnAt     time.Time    `json:"drawn_at"`
	Attempts    int          `json:"attempts"`
}

type Status struct {
	GroupName         string     `json:"group_name"`
	TotalParticipants int        `json:"total_participants"`
	IsDrawn           bool       `json:"is_drawn"`
	Participants      []string   `json:"participants"`
	DrawnAt           *time.Time `json:"drawn_at"`
}

type DrawStats struct {
	GroupName    string `json:"group_name"`
	DrawID       string `json:"draw_id"`
	Attempts     int    `json:"attempts"`
	Participants int    `json:"participants"`
	CycleLengths []int  `json:"cycle_lengths"`
}
