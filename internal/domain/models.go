package domain

import "time"

// Role tags an authenticated actor. The workflow layer dispatches on it;
// no separate student/professor types exist.
type Role string

const (
	RoleStudent   Role = "Student"
	RoleProfessor Role = "Professor"
)

// Status is the doubt lifecycle state. The only legal transition is
// Pending -> Clarified; Clarified is terminal.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusClarified Status = "Clarified"
)

// Actor is the resolved identity behind a request. Subjects is the
// teaching set for professors and empty for students.
type Actor struct {
	ID       string
	Role     Role
	Branch   string
	Subjects []string
}

// Doubt is the root aggregate: a student's question plus its threaded
// replies. JSON field names match the profaid-client wire contract.
type Doubt struct {
	ID            string       `json:"DoubtID"`
	StudentID     string       `json:"StudentID"`
	Branch        string       `json:"Branch"`
	Subject       string       `json:"Subject"`
	Title         string       `json:"Title"`
	Description   string       `json:"Description"`
	FilesAttached []string     `json:"FilesAttached"`
	Status        Status       `json:"Status"`
	CreatedAt     time.Time    `json:"CreatedAt"`
	Replies       []ReplyEntry `json:"Replies"`
}

// ReplyEntry is one thread entry: a professor reply or a student
// extension. It has no identity outside its doubt's Replies sequence.
type ReplyEntry struct {
	SenderID      string    `json:"SenderID"`
	Message       string    `json:"Message"`
	FilesAttached []string  `json:"FilesAttached"`
	RepliedAt     time.Time `json:"RepliedAt"`
}

// Clone returns a deep copy so callers can never mutate stored state
// through a returned aggregate.
func (d Doubt) Clone() Doubt {
	out := d
	if d.FilesAttached != nil {
		out.FilesAttached = append([]string{}, d.FilesAttached...)
	}
	if d.Replies != nil {
		out.Replies = make([]ReplyEntry, len(d.Replies))
		for i, r := range d.Replies {
			if r.FilesAttached != nil {
				r.FilesAttached = append([]string{}, r.FilesAttached...)
			}
			out.Replies[i] = r
		}
	}
	return out
}
