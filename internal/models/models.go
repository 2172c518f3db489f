package models

import "time"

type Category string

const (
	CategoryElectricity Category = "Electricity"
	CategoryPlumbing    Category = "Plumbing"
	CategoryTechnical   Category = "Technical"
	CategoryCaretaker   Category = "Caretaker"
	CategoryOther       Category = "Other"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusResolved   Status = "Resolved"
)

type Complaint struct {
	ID                   int64     `json:"id"`
	BuildingID           int64     `json:"building_id"`
	SubmitterID          int64     `json:"submitter_id"`
	Category             Category  `json:"category"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	RephrasedDescription string    `json:"rephrased_description"`
	Status               Status    `json:"status"`
	Solution             string    `json:"solution"`
	AssignedTo           *int64    `json:"assigned_to"`
	Pictures             []string  `json:"pictures"`
	Sentiment            float64   `json:"sentiment"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// KnowledgeCase is an embedded representation of a resolved complaint.
// Immutable once stored.
type KnowledgeCase struct {
	ID          string    `json:"id"`
	ComplaintID int64     `json:"complaint_id"`
	Category    Category  `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Solution    string    `json:"solution"`
	Status      string    `json:"status"`
	Embedding   []float32 `json:"-"`
}

type SimilarityMatch struct {
	CaseID      string   `json:"case_id"`
	ComplaintID int64    `json:"complaint_id"`
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Solution    string   `json:"solution"`
	Score       float64  `json:"score"`
}

type Responder struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Skill string `json:"skill"`
}

type User struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Role   string   `json:"role"`
	Skills []string `json:"skills"`
}

type Lease struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	UnitID    int64     `json:"unit_id"`
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at"`
}

type Unit struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	OwnerID    int64  `json:"owner_id"`
	BuildingID int64  `json:"building_id"`
}

type Notification struct {
	ID          string    `json:"id"`
	RecipientID int64     `json:"recipient_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Category    Category  `json:"category"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	TargetRoleResponder = "responder"
	TargetRoleUnitOwner = "unit-owner"
)

// NotificationTarget is transient: built and consumed within one fan-out call.
type NotificationTarget struct {
	RecipientID int64  `json:"recipient_id"`
	Role        string `json:"role"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}
