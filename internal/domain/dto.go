package domain

import (
	"time"

	"github.com/google/uuid"
)

// DTOs for API responses

type AccountDTO struct {
	ID                     uuid.UUID    `json:"id"`
	Name                   string       `json:"name"`
	AccountType            AccountType  `json:"accountType,omitempty"`
	Industry               string       `json:"industry,omitempty"`
	Address                string       `json:"address,omitempty"`
	City                   string       `json:"city,omitempty"`
	State                  string       `json:"state,omitempty"`
	ZipCode                string       `json:"zipCode,omitempty"`
	Phone                  string       `json:"phone,omitempty"`
	Website                string       `json:"website,omitempty"`
	Notes                  string       `json:"notes,omitempty"`
	IsHot                  bool         `json:"isHot"`
	NextAction             string       `json:"nextAction,omitempty"`
	TotalPipelineValue     float64      `json:"totalPipelineValue"`
	OpenOpportunitiesCount int          `json:"openOpportunitiesCount"`
	LastContacted          *string      `json:"lastContacted,omitempty"` // ISO 8601 date
	Contacts               []ContactDTO `json:"contacts,omitempty"`
	CreatedAt              string       `json:"createdAt"` // ISO 8601
	UpdatedAt              string       `json:"updatedAt"` // ISO 8601
}

type ContactDTO struct {
	ID            uuid.UUID  `json:"id"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	FullName      string     `json:"fullName"`
	Title         string     `json:"title,omitempty"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Mobile        string     `json:"mobile,omitempty"`
	AccountID     *uuid.UUID `json:"accountId,omitempty"`
	AccountName   string     `json:"accountName,omitempty"`
	LastContacted *string    `json:"lastContacted,omitempty"` // ISO 8601 date
	NextFollowup  *string    `json:"nextFollowup,omitempty"`  // ISO 8601 date
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     string     `json:"createdAt"`
	UpdatedAt     string     `json:"updatedAt"`
}

type OpportunityDTO struct {
	ID                  uuid.UUID        `json:"id"`
	Name                string           `json:"name"`
	AccountID           uuid.UUID        `json:"accountId"`
	AccountName         string           `json:"accountName,omitempty"`
	Stage               OpportunityStage `json:"stage"`
	Probability         int              `json:"probability"`
	LVValue             *float64         `json:"lvValue,omitempty"`
	HDDValue            *float64         `json:"hddValue,omitempty"`
	TotalValue          float64          `json:"totalValue"`
	BidDate             *string          `json:"bidDate,omitempty"` // ISO 8601 date
	BidDateTBD          bool             `json:"bidDateTbd"`
	LastContacted       *string          `json:"lastContacted,omitempty"`
	NextFollowup        *string          `json:"nextFollowup,omitempty"`
	FollowupStatus      string           `json:"followupStatus"`
	DaysUntilFollowup   *int             `json:"daysUntilFollowup,omitempty"`
	StalledReason       string           `json:"stalledReason,omitempty"`
	Owner               string           `json:"owner,omitempty"`
	AssignedEstimatorID *uuid.UUID       `json:"assignedEstimatorId,omitempty"`
	PrimaryContactID    *uuid.UUID       `json:"primaryContactId,omitempty"`
	Source              string           `json:"source,omitempty"`
	QuickLinks          []string         `json:"quickLinks,omitempty"`
	Notes               string           `json:"notes,omitempty"`
	CreatedAt           string           `json:"createdAt"`
	UpdatedAt           string           `json:"updatedAt"`
}

type ActivityDTO struct {
	ID            uuid.UUID    `json:"id"`
	OpportunityID *uuid.UUID   `json:"opportunityId,omitempty"`
	ContactID     *uuid.UUID   `json:"contactId,omitempty"`
	ActivityType  ActivityType `json:"activityType"`
	Subject       string       `json:"subject"`
	Description   string       `json:"description,omitempty"`
	OccurredAt    string       `json:"occurredAt"` // ISO 8601
	CreatedBy     string       `json:"createdBy,omitempty"`
	CreatedAt     string       `json:"createdAt"`
}

type TaskDTO struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	OpportunityID *uuid.UUID `json:"opportunityId,omitempty"`
	AccountID     *uuid.UUID `json:"accountId,omitempty"`
	DueDate       *string    `json:"dueDate,omitempty"` // ISO 8601 date
	AssignedToID  *uuid.UUID `json:"assignedToId,omitempty"`
	Completed     bool       `json:"completed"`
	CompletedAt   *string    `json:"completedAt,omitempty"`
	CompletedBy   string     `json:"completedBy,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     string     `json:"createdAt"`
	UpdatedAt     string     `json:"updatedAt"`
}

type EstimateDTO struct {
	ID            uuid.UUID             `json:"id"`
	OpportunityID uuid.UUID             `json:"opportunityId"`
	Version       int                   `json:"version"`
	Name          string                `json:"name,omitempty"`
	Status        EstimateStatus        `json:"status"`
	LaborTotal    float64               `json:"laborTotal"`
	MaterialTotal float64               `json:"materialTotal"`
	Subtotal      float64               `json:"subtotal"`
	MarginPercent float64               `json:"marginPercent"`
	MarginAmount  float64               `json:"marginAmount"`
	Total         float64               `json:"total"`
	Notes         string                `json:"notes,omitempty"`
	CreatedBy     string                `json:"createdBy,omitempty"`
	LineItems     []EstimateLineItemDTO `json:"lineItems,omitempty"`
	CreatedAt     string                `json:"createdAt"`
	UpdatedAt     string                `json:"updatedAt"`
}

type EstimateLineItemDTO struct {
	ID          uuid.UUID    `json:"id"`
	EstimateID  uuid.UUID    `json:"estimateId"`
	LineType    LineItemType `json:"lineType"`
	Description string       `json:"description,omitempty"`
	Quantity    *float64     `json:"quantity,omitempty"`
	Unit        string       `json:"unit,omitempty"`
	UnitCost    *float64     `json:"unitCost,omitempty"`
	Total       float64      `json:"total"`
	SortOrder   int          `json:"sortOrder"`
	Notes       string       `json:"notes,omitempty"`
}

type UserDTO struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     UserRole  `json:"role"`
	IsActive bool      `json:"isActive"`
}

// SummaryOpportunityDTO is one pipeline row in a personal or team summary
type SummaryOpportunityDTO struct {
	OpportunityDTO
	StageChangedAt string `json:"stageChangedAt,omitempty"`
	LastStageNote  string `json:"lastStageNote,omitempty"`
}

// SummaryDTO is the weekly/daily summary payload
type SummaryDTO struct {
	Since             string                  `json:"since"`
	PipelineChanges   []SummaryOpportunityDTO `json:"pipelineChanges"`
	OverdueFollowups  []OpportunityDTO        `json:"overdueFollowups"`
	DueTodayFollowups []OpportunityDTO        `json:"dueTodayFollowups"`
	UpcomingFollowups []OpportunityDTO        `json:"upcomingFollowups"`
	OpenTasks         []TaskDTO               `json:"openTasks"`
	WeeklyNotes       string                  `json:"weeklyNotes,omitempty"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Pagination response wrapper
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// API Response wrapper
type APIResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
}

// Request DTOs

type CreateAccountRequest struct {
	Name            string      `json:"name" validate:"required,max=200"`
	AccountType     AccountType `json:"accountType,omitempty" validate:"max=50"`
	Industry        string      `json:"industry" validate:"required,max=100"`
	Address         string      `json:"address,omitempty" validate:"max=500"`
	City            string      `json:"city" validate:"required,max=100"`
	State           string      `json:"state" validate:"required,max=50"`
	ZipCode         string      `json:"zipCode,omitempty" validate:"max=20"`
	Phone           string      `json:"phone,omitempty" validate:"max=50"`
	Website         string      `json:"website,omitempty" validate:"max=500"`
	Notes           string      `json:"notes,omitempty"`
	IsHot           bool        `json:"isHot,omitempty"`
	NextAction      string      `json:"nextAction,omitempty" validate:"max=500"`
	ConfirmWarnings bool        `json:"confirmWarnings,omitempty"`
}

type UpdateAccountRequest struct {
	Name            string      `json:"name" validate:"required,max=200"`
	AccountType     AccountType `json:"accountType,omitempty" validate:"max=50"`
	Industry        string      `json:"industry" validate:"required,max=100"`
	Address         string      `json:"address,omitempty" validate:"max=500"`
	City            string      `json:"city" validate:"required,max=100"`
	State           string      `json:"state" validate:"required,max=50"`
	ZipCode         string      `json:"zipCode,omitempty" validate:"max=20"`
	Phone           string      `json:"phone,omitempty" validate:"max=50"`
	Website         string      `json:"website,omitempty" validate:"max=500"`
	Notes           string      `json:"notes,omitempty"`
	IsHot           *bool       `json:"isHot,omitempty"`
	NextAction      string      `json:"nextAction,omitempty" validate:"max=500"`
	ConfirmWarnings bool        `json:"confirmWarnings,omitempty"`
}

type CreateContactRequest struct {
	FirstName       string     `json:"firstName" validate:"required,max=100"`
	LastName        string     `json:"lastName" validate:"required,max=100"`
	Title           string     `json:"title,omitempty" validate:"max=100"`
	Email           string     `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone           string     `json:"phone,omitempty" validate:"max=50"`
	Mobile          string     `json:"mobile,omitempty" validate:"max=50"`
	AccountID       *uuid.UUID `json:"accountId"`
	NextFollowup    *time.Time `json:"nextFollowup,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	ConfirmWarnings bool       `json:"confirmWarnings,omitempty"`
}

type UpdateContactRequest struct {
	FirstName       string     `json:"firstName" validate:"required,max=100"`
	LastName        string     `json:"lastName" validate:"required,max=100"`
	Title           string     `json:"title,omitempty" validate:"max=100"`
	Email           string     `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone           string     `json:"phone,omitempty" validate:"max=50"`
	Mobile          string     `json:"mobile,omitempty" validate:"max=50"`
	AccountID       *uuid.UUID `json:"accountId"`
	NextFollowup    *time.Time `json:"nextFollowup,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	ConfirmWarnings bool       `json:"confirmWarnings,omitempty"`
}

// LogContactRequest records an outreach touch on a contact or opportunity
type LogContactRequest struct {
	ActivityType ActivityType `json:"activityType" validate:"required"`
	Subject      string       `json:"subject,omitempty" validate:"max=200"`
	Notes        string       `json:"notes,omitempty"`
	NextFollowup *time.Time   `json:"nextFollowup,omitempty"`
}

type CreateOpportunityRequest struct {
	Name                string           `json:"name" validate:"required,max=200"`
	AccountID           uuid.UUID        `json:"accountId" validate:"required"`
	Stage               OpportunityStage `json:"stage,omitempty"`
	LVValue             *string          `json:"lvValue,omitempty"`
	HDDValue            *string          `json:"hddValue,omitempty"`
	BidDate             *time.Time       `json:"bidDate,omitempty"`
	BidDateTBD          bool             `json:"bidDateTbd,omitempty"`
	Owner               string           `json:"owner" validate:"required,max=100"`
	AssignedEstimatorID *uuid.UUID       `json:"assignedEstimatorId,omitempty"`
	PrimaryContactID    *uuid.UUID       `json:"primaryContactId,omitempty"`
	Source              string           `json:"source,omitempty" validate:"max=100"`
	QuickLinks          []string         `json:"quickLinks,omitempty"`
	Notes               string           `json:"notes,omitempty"`
	NextFollowup        *time.Time       `json:"nextFollowup,omitempty"`
	ConfirmWarnings     bool             `json:"confirmWarnings,omitempty"`
}

type UpdateOpportunityRequest struct {
	Name                string           `json:"name" validate:"required,max=200"`
	Stage               OpportunityStage `json:"stage,omitempty"`
	LVValue             *string          `json:"lvValue,omitempty"`
	HDDValue            *string          `json:"hddValue,omitempty"`
	BidDate             *time.Time       `json:"bidDate,omitempty"`
	BidDateTBD          bool             `json:"bidDateTbd,omitempty"`
	StalledReason       string           `json:"stalledReason,omitempty" validate:"max=500"`
	Owner               string           `json:"owner,omitempty" validate:"max=100"`
	AssignedEstimatorID *uuid.UUID       `json:"assignedEstimatorId,omitempty"`
	PrimaryContactID    *uuid.UUID       `json:"primaryContactId,omitempty"`
	Source              string           `json:"source,omitempty" validate:"max=100"`
	QuickLinks          []string         `json:"quickLinks,omitempty"`
	Notes               string           `json:"notes,omitempty"`
	NextFollowup        *time.Time       `json:"nextFollowup,omitempty"`
	ConfirmWarnings     bool             `json:"confirmWarnings,omitempty"`
}

type UpdateStageRequest struct {
	Stage OpportunityStage `json:"stage" validate:"required"`
	Notes string           `json:"notes,omitempty" validate:"max=500"`
}

type CreateActivityRequest struct {
	OpportunityID       *uuid.UUID   `json:"opportunityId,omitempty"`
	ContactID           *uuid.UUID   `json:"contactId,omitempty"`
	ActivityType        ActivityType `json:"activityType" validate:"required"`
	Subject             string       `json:"subject" validate:"required,max=200"`
	Description         string       `json:"description,omitempty"`
	OccurredAt          *time.Time   `json:"occurredAt,omitempty"`
	UpdateLastContacted bool         `json:"updateLastContacted,omitempty"`
}

type UpdateActivityRequest struct {
	ActivityType ActivityType `json:"activityType" validate:"required"`
	Subject      string       `json:"subject" validate:"required,max=200"`
	Description  string       `json:"description,omitempty"`
	OccurredAt   *time.Time   `json:"occurredAt,omitempty"`
}

type CreateTaskRequest struct {
	Title         string     `json:"title" validate:"required,max=200"`
	OpportunityID *uuid.UUID `json:"opportunityId,omitempty"`
	AccountID     *uuid.UUID `json:"accountId,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	AssignedToID  *uuid.UUID `json:"assignedToId,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

type UpdateTaskRequest struct {
	Title         string     `json:"title" validate:"required,max=200"`
	OpportunityID *uuid.UUID `json:"opportunityId,omitempty"`
	AccountID     *uuid.UUID `json:"accountId,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	AssignedToID  *uuid.UUID `json:"assignedToId,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

type CreateEstimateRequest struct {
	OpportunityID uuid.UUID `json:"opportunityId" validate:"required"`
	Name          string    `json:"name,omitempty" validate:"max=200"`
	MarginPercent *float64  `json:"marginPercent,omitempty" validate:"omitempty,gte=0"`
	Notes         string    `json:"notes,omitempty"`
}

type UpdateEstimateRequest struct {
	Name          string          `json:"name,omitempty" validate:"max=200"`
	Status        *EstimateStatus `json:"status,omitempty"`
	MarginPercent *float64        `json:"marginPercent,omitempty" validate:"omitempty,gte=0"`
	Notes         string          `json:"notes,omitempty"`
}

type CreateLineItemRequest struct {
	LineType    LineItemType `json:"lineType" validate:"required,oneof=labor material"`
	Description string       `json:"description,omitempty" validate:"max=500"`
	Quantity    *float64     `json:"quantity,omitempty"`
	Unit        string       `json:"unit,omitempty" validate:"max=50"`
	UnitCost    *float64     `json:"unitCost,omitempty"`
	SortOrder   int          `json:"sortOrder,omitempty" validate:"gte=0"`
	Notes       string       `json:"notes,omitempty"`
}

type UpdateLineItemRequest struct {
	Description string   `json:"description,omitempty" validate:"max=500"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Unit        string   `json:"unit,omitempty" validate:"max=50"`
	UnitCost    *float64 `json:"unitCost,omitempty"`
	SortOrder   *int     `json:"sortOrder,omitempty" validate:"omitempty,gte=0"`
	Notes       string   `json:"notes,omitempty"`
}

// SuppressOpportunityRequest hides an opportunity from the caller's summary
type SuppressOpportunityRequest struct {
	OpportunityID uuid.UUID `json:"opportunityId" validate:"required"`
}

// SaveWeeklyNotesRequest upserts the caller's notes for one summary week
type SaveWeeklyNotesRequest struct {
	WeekStart time.Time `json:"weekStart" validate:"required"`
	Notes     string    `json:"notes" validate:"max=10000"`
}

// Auth DTOs

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expiresAt"`
	User      UserDTO `json:"user"`
}

type CreateUserRequest struct {
	Email    string   `json:"email" validate:"required,email,max=255"`
	Name     string   `json:"name" validate:"required,max=200"`
	Role     UserRole `json:"role" validate:"required"`
	Password string   `json:"password" validate:"required,min=8"`
}
