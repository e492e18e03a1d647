package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns the primary key so IDs are generated the same way
// on postgres and on the sqlite databases used in tests.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// AccountType classifies an account by its role in a project
type AccountType string

const (
	AccountTypeGeneralContractor AccountType = "General Contractor"
	AccountTypeOwner             AccountType = "Owner"
	AccountTypeDeveloper         AccountType = "Developer"
	AccountTypeEngineer          AccountType = "Engineer"
	AccountTypeSubcontractor     AccountType = "Subcontractor"
	AccountTypeOther             AccountType = "Other"
)

// Account represents a customer organization
type Account struct {
	BaseModel
	Name        string      `gorm:"type:varchar(200);not null;index"`
	AccountType AccountType `gorm:"type:varchar(50);column:account_type;index"`
	Industry    string      `gorm:"type:varchar(100)"`
	Address     string      `gorm:"type:varchar(500)"`
	City        string      `gorm:"type:varchar(100)"`
	State       string      `gorm:"type:varchar(50)"`
	ZipCode     string      `gorm:"type:varchar(20);column:zip_code"`
	Phone       string      `gorm:"type:varchar(50)"`
	Website     string      `gorm:"type:varchar(500)"`
	Notes       string      `gorm:"type:text"`
	IsHot       bool        `gorm:"not null;default:false;column:is_hot"`
	NextAction  string      `gorm:"type:varchar(500);column:next_action"`
	Contacts    []Contact   `gorm:"foreignKey:AccountID"`
}

// Contact represents an individual person at an account
type Contact struct {
	BaseModel
	FirstName     string     `gorm:"type:varchar(100);not null;column:first_name"`
	LastName      string     `gorm:"type:varchar(100);not null;column:last_name"`
	Title         string     `gorm:"type:varchar(100)"`
	Email         string     `gorm:"type:varchar(255);index"`
	Phone         string     `gorm:"type:varchar(50)"`
	Mobile        string     `gorm:"type:varchar(50)"`
	AccountID     *uuid.UUID `gorm:"type:uuid;index;column:account_id"`
	Account       *Account   `gorm:"foreignKey:AccountID"`
	LastContacted *time.Time `gorm:"type:date;column:last_contacted"`
	NextFollowup  *time.Time `gorm:"type:date;column:next_followup;index"`
	Notes         string     `gorm:"type:text"`
}

// FullName returns the contact's full name
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// OpportunityStage represents the stage of an opportunity in the pipeline.
// Qualification and Needs Analysis are legacy stages kept for records that
// predate the current pipeline.
type OpportunityStage string

const (
	StageProspecting   OpportunityStage = "Prospecting"
	StageQualification OpportunityStage = "Qualification"
	StageNeedsAnalysis OpportunityStage = "Needs Analysis"
	StageProposal      OpportunityStage = "Proposal"
	StageBidSent       OpportunityStage = "Bid Sent"
	StageNegotiation   OpportunityStage = "Negotiation"
	StageWon           OpportunityStage = "Won"
	StageLost          OpportunityStage = "Lost"
)

// IsValid checks if the OpportunityStage is a valid enum value
func (s OpportunityStage) IsValid() bool {
	switch s {
	case StageProspecting, StageQualification, StageNeedsAnalysis,
		StageProposal, StageBidSent, StageNegotiation, StageWon, StageLost:
		return true
	}
	return false
}

// IsClosed reports whether the stage is terminal
func (s OpportunityStage) IsClosed() bool {
	return s == StageWon || s == StageLost
}

// StageProbabilities maps each stage to its default win probability percent
var StageProbabilities = map[OpportunityStage]int{
	StageProspecting:   10,
	StageQualification: 20,
	StageNeedsAnalysis: 40,
	StageProposal:      60,
	StageBidSent:       75,
	StageNegotiation:   90,
	StageWon:           100,
	StageLost:          0,
}

// Opportunity represents a bid being pursued for an account
type Opportunity struct {
	BaseModel
	Name                string              `gorm:"type:varchar(200);not null;index"`
	AccountID           uuid.UUID           `gorm:"type:uuid;not null;index;column:account_id"`
	Account             *Account            `gorm:"foreignKey:AccountID"`
	Stage               OpportunityStage    `gorm:"type:varchar(50);not null;default:'Prospecting';index"`
	Probability         int                 `gorm:"type:int;not null;default:10"`
	LVValue             decimal.NullDecimal `gorm:"type:decimal(15,2);column:lv_value"`
	HDDValue            decimal.NullDecimal `gorm:"type:decimal(15,2);column:hdd_value"`
	BidDate             *time.Time          `gorm:"type:date;column:bid_date"`
	BidDateTBD          bool                `gorm:"not null;default:false;column:bid_date_tbd"`
	LastContacted       *time.Time          `gorm:"type:date;column:last_contacted"`
	NextFollowup        *time.Time          `gorm:"type:date;column:next_followup;index"`
	StalledReason       string              `gorm:"type:varchar(500);column:stalled_reason"`
	Owner               string              `gorm:"type:varchar(100);index"`
	AssignedEstimatorID *uuid.UUID          `gorm:"type:uuid;column:assigned_estimator_id"`
	AssignedEstimator   *User               `gorm:"foreignKey:AssignedEstimatorID"`
	PrimaryContactID    *uuid.UUID          `gorm:"type:uuid;column:primary_contact_id"`
	PrimaryContact      *Contact            `gorm:"foreignKey:PrimaryContactID"`
	Source              string              `gorm:"type:varchar(100)"`
	QuickLinks          pq.StringArray      `gorm:"type:text[];column:quick_links"`
	Notes               string              `gorm:"type:text"`
	Activities          []Activity          `gorm:"foreignKey:OpportunityID"`
	Estimates           []Estimate          `gorm:"foreignKey:OpportunityID"`
}

// Value returns the opportunity's pipeline value: LV plus HDD where present
func (o *Opportunity) Value() decimal.Decimal {
	v := decimal.Zero
	if o.LVValue.Valid {
		v = v.Add(o.LVValue.Decimal)
	}
	if o.HDDValue.Valid {
		v = v.Add(o.HDDValue.Decimal)
	}
	return v
}

// ActivityType represents the type of activity
type ActivityType string

const (
	ActivityTypeCall             ActivityType = "call"
	ActivityTypeEmail            ActivityType = "email"
	ActivityTypeMeeting          ActivityType = "meeting"
	ActivityTypeMeetingRequested ActivityType = "meeting_requested"
	ActivityTypeNote             ActivityType = "note"
	ActivityTypeTask             ActivityType = "task"
	ActivityTypeSystem           ActivityType = "system"
)

// IsValid checks if the ActivityType is a valid enum value
func (at ActivityType) IsValid() bool {
	switch at {
	case ActivityTypeCall, ActivityTypeEmail, ActivityTypeMeeting,
		ActivityTypeMeetingRequested, ActivityTypeNote, ActivityTypeTask, ActivityTypeSystem:
		return true
	}
	return false
}

// Activity represents a logged interaction on an opportunity or contact
type Activity struct {
	BaseModel
	OpportunityID *uuid.UUID   `gorm:"type:uuid;index;column:opportunity_id"`
	Opportunity   *Opportunity `gorm:"foreignKey:OpportunityID"`
	ContactID     *uuid.UUID   `gorm:"type:uuid;index;column:contact_id"`
	Contact       *Contact     `gorm:"foreignKey:ContactID"`
	ActivityType  ActivityType `gorm:"type:varchar(50);not null;default:'note';column:activity_type"`
	Subject       string       `gorm:"type:varchar(200);not null"`
	Description   string       `gorm:"type:text"`
	OccurredAt    time.Time    `gorm:"not null;index;column:occurred_at"`
	CreatedBy     string       `gorm:"type:varchar(100);column:created_by"`
}

// Task represents a follow-up item assigned to a user
type Task struct {
	BaseModel
	Title         string       `gorm:"type:varchar(200);not null"`
	OpportunityID *uuid.UUID   `gorm:"type:uuid;index;column:opportunity_id"`
	Opportunity   *Opportunity `gorm:"foreignKey:OpportunityID"`
	AccountID     *uuid.UUID   `gorm:"type:uuid;index;column:account_id"`
	Account       *Account     `gorm:"foreignKey:AccountID"`
	DueDate       *time.Time   `gorm:"type:date;column:due_date"`
	AssignedToID  *uuid.UUID   `gorm:"type:uuid;index;column:assigned_to_id"`
	AssignedTo    *User        `gorm:"foreignKey:AssignedToID"`
	CompletedAt   *time.Time   `gorm:"column:completed_at"`
	CompletedBy   string       `gorm:"type:varchar(100);column:completed_by"`
	Notes         string       `gorm:"type:text"`
}

// IsCompleted reports whether the task has been completed
func (t *Task) IsCompleted() bool {
	return t.CompletedAt != nil
}

// EstimateStatus represents the review status of an estimate version
type EstimateStatus string

const (
	EstimateStatusDraft    EstimateStatus = "Draft"
	EstimateStatusReview   EstimateStatus = "Review"
	EstimateStatusApproved EstimateStatus = "Approved"
	EstimateStatusSent     EstimateStatus = "Sent"
	EstimateStatusRevised  EstimateStatus = "Revised"
)

// IsValid checks if the EstimateStatus is a valid enum value
func (es EstimateStatus) IsValid() bool {
	switch es {
	case EstimateStatusDraft, EstimateStatusReview, EstimateStatusApproved,
		EstimateStatusSent, EstimateStatusRevised:
		return true
	}
	return false
}

// Estimate represents one version of a cost estimate for an opportunity.
// The monetary totals are denormalized and recomputed whenever a line item
// or the margin changes.
type Estimate struct {
	BaseModel
	OpportunityID uuid.UUID          `gorm:"type:uuid;not null;index;column:opportunity_id"`
	Opportunity   *Opportunity       `gorm:"foreignKey:OpportunityID"`
	Version       int                `gorm:"not null;default:1"`
	Name          string             `gorm:"type:varchar(200)"`
	Status        EstimateStatus     `gorm:"type:varchar(50);not null;default:'Draft'"`
	LaborTotal    decimal.Decimal    `gorm:"type:decimal(15,2);not null;default:0;column:labor_total"`
	MaterialTotal decimal.Decimal    `gorm:"type:decimal(15,2);not null;default:0;column:material_total"`
	Subtotal      decimal.Decimal    `gorm:"type:decimal(15,2);not null;default:0"`
	MarginPercent decimal.Decimal    `gorm:"type:decimal(5,2);not null;default:20;column:margin_percent"`
	MarginAmount  decimal.Decimal    `gorm:"type:decimal(15,2);not null;default:0;column:margin_amount"`
	Total         decimal.Decimal    `gorm:"type:decimal(15,2);not null;default:0"`
	Notes         string             `gorm:"type:text"`
	CreatedBy     string             `gorm:"type:varchar(100);column:created_by"`
	LineItems     []EstimateLineItem `gorm:"foreignKey:EstimateID;constraint:OnDelete:CASCADE"`
}

// LineItemType represents whether a line item is labor or material
type LineItemType string

const (
	LineItemTypeLabor    LineItemType = "labor"
	LineItemTypeMaterial LineItemType = "material"
)

// IsValid checks if the LineItemType is a valid enum value
func (lt LineItemType) IsValid() bool {
	return lt == LineItemTypeLabor || lt == LineItemTypeMaterial
}

// EstimateLineItem represents a single priced row on an estimate
type EstimateLineItem struct {
	BaseModel
	EstimateID  uuid.UUID           `gorm:"type:uuid;not null;index;column:estimate_id"`
	Estimate    *Estimate           `gorm:"foreignKey:EstimateID"`
	LineType    LineItemType        `gorm:"type:varchar(20);not null;column:line_type"`
	Description string              `gorm:"type:varchar(500)"`
	Quantity    decimal.NullDecimal `gorm:"type:decimal(15,4)"`
	Unit        string              `gorm:"type:varchar(50)"`
	UnitCost    decimal.NullDecimal `gorm:"type:decimal(15,4);column:unit_cost"`
	Total       decimal.Decimal     `gorm:"type:decimal(15,2);not null;default:0"`
	SortOrder   int                 `gorm:"not null;default:0;column:sort_order"`
	Notes       string              `gorm:"type:text"`
}

// UserSummarySuppression hides an opportunity from a user's personal summary
// until its stage changes again.
type UserSummarySuppression struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_opp_suppression;column:user_id"`
	OpportunityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_opp_suppression;column:opportunity_id"`
	SuppressedAt  time.Time `gorm:"not null;column:suppressed_at"`
}

// BeforeCreate assigns the primary key
func (s *UserSummarySuppression) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName overrides the default table name to match the migration
func (UserSummarySuppression) TableName() string {
	return "user_summary_suppressions"
}

// WeeklySummaryNote stores a user's free-form notes for one summary week
type WeeklySummaryNote struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_week;column:user_id"`
	WeekStart time.Time `gorm:"type:date;not null;uniqueIndex:idx_user_week;column:week_start"`
	Notes     string    `gorm:"type:text"`
}

// UserRole represents a user's role in the system
type UserRole string

const (
	RoleSales     UserRole = "Sales"
	RoleEstimator UserRole = "Estimator"
	RoleAdmin     UserRole = "Admin"
)

// IsValid checks if the UserRole is a valid enum value
func (r UserRole) IsValid() bool {
	switch r {
	case RoleSales, RoleEstimator, RoleAdmin:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	BaseModel
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name         string     `gorm:"type:varchar(200);not null"`
	Role         UserRole   `gorm:"type:varchar(50);not null;default:'Sales'"`
	PasswordHash string     `gorm:"type:varchar(255);not null;column:password_hash"`
	IsActive     bool       `gorm:"not null;default:true;column:is_active"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
}
