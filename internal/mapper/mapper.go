package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bidline/crm-api/internal/domain"
	"github.com/bidline/crm-api/internal/followup"
)

const timestampFormat = "2006-01-02T15:04:05Z"
const dateFormat = "2006-01-02"

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateFormat)
	return &s
}

func floatPtr(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

// ToAccountDTO converts Account to AccountDTO. Pipeline totals are computed
// from the opportunities the caller loaded; pass nil when they were not.
func ToAccountDTO(account *domain.Account, opps []domain.Opportunity) domain.AccountDTO {
	contacts := make([]domain.ContactDTO, len(account.Contacts))
	for i := range account.Contacts {
		contacts[i] = ToContactDTO(&account.Contacts[i])
	}

	return domain.AccountDTO{
		ID:                     account.ID,
		Name:                   account.Name,
		AccountType:            account.AccountType,
		Industry:               account.Industry,
		Address:                account.Address,
		City:                   account.City,
		State:                  account.State,
		ZipCode:                account.ZipCode,
		Phone:                  account.Phone,
		Website:                account.Website,
		Notes:                  account.Notes,
		IsHot:                  account.IsHot,
		NextAction:             account.NextAction,
		TotalPipelineValue:     domain.AccountPipelineValue(opps).InexactFloat64(),
		OpenOpportunitiesCount: domain.AccountOpenOpportunityCount(opps),
		LastContacted:          formatDatePtr(domain.AccountLastContacted(account.Contacts)),
		Contacts:               contacts,
		CreatedAt:              account.CreatedAt.Format(timestampFormat),
		UpdatedAt:              account.UpdatedAt.Format(timestampFormat),
	}
}

// ToContactDTO converts Contact to ContactDTO
func ToContactDTO(contact *domain.Contact) domain.ContactDTO {
	dto := domain.ContactDTO{
		ID:            contact.ID,
		FirstName:     contact.FirstName,
		LastName:      contact.LastName,
		FullName:      contact.FullName(),
		Title:         contact.Title,
		Email:         contact.Email,
		Phone:         contact.Phone,
		Mobile:        contact.Mobile,
		AccountID:     contact.AccountID,
		LastContacted: formatDatePtr(contact.LastContacted),
		NextFollowup:  formatDatePtr(contact.NextFollowup),
		Notes:         contact.Notes,
		CreatedAt:     contact.CreatedAt.Format(timestampFormat),
		UpdatedAt:     contact.UpdatedAt.Format(timestampFormat),
	}
	if contact.Account != nil {
		dto.AccountName = contact.Account.Name
	}
	return dto
}

// ToOpportunityDTO converts Opportunity to OpportunityDTO, annotating the
// follow-up status relative to today.
func ToOpportunityDTO(opp *domain.Opportunity, today time.Time) domain.OpportunityDTO {
	status, days := followup.Status(opp.NextFollowup, today)

	dto := domain.OpportunityDTO{
		ID:                  opp.ID,
		Name:                opp.Name,
		AccountID:           opp.AccountID,
		Stage:               opp.Stage,
		Probability:         opp.Probability,
		LVValue:             floatPtr(opp.LVValue),
		HDDValue:            floatPtr(opp.HDDValue),
		TotalValue:          opp.Value().InexactFloat64(),
		BidDate:             formatDatePtr(opp.BidDate),
		BidDateTBD:          opp.BidDateTBD,
		LastContacted:       formatDatePtr(opp.LastContacted),
		NextFollowup:        formatDatePtr(opp.NextFollowup),
		FollowupStatus:      status,
		DaysUntilFollowup:   days,
		StalledReason:       opp.StalledReason,
		Owner:               opp.Owner,
		AssignedEstimatorID: opp.AssignedEstimatorID,
		PrimaryContactID:    opp.PrimaryContactID,
		Source:              opp.Source,
		QuickLinks:          opp.QuickLinks,
		Notes:               opp.Notes,
		CreatedAt:           opp.CreatedAt.Format(timestampFormat),
		UpdatedAt:           opp.UpdatedAt.Format(timestampFormat),
	}
	if opp.Account != nil {
		dto.AccountName = opp.Account.Name
	}
	return dto
}

// ToActivityDTO converts Activity to ActivityDTO
func ToActivityDTO(activity *domain.Activity) domain.ActivityDTO {
	return domain.ActivityDTO{
		ID:            activity.ID,
		OpportunityID: activity.OpportunityID,
		ContactID:     activity.ContactID,
		ActivityType:  activity.ActivityType,
		Subject:       activity.Subject,
		Description:   activity.Description,
		OccurredAt:    activity.OccurredAt.Format(timestampFormat),
		CreatedBy:     activity.CreatedBy,
		CreatedAt:     activity.CreatedAt.Format(timestampFormat),
	}
}

// ToTaskDTO converts Task to TaskDTO
func ToTaskDTO(task *domain.Task) domain.TaskDTO {
	dto := domain.TaskDTO{
		ID:            task.ID,
		Title:         task.Title,
		OpportunityID: task.OpportunityID,
		AccountID:     task.AccountID,
		DueDate:       formatDatePtr(task.DueDate),
		AssignedToID:  task.AssignedToID,
		Completed:     task.IsCompleted(),
		CompletedBy:   task.CompletedBy,
		Notes:         task.Notes,
		CreatedAt:     task.CreatedAt.Format(timestampFormat),
		UpdatedAt:     task.UpdatedAt.Format(timestampFormat),
	}
	if task.CompletedAt != nil {
		s := task.CompletedAt.Format(timestampFormat)
		dto.CompletedAt = &s
	}
	return dto
}

// ToEstimateDTO converts Estimate to EstimateDTO
func ToEstimateDTO(estimate *domain.Estimate) domain.EstimateDTO {
	items := make([]domain.EstimateLineItemDTO, len(estimate.LineItems))
	for i := range estimate.LineItems {
		items[i] = ToEstimateLineItemDTO(&estimate.LineItems[i])
	}

	return domain.EstimateDTO{
		ID:            estimate.ID,
		OpportunityID: estimate.OpportunityID,
		Version:       estimate.Version,
		Name:          estimate.Name,
		Status:        estimate.Status,
		LaborTotal:    estimate.LaborTotal.InexactFloat64(),
		MaterialTotal: estimate.MaterialTotal.InexactFloat64(),
		Subtotal:      estimate.Subtotal.InexactFloat64(),
		MarginPercent: estimate.MarginPercent.InexactFloat64(),
		MarginAmount:  estimate.MarginAmount.InexactFloat64(),
		Total:         estimate.Total.InexactFloat64(),
		Notes:         estimate.Notes,
		CreatedBy:     estimate.CreatedBy,
		LineItems:     items,
		CreatedAt:     estimate.CreatedAt.Format(timestampFormat),
		UpdatedAt:     estimate.UpdatedAt.Format(timestampFormat),
	}
}

// ToEstimateLineItemDTO converts EstimateLineItem to its DTO
func ToEstimateLineItemDTO(item *domain.EstimateLineItem) domain.EstimateLineItemDTO {
	return domain.EstimateLineItemDTO{
		ID:          item.ID,
		EstimateID:  item.EstimateID,
		LineType:    item.LineType,
		Description: item.Description,
		Quantity:    floatPtr(item.Quantity),
		Unit:        item.Unit,
		UnitCost:    floatPtr(item.UnitCost),
		Total:       item.Total.InexactFloat64(),
		SortOrder:   item.SortOrder,
		Notes:       item.Notes,
	}
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Role:     user.Role,
		IsActive: user.IsActive,
	}
}
